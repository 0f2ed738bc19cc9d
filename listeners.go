// Copyright (C) 2016-2018  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

package catalyst

import "sync"

// ListenerHandle detaches a previously-registered listener.
type ListenerHandle interface {
	// Detach removes the listener. It is safe to call even if the
	// listener set that created the handle has since been torn down.
	Detach()
}

// listeners is an append-only, snapshot-safe set of callbacks, used for
// exceptionListeners and closeListeners. Detach is tolerated after the
// owning connection has gone away (the handle holds its own back-pointer,
// not a shared index).
type listeners[T any] struct {
	mu    sync.Mutex
	items []*listenerEntry[T]
}

type listenerEntry[T any] struct {
	fn      func(T)
	set     *listeners[T]
	removed bool
}

func (e *listenerEntry[T]) Detach() {
	set := e.set
	if set == nil {
		return
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	if e.removed {
		return
	}
	e.removed = true
	for i, cur := range set.items {
		if cur == e {
			set.items = append(set.items[:i], set.items[i+1:]...)
			break
		}
	}
}

// Add appends fn to the set and returns a handle to detach it later.
func (s *listeners[T]) Add(fn func(T)) ListenerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &listenerEntry[T]{fn: fn, set: s}
	s.items = append(s.items, e)
	return e
}

// snapshot returns the currently registered callbacks, in registration
// order, safe to iterate without holding the lock (new Add/Detach calls
// during iteration do not affect an in-progress Notify).
func (s *listeners[T]) snapshot() []*listenerEntry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*listenerEntry[T], len(s.items))
	copy(out, s.items)
	return out
}

// Notify invokes every currently-registered listener, in registration
// order, with val.
func (s *listeners[T]) Notify(val T) {
	for _, e := range s.snapshot() {
		e.fn(val)
	}
}
