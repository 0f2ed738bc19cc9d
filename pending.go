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

import (
	"sync"
	"time"
)

// pendingEntry is one in-flight request awaiting a RESPONSE frame.
type pendingEntry struct {
	id         uint64
	future     *Future[interface{}]
	enqueuedAt time.Time
	prev, next *pendingEntry
}

// pendingSet tracks in-flight requests keyed by id, while also threading them
// through a doubly linked list in insertion (== id allocation) order. The
// list lets the reap pass walk oldest-first and stop at the first entry still
// inside its timeout, without scanning the whole map every 250ms — mirroring
// how the teacher's NodeLink keeps pending requests ordered for its own
// timeout/cancellation sweep instead of ranging over a plain map.
type pendingSet struct {
	mu         sync.Mutex
	byID       map[uint64]*pendingEntry
	head, tail *pendingEntry
}

func newPendingSet() *pendingSet {
	return &pendingSet{byID: make(map[uint64]*pendingEntry)}
}

func (s *pendingSet) put(e *pendingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[e.id] = e
	if s.tail == nil {
		s.head, s.tail = e, e
		return
	}
	e.prev = s.tail
	s.tail.next = e
	s.tail = e
}

func (s *pendingSet) unlink(e *pendingEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

// remove takes the entry with id out of the set, if present.
func (s *pendingSet) remove(id uint64) (*pendingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	delete(s.byID, id)
	s.unlink(e)
	return e, true
}

// popExpiredOldest removes and returns the oldest entry if it has been
// pending longer than timeout. It returns ok=false as soon as the oldest
// remaining entry is still within its deadline, since every later entry was
// enqueued after it and so expires no sooner.
func (s *pendingSet) popExpiredOldest(now time.Time, timeout time.Duration) (*pendingEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.head
	if e == nil || now.Sub(e.enqueuedAt) <= timeout {
		return nil, false
	}
	delete(s.byID, e.id)
	s.unlink(e)
	return e, true
}

// drainAll removes and returns every pending entry, in insertion order. Used
// when a failure or close latch fires and every outstanding request must be
// failed.
func (s *pendingSet) drainAll() []*pendingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pendingEntry, 0, len(s.byID))
	for e := s.head; e != nil; e = e.next {
		out = append(out, e)
	}
	s.byID = make(map[uint64]*pendingEntry)
	s.head, s.tail = nil, nil
	return out
}
