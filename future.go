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

// Future is a value of type T that is not yet available. It always
// completes on the Context supplied to NewFuture, regardless of which
// Context discovers or triggers the completion — this is how invariant 3
// of the connection state machine (§3) is realized: "all completions of a
// future registered from context C execute on C's executor."
type Future[T any] struct {
	ctx Context

	mu   sync.Mutex
	done bool
	val  T
	err  error
	wait chan struct{}
	subs []func(T, error)
}

// NewFuture creates a Future whose completion callbacks run on ctx.
func NewFuture[T any](ctx Context) *Future[T] {
	return &Future[T]{ctx: ctx, wait: make(chan struct{})}
}

// completed returns an already-resolved Future.
func completed[T any](ctx Context, val T) *Future[T] {
	f := NewFuture[T](ctx)
	f.settle(val, nil)
	return f
}

func failed[T any](ctx Context, err error) *Future[T] {
	f := NewFuture[T](ctx)
	f.settle(*new(T), err)
	return f
}

// settle resolves the future immediately (caller must already be running on
// f.ctx's executor, or not care about ordering w.r.t. other work on it).
func (f *Future[T]) settle(val T, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.val = val
	f.err = err
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()
	close(f.wait)
	for _, sub := range subs {
		sub(val, err)
	}
}

// Complete posts a successful resolution to f's owning Context.
func (f *Future[T]) Complete(val T) {
	f.ctx.Executor().Execute(func() { f.settle(val, nil) })
}

// Fail posts a failing resolution to f's owning Context.
func (f *Future[T]) Fail(err error) {
	f.ctx.Executor().Execute(func() { f.settle(*new(T), err) })
}

// OnComplete registers fn to run, on f's owning Context, once f resolves. If
// f is already resolved, fn is still dispatched via the Context's executor
// rather than called inline, so callers never observe synchronous
// reentrancy.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if f.done {
		val, err := f.val, f.err
		f.mu.Unlock()
		f.ctx.Executor().Execute(func() { fn(val, err) })
		return
	}
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// Wait blocks the calling goroutine until f resolves. It is meant for tests
// and glue code bridging into blocking callers; library internals should
// prefer OnComplete.
func (f *Future[T]) Wait() (T, error) {
	<-f.wait
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// Done reports whether f has resolved yet.
func (f *Future[T]) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
