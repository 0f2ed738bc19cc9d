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
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HackShare/catalyst/internal/xlog"
)

const (
	requestTimeout = 500 * time.Millisecond
	reapPeriod     = 250 * time.Millisecond
)

// errorBox lets an atomic.Value hold an error: error is an interface, and
// atomic.Value panics if consecutive Store calls carry different concrete
// types, which two different error implementations would trigger directly.
type errorBox struct{ err error }

// Connection is a duplex, request/response-correlated message channel over
// an arbitrary Channel. It is the shared engine behind both the network
// transport (package tcp) and the local, in-process transport (package
// local): neither backend reimplements request bookkeeping, handler
// dispatch or timeout reaping, they only supply a Channel and feed inbound
// bytes to handleFrame.
//
// A Connection always has exactly one owning Context, established at
// construction. Every effect a peer or a local caller can observe --
// handler invocation, future completion, listener notification -- runs on
// some Context's executor, per the contract Context documents.
type Connection struct {
	name    string
	ctx     Context
	channel Channel
	ser     Serializer
	alloc   BufferAllocator

	handlersMu sync.RWMutex
	handlers   map[TypeKey]handlerEntry

	pending *pendingSet
	nextID  uint64

	exceptionListeners listeners[error]
	closeListeners     listeners[*Connection]

	failureOnce sync.Once
	failureVal  atomic.Value // *errorBox

	closedOnce sync.Once
	closedFlag int32

	reapTimer Scheduled
}

// NewConnection wires a Channel into a running Connection engine. ctx is the
// Connection's owning Context: reads, dispatch bookkeeping and the reap
// sweep all run there. name is used only for log lines.
func NewConnection(name string, ctx Context, channel Channel, ser Serializer, alloc BufferAllocator) *Connection {
	c := &Connection{
		name:     name,
		ctx:      ctx,
		channel:  channel,
		ser:      ser,
		alloc:    alloc,
		handlers: make(map[TypeKey]handlerEntry),
		pending:  newPendingSet(),
	}
	c.reapTimer = ctx.Schedule(reapPeriod, reapPeriod, c.reapOnce)
	return c
}

// Send transmits req to the peer and returns a Future for its reply. ctx is
// the caller's Context: the returned Future, and any timeout or transport
// failure that resolves it, always run on ctx's executor, never on the
// Connection's own owning Context.
func (c *Connection) Send(ctx Context, req interface{}) *Future[interface{}] {
	if ctx == nil {
		return failed[interface{}](c.ctx, &ArgumentError{Arg: "ctx", Err: errNilContext})
	}
	if req == nil {
		return failed[interface{}](ctx, &ArgumentError{Arg: "request", Err: errNilRequest})
	}

	future := NewFuture[interface{}](ctx)

	if err := c.terminalError(); err != nil {
		future.Fail(err)
		return future
	}

	id := atomic.AddUint64(&c.nextID, 1)
	enqueuedAt := time.Now()

	c.ctx.Executor().Execute(func() {
		if err := c.terminalError(); err != nil {
			future.Fail(err)
			return
		}

		buf := c.alloc.Allocate()
		err := writeRequestEnvelope(buf, id, req, c.ser)
		if err == nil {
			if len(buf.Bytes()) > maxFrameSize {
				err = &ProtocolError{Err: fmt.Errorf("request #%d: encoded size %d exceeds %d byte limit", id, len(buf.Bytes()), maxFrameSize)}
			}
		}
		if err == nil {
			err = c.channel.WriteFrame(buf.Bytes())
		}
		buf.Release()

		if err != nil {
			transportErr := wrapTransport("send", err)
			future.Fail(transportErr)
			c.handleException(transportErr)
			return
		}

		c.pending.put(&pendingEntry{id: id, future: future, enqueuedAt: enqueuedAt})

		// The write above and this insert are not atomic: a failure or
		// close latch could have fired in between and already run its
		// drain over an empty pending set, missing this entry. Re-check
		// and drain it ourselves so it isn't orphaned until the next reap.
		if err := c.terminalError(); err != nil {
			if e, ok := c.pending.remove(id); ok {
				e.future.Fail(err)
			}
		}
	})

	return future
}

// Handler registers fn to run, on ctx, for every inbound request tagged with
// key, replacing any handler previously registered for key. A nil fn
// deregisters key. Handler always returns c, so calls can be chained.
func (c *Connection) Handler(ctx Context, key TypeKey, fn MessageHandler) *Connection {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	if fn == nil {
		delete(c.handlers, key)
		return c
	}
	c.handlers[key] = handlerEntry{fn: fn, ctx: ctx}
	return c
}

// ExceptionListener registers fn to run whenever this Connection latches a
// fatal error. If the Connection has already failed, fn runs synchronously,
// once, before ExceptionListener returns.
func (c *Connection) ExceptionListener(fn func(error)) ListenerHandle {
	if err := c.loadFailure(); err != nil {
		fn(err)
	}
	return c.exceptionListeners.Add(fn)
}

// CloseListener registers fn to run once this Connection closes. If the
// Connection is already closed, fn runs synchronously, once, before
// CloseListener returns.
func (c *Connection) CloseListener(fn func(*Connection)) ListenerHandle {
	if c.IsClosed() {
		fn(c)
	}
	return c.closeListeners.Add(fn)
}

// Close tears down the underlying Channel. Close is idempotent: every call
// returns a Future that completes once the Channel has actually gone down,
// regardless of which call triggered that. Because Close's own work and any
// in-flight Send/reply are all scheduled on the same owning Context, the
// close is naturally deferred behind whatever write is already queued
// ahead of it.
func (c *Connection) Close() *Future[struct{}] {
	future := NewFuture[struct{}](c.ctx)
	c.ctx.Executor().Execute(func() {
		c.closedOnce.Do(func() {
			if err := c.channel.Close(); err != nil {
				xlog.Warningf(c.name, "close: %s", err)
			}
			c.handleClosed()
		})
		future.Complete(struct{}{})
	})
	return future
}

// IsClosed reports whether this Connection has finished closing.
func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closedFlag) != 0
}

func (c *Connection) loadFailure() error {
	v := c.failureVal.Load()
	if v == nil {
		return nil
	}
	return v.(*errorBox).err
}

// terminalError returns the reason Send/handleFrame should refuse further
// work, if any: closed wins over a latched failure in the (rare) case both
// have fired, since a torn-down channel is the more specific diagnosis.
func (c *Connection) terminalError() error {
	if c.IsClosed() {
		return ErrClosed
	}
	return c.loadFailure()
}

// Deliver feeds one inbound envelope, read off the Channel by whichever
// backend owns it, into the engine for dispatch. The envelope is copied and
// handled on the Connection's owning Context, behind any Send already queued
// there. Backends call this from their own read loop; it must not be called
// concurrently with itself for the same Connection.
func (c *Connection) Deliver(raw []byte) {
	env := append([]byte(nil), raw...)
	c.ctx.Executor().Execute(func() { c.handleFrame(env) })
}

// Abort latches err as this Connection's fatal error, as handleException
// would if the error had been discovered internally. Backends call this
// from their read loop when the underlying Channel itself fails (a read
// error, a protocol violation caught before a full envelope could be
// parsed), typically followed by Close to tear the Channel down.
func (c *Connection) Abort(err error) {
	c.handleException(err)
}

// handleFrame dispatches one inbound envelope, delivered by whichever
// backend owns the underlying Channel (tcp's per-connection read loop, or
// local's direct peer-to-peer handoff).
func (c *Connection) handleFrame(raw []byte) {
	if len(raw) < 1 {
		c.handleException(&ProtocolError{Err: errEmptyFrame})
		return
	}
	kind, body := raw[0], raw[1:]
	switch kind {
	case kindRequest:
		c.handleRequestFrame(body)
	case kindResponse:
		c.handleResponseFrame(body)
	case kindConnect:
		c.handleException(&ProtocolError{Err: errUnexpectedConnect})
	default:
		c.handleException(&ProtocolError{Err: fmt.Errorf("unknown envelope kind 0x%02x", kind)})
	}
}

func (c *Connection) handleRequestFrame(body []byte) {
	if len(body) < 8 {
		c.handleException(&ProtocolError{Err: errShortRequest})
		return
	}
	id := binary.BigEndian.Uint64(body[:8])

	req, key, err := c.ser.ReadObject(newReadBuffer(body[8:]))
	if err != nil {
		c.handleException(&ProtocolError{Err: err})
		return
	}

	c.handlersMu.RLock()
	h, ok := c.handlers[key]
	c.handlersMu.RUnlock()

	if !ok {
		c.reply(id, statusFailure, remoteCause(&UnknownMessageTypeError{TypeKey: key}))
		return
	}

	h.ctx.Executor().Execute(func() {
		h.fn(req).OnComplete(func(val interface{}, err error) {
			c.ctx.Executor().Execute(func() {
				if err != nil {
					c.reply(id, statusFailure, remoteCause(err))
				} else {
					c.reply(id, statusSuccess, val)
				}
			})
		})
	})
}

func (c *Connection) handleResponseFrame(body []byte) {
	if len(body) < 9 {
		c.handleException(&ProtocolError{Err: errShortResponse})
		return
	}
	id := binary.BigEndian.Uint64(body[:8])
	status := body[8]

	entry, ok := c.pending.remove(id)
	if !ok {
		// Already reaped as a timeout, or already drained by a failure/
		// close latch: the peer's answer arrived too late to matter.
		return
	}

	val, _, err := c.ser.ReadObject(newReadBuffer(body[9:]))
	if err != nil {
		entry.future.Fail(wrapTransport("decode", err))
		return
	}

	switch status {
	case statusSuccess:
		entry.future.Complete(val)
	case statusFailure:
		if cause, ok := val.(error); ok {
			entry.future.Fail(cause)
		} else {
			entry.future.Fail(&RemoteError{Message: fmt.Sprintf("%v", val)})
		}
	default:
		entry.future.Fail(&ProtocolError{Err: fmt.Errorf("unknown response status 0x%02x", status)})
	}
}

// reply serializes and sends a RESPONSE envelope for request id. It always
// runs on c.ctx (called either directly from Send/handleFrame's own
// executor closures, or scheduled there from a handler's Context above), so
// writes stay single-writer without a separate write lock.
func (c *Connection) reply(id uint64, status byte, payload interface{}) {
	buf := c.alloc.Allocate()
	err := writeResponseEnvelope(buf, id, status, payload, c.ser)
	if err == nil && len(buf.Bytes()) > maxFrameSize {
		err = &ProtocolError{Err: fmt.Errorf("response #%d: encoded size %d exceeds %d byte limit", id, len(buf.Bytes()), maxFrameSize)}
	}
	if err == nil {
		err = c.channel.WriteFrame(buf.Bytes())
	}
	buf.Release()
	if err != nil {
		if _, isProto := err.(*ProtocolError); isProto {
			xlog.Warningf(c.name, "reply #%d: %s", id, err)
			return
		}
		c.handleException(wrapTransport("reply", err))
	}
}

func (c *Connection) reapOnce() {
	now := time.Now()
	for {
		e, ok := c.pending.popExpiredOldest(now, requestTimeout)
		if !ok {
			return
		}
		e.future.Fail(&TimeoutError{RequestID: e.id})
	}
}

// handleException latches t as this Connection's fatal error, the first
// time it is called, then fails every pending request and notifies every
// exception listener. Later calls are no-ops: only the first error is kept.
func (c *Connection) handleException(t error) {
	first := false
	c.failureOnce.Do(func() {
		c.failureVal.Store(&errorBox{t})
		first = true
	})
	if !first {
		return
	}
	xlog.Warningf(c.name, "exception: %s", t)
	for _, e := range c.pending.drainAll() {
		e.future.Fail(t)
	}
	c.exceptionListeners.Notify(t)
}

// handleClosed latches this Connection as closed, the first time it is
// called, then fails every still-pending request with ErrClosed, notifies
// every close listener and stops the reap timer.
//
// handleClosed is entered from Close, once its Channel.Close call returns
// (the transports' read-error paths reach it by calling Abort and then
// Close). Besides Close's sync.Once it guards itself with a CompareAndSwap
// on closedFlag, the flag IsClosed reads.
func (c *Connection) handleClosed() {
	if !atomic.CompareAndSwapInt32(&c.closedFlag, 0, 1) {
		return
	}
	xlog.Infof(c.name, "closed")
	for _, e := range c.pending.drainAll() {
		e.future.Fail(ErrClosed)
	}
	c.closeListeners.Notify(c)
	if c.reapTimer != nil {
		c.reapTimer.Cancel()
	}
}
