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
	"fmt"

	"github.com/pkg/errors"
)

// TransportError wraps an underlying I/O failure (write, read, connect,
// bind). Once surfaced on a Connection it latches into that connection's
// failure state.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("transport error: %s", e.Err)
	}
	return fmt.Sprintf("transport error: %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// wrapTransport wraps err as a TransportError annotated with op, via
// github.com/pkg/errors so the original stack trace survives.
func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: errors.Wrap(err, op)}
}

// TimeoutError is returned when a request's 500ms response deadline elapses
// without a matching RESPONSE frame arriving.
type TimeoutError struct {
	RequestID uint64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request #%d timed out", e.RequestID)
}

// ClosedError is returned by a Send attempted on an already-closed
// Connection, and surfaces on every request still pending at the moment the
// connection went down.
type ClosedError struct{}

func (e *ClosedError) Error() string { return "connection is closed" }

// ErrClosed is the shared ClosedError instance; compare with errors.As.
var ErrClosed = &ClosedError{}

// UnknownMessageTypeError is sent back to the peer (as a FAILURE response)
// when a REQUEST names a payload type-key with no registered handler.
type UnknownMessageTypeError struct {
	TypeKey TypeKey
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type: %d", e.TypeKey)
}

// ProtocolError reports a malformed frame: an oversize length prefix or an
// unrecognized envelope kind byte. It is fatal for the channel it occurred
// on.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error: %s", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// ArgumentError reports a precondition violation at a public API boundary:
// a nil Context or nil request passed to Connection.Send, or a malformed
// host:port passed to ParseAddress. Transport options are not validated and
// never produce it.
type ArgumentError struct {
	Arg string
	Err error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// BindError is returned by Server.Listen when the requested Address is
// already in use (or otherwise cannot be bound).
type BindError struct {
	Address Address
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %s", e.Address, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// RemoteError is what a Send future is failed with when the peer's handler
// returned an error, or the peer rejected the request outright (unknown
// type, decode failure). The wire carries only the message: reconstructing
// the original error's concrete Go type on the other side would require
// every handler error type to be registered with the receiving side's
// Serializer too, which this package does not require of callers.
type RemoteError struct {
	Message string
}

// Error has a value receiver, not a pointer one, because Serializer.ReadObject
// hands back a plain RemoteError{} (reflect.New(t).Elem().Interface()), never
// a *RemoteError: handleResponseFrame's val.(error) assertion must succeed
// against that concrete value.
func (e RemoteError) Error() string { return e.Message }

// remoteCause adapts a local error into the wire-safe shape written as a
// FAILURE response payload.
func remoteCause(err error) *RemoteError {
	if re, ok := err.(*RemoteError); ok {
		return re
	}
	return &RemoteError{Message: err.Error()}
}
