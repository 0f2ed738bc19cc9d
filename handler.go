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

// MessageHandler processes one inbound request and produces the reply that
// will be serialized back to the peer. The returned Future resolves on
// whichever Context the handler itself was registered with.
type MessageHandler func(request interface{}) *Future[interface{}]

// handlerEntry pairs a registered handler with the Context it must run on.
type handlerEntry struct {
	fn  MessageHandler
	ctx Context
}

// readBuffer adapts a plain byte slice to the Buffer interface so inbound
// envelope bytes can be handed to a Serializer's ReadObject without going
// through a BufferAllocator. It is read-only: Write always fails.
type readBuffer struct {
	b []byte
}

func newReadBuffer(b []byte) *readBuffer { return &readBuffer{b: b} }

func (r *readBuffer) Bytes() []byte { return r.b }

func (r *readBuffer) Write(p []byte) (int, error) {
	return 0, &ProtocolError{Err: errReadOnlyBuffer}
}

func (r *readBuffer) Release() {}
