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

// Channel is the owned handle to the transport-layer byte stream underneath
// a Connection. Implementations are provided by the network transport
// (package tcp, framing bytes over a net.Conn) and the local transport
// (package local, the same framing over a net.Pipe() pair rather than a
// real socket).
//
// WriteFrame is only ever called from the Connection's owning Context, so
// implementations do not need to guard against concurrent writers.
type Channel interface {
	// WriteFrame sends one complete envelope (kind byte + body) to the
	// peer as a single logical message.
	WriteFrame(envelope []byte) error
	// Close tears down the underlying stream. Close is idempotent.
	Close() error
}
