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

package tcp

import (
	"net"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/frame"
)

// Client dials out to a Server and hands back an established Connection.
type Client struct {
	t *Transport
}

// Connect dials addr, performs the CONNECT handshake and returns the
// resulting Connection. ctx becomes the Connection's owning Context; the
// returned Future also resolves on ctx.
func (c *Client) Connect(ctx catalyst.Context, addr catalyst.Address) *catalyst.Future[*catalyst.Connection] {
	future := catalyst.NewFuture[*catalyst.Connection](ctx)

	go func() {
		dialer := &net.Dialer{Timeout: c.t.dialTimeout}
		rawConn, err := dialer.Dial("tcp", addr.String())
		if err != nil {
			future.Fail(&catalyst.TransportError{Op: "dial", Err: err})
			return
		}

		if tc, ok := rawConn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
			_ = tc.SetKeepAlive(true)
		}

		if err := sendConnect(rawConn); err != nil {
			rawConn.Close()
			future.Fail(&catalyst.TransportError{Op: "connect", Err: err})
			return
		}

		nc := &netChannel{conn: rawConn}
		conn := catalyst.NewConnection(addr.String(), ctx, nc, c.t.ser, c.t.alloc)
		go runRecvLoop(conn, frame.NewReader(rawConn), nc)

		future.Complete(conn)
	}()

	return future
}
