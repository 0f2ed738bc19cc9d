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

package local

import (
	"context"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/frame"
)

// Client connects to a Server registered under the same Registry.
type Client struct {
	t *Transport
}

// Connect rendezvouses with a Listener registered at addr.Host (the local
// transport has no notion of a port; addr.Host is the whole identity) and
// returns the resulting Connection once the CONNECT handshake completes.
func (c *Client) Connect(ctx catalyst.Context, addr catalyst.Address) *catalyst.Future[*catalyst.Connection] {
	future := catalyst.NewFuture[*catalyst.Connection](ctx)

	go func() {
		rawConn, err := c.t.registry.Dial(context.Background(), addr.Host)
		if err != nil {
			future.Fail(err)
			return
		}

		if err := sendConnect(rawConn); err != nil {
			rawConn.Close()
			future.Fail(&catalyst.TransportError{Op: "connect", Err: err})
			return
		}

		ch := &pipeChannel{conn: rawConn}
		conn := catalyst.NewConnection(addr.Host, ctx, ch, c.t.ser, c.t.alloc)
		go runRecvLoop(conn, frame.NewReader(rawConn), ch)

		future.Complete(conn)
	}()

	return future
}
