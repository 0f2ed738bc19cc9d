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
	"errors"
	"net"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/frame"
)

var errBadHandshake = errors.New("tcp: malformed CONNECT handshake")

// netChannel adapts a net.Conn, framed via package frame, to the
// catalyst.Channel interface a Connection writes through.
type netChannel struct {
	conn net.Conn
}

func (ch *netChannel) WriteFrame(envelope []byte) error {
	out, err := frame.Encode(envelope)
	if err != nil {
		return err
	}
	_, err = ch.conn.Write(out)
	return err
}

func (ch *netChannel) Close() error {
	return ch.conn.Close()
}

// runRecvLoop reads frames off fr until it errors, delivering each one to
// conn, then tears conn down. It owns fr (and so the underlying net.Conn)
// for the rest of the connection's life and must run on its own goroutine,
// the same separation neonet's serveRecv keeps from its NodeLink's sending
// side.
func runRecvLoop(conn *catalyst.Connection, fr *frame.Reader, nc *netChannel) {
	for {
		body, err := fr.ReadFrame()
		if err != nil {
			conn.Abort(wrapRecvError(err))
			conn.Close()
			return
		}
		conn.Deliver(body)
	}
}

func wrapRecvError(err error) error {
	return &catalyst.TransportError{Op: "recv", Err: err}
}
