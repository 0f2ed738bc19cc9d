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
	"net"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/frame"
)

// connectKind mirrors package tcp's CONNECT handshake byte, so traffic on
// the local transport is byte-for-byte the same envelope shape as traffic
// on the network transport: the only thing that differs between the two
// backends is what Channel.WriteFrame writes to underneath.
const connectKind byte = 0x10

func sendConnect(conn net.Conn) error {
	out, err := frame.Encode([]byte{connectKind})
	if err != nil {
		return err
	}
	_, err = conn.Write(out)
	return err
}

func recvConnect(conn net.Conn) (*frame.Reader, error) {
	fr := frame.NewReader(conn)
	body, err := fr.ReadFrame()
	if err != nil {
		return nil, err
	}
	if len(body) != 1 || body[0] != connectKind {
		return nil, errBadHandshake
	}
	return fr, nil
}

// pipeChannel adapts a net.Pipe() half to catalyst.Channel, the local
// transport's counterpart to package tcp's netChannel.
type pipeChannel struct {
	conn net.Conn
}

func (ch *pipeChannel) WriteFrame(envelope []byte) error {
	out, err := frame.Encode(envelope)
	if err != nil {
		return err
	}
	_, err = ch.conn.Write(out)
	return err
}

func (ch *pipeChannel) Close() error {
	return ch.conn.Close()
}

func runRecvLoop(conn *catalyst.Connection, fr *frame.Reader, ch *pipeChannel) {
	for {
		body, err := fr.ReadFrame()
		if err != nil {
			conn.Abort(&catalyst.TransportError{Op: "recv", Err: err})
			conn.Close()
			return
		}
		conn.Deliver(body)
	}
}
