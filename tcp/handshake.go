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

	"github.com/HackShare/catalyst/frame"
)

// connectKind is the CONNECT envelope's single byte, written as its own
// frame right after the TCP connection is established and before any
// Connection exists. It plays the same role as neonet's version handshake
// word (newlink.go's handshake()), simplified to a fixed one-byte hello
// since this package has no protocol-version negotiation of its own.
const connectKind byte = 0x10

// sendConnect writes the CONNECT handshake frame a Client sends right after
// dialing.
func sendConnect(conn net.Conn) error {
	out, err := frame.Encode([]byte{connectKind})
	if err != nil {
		return err
	}
	_, err = conn.Write(out)
	return err
}

// recvConnect reads and validates the CONNECT handshake frame a Server
// expects right after accepting. The frame.Reader it builds to do so may
// already have pulled bytes belonging to the connection's first real
// envelope off the wire, so the caller must keep using the same Reader
// afterwards rather than building a fresh one.
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
