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

import "encoding/binary"

// Envelope kind, the first byte of every frame body a Connection exchanges.
// kindConnect is only ever seen during a transport's handshake (tcp and
// local both send it), before a Connection exists; an established
// Connection treats it as a protocol error.
const (
	kindRequest  byte = 0x01
	kindResponse byte = 0x02
	kindConnect  byte = 0x10
)

// Response status, the byte following the request id in a RESPONSE envelope.
const (
	statusSuccess byte = 0x03
	statusFailure byte = 0x04
)

// maxFrameSize bounds any single envelope this package will hand to a
// Channel. 32 KiB matches the teacher's pkt.MAX_SIZE ceiling on a neonet
// packet.
const maxFrameSize = 32 * 1024

// requestHeaderSize is kind(1) + id(8).
const requestHeaderSize = 1 + 8

// responseHeaderSize is kind(1) + id(8) + status(1).
const responseHeaderSize = 1 + 8 + 1

// writeRequestEnvelope appends a REQUEST envelope (kind, id, serialized req)
// to buf.
func writeRequestEnvelope(buf Buffer, id uint64, req interface{}, ser Serializer) error {
	var hdr [requestHeaderSize]byte
	hdr[0] = kindRequest
	binary.BigEndian.PutUint64(hdr[1:], id)
	if _, err := buf.Write(hdr[:]); err != nil {
		return err
	}
	return ser.WriteObject(buf, req)
}

// writeResponseEnvelope appends a RESPONSE envelope (kind, id, status,
// serialized payload) to buf. payload is the reply value on statusSuccess,
// or the failure cause on statusFailure.
func writeResponseEnvelope(buf Buffer, id uint64, status byte, payload interface{}, ser Serializer) error {
	var hdr [responseHeaderSize]byte
	hdr[0] = kindResponse
	binary.BigEndian.PutUint64(hdr[1:9], id)
	hdr[9] = status
	if _, err := buf.Write(hdr[:]); err != nil {
		return err
	}
	return ser.WriteObject(buf, payload)
}
