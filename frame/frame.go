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

// Package frame implements the length-prefixed framing the network
// transport uses to carry Connection envelopes over a net.Conn: a 2-byte
// big-endian length, followed by that many bytes of payload. It is the
// generalization of neonet's fixed pktHeader framing to an arbitrary
// variable-length payload, keeping the same read-ahead trick: a ring
// buffer holds whatever a single Read call returned past the current
// frame, so it doesn't need to be re-requested from the kernel for the
// next one.
package frame

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/someonegg/gocontainer/rbuf"

	"github.com/HackShare/catalyst/internal/xbytes"
)

// HeaderLen is the size of the length prefix.
const HeaderLen = 2

// MaxSize is the largest payload Encode/Reader will produce or accept.
const MaxSize = 32 * 1024

// readAheadSize is the scratch window used to read a frame's header and, in
// the common case, the whole of a small payload in a single syscall.
const readAheadSize = 4096

// ErrTooBig is returned when a frame's declared length prefix exceeds
// MaxSize.
var ErrTooBig = errors.New("frame: payload exceeds maximum size")

// Encode prepends payload with its 2-byte big-endian length, ready to write
// to a net.Conn as one frame.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxSize {
		return nil, ErrTooBig
	}
	out := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	copy(out[HeaderLen:], payload)
	return out, nil
}

// Reader reads length-prefixed frames off an underlying byte stream.
type Reader struct {
	r  io.Reader
	rx rbuf.RingBuf
}

// NewReader wraps r for frame-at-a-time reading.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadFrame blocks until the next complete frame is available and returns
// its payload (not including the length prefix). The returned slice is only
// valid until the next call to ReadFrame.
func (fr *Reader) ReadFrame() ([]byte, error) {
	data := make([]byte, readAheadSize)
	n := 0

	// A previous ReadFrame may have already pulled bytes belonging to
	// this frame off the wire; drain those first.
	if fr.rx.Len() > 0 {
		δn, _ := fr.rx.Read(data[:HeaderLen])
		n += δn
	}
	if n < HeaderLen {
		δn, err := io.ReadAtLeast(fr.r, data[n:], HeaderLen-n)
		if err != nil {
			return nil, err
		}
		n += δn
	}

	payloadLen := int(binary.BigEndian.Uint16(data[:HeaderLen]))
	if payloadLen > MaxSize {
		return nil, ErrTooBig
	}
	frameLen := HeaderLen + payloadLen

	data = xbytes.Resize(data, frameLen)

	if fr.rx.Len() > 0 {
		δn, _ := fr.rx.Read(data[n:frameLen])
		n += δn
	}
	if n < frameLen {
		δn, err := io.ReadAtLeast(fr.r, data[n:], frameLen-n)
		if err != nil {
			return nil, err
		}
		n += δn
	}

	// Whatever came back past this frame belongs to the next one; stash
	// it instead of dropping it.
	if n > frameLen {
		fr.rx.Write(data[frameLen:n])
	}

	return data[HeaderLen:frameLen], nil
}
