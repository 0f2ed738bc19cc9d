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

// TypeKey is the opaque tag a Serializer associates with a registered Go
// type, substituting for "runtime class of the deserialized value" in a
// statically typed implementation (see spec §9's handler-registry note).
// Handlers register against a TypeKey rather than a type literal.
type TypeKey uint16

// Serializer is the black-box converter between typed Go values and wire
// bytes. It is consumed, not implemented, by this package; see package
// codec for a default msgpack-backed implementation.
type Serializer interface {
	// WriteObject encodes v into buf's remaining capacity.
	WriteObject(buf Buffer, v interface{}) error
	// ReadObject decodes the next value from buf, along with the
	// TypeKey it was tagged with on the wire.
	ReadObject(buf Buffer) (v interface{}, key TypeKey, err error)
	// KeyOf returns the TypeKey a value of v's type would be tagged
	// with, without encoding v. Used to register handlers against a
	// sample value: key, _ := ser.KeyOf(MyRequest{}); conn.Handler(ctx, key, fn).
	KeyOf(v interface{}) (TypeKey, error)
}

// Buffer is a (possibly pooled, possibly reference-counted) byte buffer that
// is appended to with Write and read whole with Bytes; it has no separate
// read cursor.
type Buffer interface {
	// Bytes returns everything written to the buffer so far.
	Bytes() []byte
	// Write appends p to the buffer.
	Write(p []byte) (int, error)
	// Release returns the buffer to its allocator. Callers must not
	// touch the buffer after calling Release.
	Release()
}

// BufferAllocator produces Buffers. A pooled, reference-counted allocator
// avoids per-message garbage under sustained load; see codec.BufferPool for
// the default.
type BufferAllocator interface {
	Allocate() Buffer
}
