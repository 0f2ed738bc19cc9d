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

package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/shamaton/msgpack"

	"github.com/HackShare/catalyst"
)

// MsgpackSerializer is the default catalyst.Serializer: every object is
// prefixed on the wire with its 2-byte TypeKey (looked up in a
// TypeRegistry), followed by its msgpack encoding. The TypeKey is what lets
// ReadObject allocate the right concrete Go type before handing the bytes
// to msgpack.Decode, since unlike the Java original's Kryo-based codec,
// msgpack carries no type information of its own.
type MsgpackSerializer struct {
	registry *TypeRegistry
}

// NewMsgpackSerializer builds a Serializer backed by registry.
func NewMsgpackSerializer(registry *TypeRegistry) *MsgpackSerializer {
	return &MsgpackSerializer{registry: registry}
}

func (s *MsgpackSerializer) WriteObject(buf catalyst.Buffer, v interface{}) error {
	key, err := s.registry.keyOf(v)
	if err != nil {
		return err
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(key))
	if _, err := buf.Write(hdr[:]); err != nil {
		return err
	}
	data, err := msgpack.Encode(v)
	if err != nil {
		return err
	}
	_, err = buf.Write(data)
	return err
}

func (s *MsgpackSerializer) ReadObject(buf catalyst.Buffer) (interface{}, catalyst.TypeKey, error) {
	b := buf.Bytes()
	if len(b) < 2 {
		return nil, 0, fmt.Errorf("codec: object header truncated")
	}
	key := catalyst.TypeKey(binary.BigEndian.Uint16(b[:2]))

	t, ok := s.registry.typeOf(key)
	if !ok {
		return nil, key, fmt.Errorf("codec: unregistered type key %d", key)
	}

	ptr := reflect.New(t)
	if err := msgpack.Decode(b[2:], ptr.Interface()); err != nil {
		return nil, key, err
	}
	return ptr.Elem().Interface(), key, nil
}

func (s *MsgpackSerializer) KeyOf(v interface{}) (catalyst.TypeKey, error) {
	return s.registry.keyOf(v)
}
