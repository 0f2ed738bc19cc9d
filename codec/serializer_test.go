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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackShare/catalyst"
)

type wireSample struct {
	Name  string
	Count int
	Tags  []string
}

func TestMsgpackSerializerRoundTrip(t *testing.T) {
	reg := NewTypeRegistry()
	reg.Register(wireSample{})
	ser := NewMsgpackSerializer(reg)

	buf := NewBufferPool(64).Allocate()
	defer buf.Release()

	in := wireSample{Name: "widget", Count: 3, Tags: []string{"a", "b"}}
	require.NoError(t, ser.WriteObject(buf, in))

	out, key, err := ser.ReadObject(buf)
	require.NoError(t, err)

	wantKey, err := ser.KeyOf(wireSample{})
	require.NoError(t, err)
	assert.Equal(t, wantKey, key)
	assert.Equal(t, in, out)
}

func TestMsgpackSerializerRoundTripsRemoteError(t *testing.T) {
	reg := NewTypeRegistry()
	ser := NewMsgpackSerializer(reg)

	buf := NewBufferPool(64).Allocate()
	defer buf.Release()

	in := catalyst.RemoteError{Message: "boom"}
	require.NoError(t, ser.WriteObject(buf, &in))

	out, key, err := ser.ReadObject(buf)
	require.NoError(t, err)
	assert.Equal(t, remoteErrorKey, key)
	assert.Equal(t, in, out)

	// The decoded value implements error via a value receiver, the way
	// catalyst.Connection.handleResponseFrame requires.
	_, ok := out.(error)
	assert.True(t, ok)
}

func TestReadObjectRejectsUnregisteredKey(t *testing.T) {
	reg := NewTypeRegistry()
	ser := NewMsgpackSerializer(reg)

	buf := NewBufferPool(64).Allocate()
	defer buf.Release()

	buf.Write([]byte{0x00, 0x63}) // key 99, never registered
	_, _, err := ser.ReadObject(buf)
	assert.Error(t, err)
}

func TestWriteObjectRejectsUnregisteredType(t *testing.T) {
	reg := NewTypeRegistry()
	ser := NewMsgpackSerializer(reg)

	buf := NewBufferPool(64).Allocate()
	defer buf.Release()

	err := ser.WriteObject(buf, wireSample{})
	assert.Error(t, err)
}
