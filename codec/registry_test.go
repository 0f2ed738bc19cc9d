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

type sampleA struct{ X int }
type sampleB struct{ Y string }

func TestNewTypeRegistryReservesRemoteError(t *testing.T) {
	r := NewTypeRegistry()
	key, err := r.keyOf(catalyst.RemoteError{})
	require.NoError(t, err)
	assert.Equal(t, remoteErrorKey, key)
}

func TestRegisterAssignsIncreasingKeys(t *testing.T) {
	r := NewTypeRegistry()
	kA := r.Register(sampleA{})
	kB := r.Register(sampleB{})
	assert.NotEqual(t, kA, kB)
	assert.Greater(t, kB, kA)
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewTypeRegistry()
	k1 := r.Register(sampleA{})
	k2 := r.Register(sampleA{})
	assert.Equal(t, k1, k2)
}

func TestRegisterDereferencesPointerSamples(t *testing.T) {
	r := NewTypeRegistry()
	byValue := r.Register(sampleA{})
	byPointer := r.Register(&sampleA{})
	assert.Equal(t, byValue, byPointer)
}

func TestKeyOfUnregisteredTypeFails(t *testing.T) {
	r := NewTypeRegistry()
	_, err := r.keyOf(sampleA{})
	assert.Error(t, err)
}

func TestTypeOfRoundTrips(t *testing.T) {
	r := NewTypeRegistry()
	key := r.Register(sampleA{})
	typ, ok := r.typeOf(key)
	require.True(t, ok)
	assert.Equal(t, "sampleA", typ.Name())
}
