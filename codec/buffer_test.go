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
)

func TestBufferPoolAllocateStartsEmpty(t *testing.T) {
	pool := NewBufferPool(16)
	buf := pool.Allocate()
	assert.Empty(t, buf.Bytes())
}

func TestBufferPoolWriteAccumulates(t *testing.T) {
	pool := NewBufferPool(16)
	buf := pool.Allocate()

	n, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = buf.Write([]byte(", world"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	assert.Equal(t, "hello, world", string(buf.Bytes()))
}

func TestBufferPoolReleasedBufferComesBackEmpty(t *testing.T) {
	pool := NewBufferPool(16)
	buf := pool.Allocate()
	buf.Write([]byte("leftover"))
	buf.Release()

	next := pool.Allocate()
	assert.Empty(t, next.Bytes())
}
