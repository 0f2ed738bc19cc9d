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

package xbytes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResizeGrowsWhenCapacityInsufficient(t *testing.T) {
	b := []byte("hi")
	out := Resize(b, 10)
	assert.GreaterOrEqual(t, cap(out), 10)
	assert.Equal(t, "hi", string(out[:2]))
}

func TestResizeReusesExistingCapacity(t *testing.T) {
	b := make([]byte, 2, 16)
	b[0], b[1] = 'h', 'i'
	out := Resize(b, 4)
	assert.Equal(t, cap(b), cap(out))
	assert.Equal(t, byte('h'), out[0])
	assert.Equal(t, byte('i'), out[1])
}

func TestResizeReturnsFullCapacityNotExactLength(t *testing.T) {
	b := make([]byte, 2, 16)
	out := Resize(b, 4)
	assert.Len(t, out, 16)
}
