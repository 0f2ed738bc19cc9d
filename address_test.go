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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("host1:1234")
	require.NoError(t, err)
	assert.Equal(t, Address{Host: "host1", Port: 1234}, a)
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	_, err := ParseAddress("not-a-hostport")
	require.Error(t, err)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestAddressString(t *testing.T) {
	a := NewAddress("host1", 1234)
	assert.Equal(t, "host1:1234", a.String())
}

func TestAddressEqualByResolution(t *testing.T) {
	a := NewAddress("localhost", 4242)
	b := NewAddress("127.0.0.1", 4242)
	assert.True(t, a.Equal(b))
}

func TestAddressEqualDiffersByPort(t *testing.T) {
	a := NewAddress("127.0.0.1", 4242)
	b := NewAddress("127.0.0.1", 4243)
	assert.False(t, a.Equal(b))
}

func TestAddressGoString(t *testing.T) {
	a := NewAddress("host1", 1234)
	assert.Equal(t, `catalyst.Address{Host: "host1", Port: 1234}`, a.GoString())
}
