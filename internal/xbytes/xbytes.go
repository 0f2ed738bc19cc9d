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

// Package xbytes provides the byte-slice growth helper (Resize) the frame
// reader needs, standing in for lab.nexedi.com/kirr/go123/xbytes which is not part
// of this module's dependency set.
package xbytes

// Resize returns a slice with at least size bytes of capacity, containing
// b's original contents. If b already has enough capacity, it is reused
// (reslicing up, not truncating below len(b)).
func Resize(b []byte, size int) []byte {
	if cap(b) >= size {
		return b[:cap(b)]
	}
	nb := make([]byte, size)
	copy(nb, b)
	return nb
}
