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
	"sync"

	"github.com/HackShare/catalyst"
)

// pooledBuffer is a growable byte buffer drawn from, and returned to, a
// BufferPool -- the same pkt-freelist idea as neonet's pktAlloc/pkt.Free,
// generalized from fixed 4K packets to whatever size an envelope needs.
type pooledBuffer struct {
	pool *BufferPool
	buf  []byte
}

func (b *pooledBuffer) Bytes() []byte { return b.buf }

func (b *pooledBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *pooledBuffer) Release() {
	b.pool.put(b)
}

// BufferPool is a sync.Pool-backed catalyst.BufferAllocator. Buffers start
// empty with initialCap bytes of spare capacity and are reset (not
// reallocated) on reuse, so steady-state traffic at a stable message size
// does no further allocation after warmup.
type BufferPool struct {
	initialCap int
	pool       sync.Pool
}

// NewBufferPool returns a BufferAllocator whose buffers start with
// initialCap bytes of capacity.
func NewBufferPool(initialCap int) *BufferPool {
	p := &BufferPool{initialCap: initialCap}
	p.pool.New = func() interface{} {
		return &pooledBuffer{pool: p, buf: make([]byte, 0, p.initialCap)}
	}
	return p
}

func (p *BufferPool) Allocate() catalyst.Buffer {
	b := p.pool.Get().(*pooledBuffer)
	b.buf = b.buf[:0]
	return b
}

func (p *BufferPool) put(b *pooledBuffer) {
	p.pool.Put(b)
}
