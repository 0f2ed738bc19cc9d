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

// Package tcp implements the network Transport: Connections multiplexed
// over a length-framed net.Conn, grounded on neonet's NodeLink/NodeLink
// handshake (newlink.go) generalized from NEO's fixed version handshake to
// this package's CONNECT envelope, and on its Conn/pktBuf read loop
// (connection.go) generalized to the frame package's variable-length
// codec.
package tcp

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/codec"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultAcceptFanoutMax = 64
)

// Transport is a factory for Clients and Servers sharing one Serializer,
// BufferAllocator and accept-fanout budget, mirroring how a single
// NettyTransport in the original backs every NettyClient/NettyServer built
// from it.
type Transport struct {
	ser         catalyst.Serializer
	alloc       catalyst.BufferAllocator
	dialTimeout time.Duration
	acceptSem   *semaphore.Weighted

	mu      sync.Mutex
	closed  bool
	clients map[string]*Client
	servers map[string]*Server
}

// Option configures a Transport.
type Option func(*Transport)

// WithSerializer overrides the default msgpack Serializer.
func WithSerializer(ser catalyst.Serializer) Option {
	return func(t *Transport) { t.ser = ser }
}

// WithBufferAllocator overrides the default pooled BufferAllocator.
func WithBufferAllocator(alloc catalyst.BufferAllocator) Option {
	return func(t *Transport) { t.alloc = alloc }
}

// WithDialTimeout overrides the default 5s Client.Connect dial timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(t *Transport) { t.dialTimeout = d }
}

// WithAcceptFanout bounds how many connections a Server may be mid-handshake
// with at once, shared across every Server built from this Transport. The
// default is 64, the same spirit as golang.org/x/sync/semaphore's own
// worker-pool examples.
func WithAcceptFanout(n int64) Option {
	return func(t *Transport) { t.acceptSem = semaphore.NewWeighted(n) }
}

// NewTransport builds a Transport. With no options it uses a msgpack
// Serializer over a fresh codec.TypeRegistry and a pooled BufferAllocator;
// most callers building a real protocol will want WithSerializer with a
// registry they control.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{
		dialTimeout: defaultDialTimeout,
		acceptSem:   semaphore.NewWeighted(defaultAcceptFanoutMax),
		clients:     make(map[string]*Client),
		servers:     make(map[string]*Server),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.ser == nil {
		t.ser = codec.NewMsgpackSerializer(codec.NewTypeRegistry())
	}
	if t.alloc == nil {
		t.alloc = codec.NewBufferPool(4096)
	}
	return t
}

// Client returns the Client registered under id, sharing this Transport's
// Serializer, allocator and dial timeout, creating it on first use. Repeated
// calls with the same id return the same *Client, the way a single
// NettyTransport in the original memoizes its clients/servers per id.
func (t *Transport) Client(id string) *Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[id]; ok {
		return c
	}
	c := &Client{t: t}
	t.clients[id] = c
	return c
}

// Server returns the Server registered under id, sharing this Transport's
// Serializer, allocator and accept-fanout budget, creating it on first use.
// Repeated calls with the same id return the same *Server.
func (t *Transport) Server(id string) *Server {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.servers[id]; ok {
		return s
	}
	s := &Server{t: t, conns: make(map[*catalyst.Connection]struct{})}
	t.servers[id] = s
	return s
}

// Close closes every Server this Transport has produced.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	servers := t.servers
	t.servers = nil
	t.mu.Unlock()

	var firstErr error
	for _, s := range servers {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// acquireAccept blocks until the shared accept-fanout budget has room, or
// ctx is done.
func (t *Transport) acquireAccept(ctx context.Context) error {
	return t.acceptSem.Acquire(ctx, 1)
}

func (t *Transport) releaseAccept() {
	t.acceptSem.Release(1)
}
