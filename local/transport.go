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

package local

import (
	"errors"
	"sync"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/codec"
)

var errBadHandshake = errors.New("local: malformed CONNECT handshake")

// Transport is the local, in-process counterpart to tcp.Transport: a
// factory for Clients and Servers sharing one Registry, Serializer and
// BufferAllocator.
type Transport struct {
	registry *Registry
	ser      catalyst.Serializer
	alloc    catalyst.BufferAllocator

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

// NewTransport builds a Transport rendezvousing Dial/Listen through
// registry. Passing the same Registry to two Transports lets Connections
// built from each reach one another.
func NewTransport(registry *Registry, opts ...Option) *Transport {
	t := &Transport{
		registry: registry,
		clients:  make(map[string]*Client),
		servers:  make(map[string]*Server),
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
// Registry, Serializer and allocator, creating it on first use. Repeated
// calls with the same id return the same *Client, mirroring
// tcp.Transport.Client's memoization.
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
// Registry, Serializer and allocator, creating it on first use. Repeated
// calls with the same id return the same *Server.
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

// Close closes every Server this Transport has produced, the same contract
// tcp.Transport.Close() carries for the network backend.
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
