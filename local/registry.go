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

// Package local implements the in-process Transport: Connections paired
// directly over a net.Pipe() rather than a real socket, the way the Java
// original's LocalTransport/LocalConnection let two peers in the same
// process exchange messages without going through the loopback network
// stack. It is grounded on xcommon/xnet/pipenet's rendezvous design (a
// named listener's dial queue, matched against Dial calls by address) with
// the sqlite-backed network partition simulation stripped out, since this
// package only needs the same-process rendezvous, not pipenet's
// fault-injection machinery.
package local

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/HackShare/catalyst"
)

// ErrAddressInUse is returned by Listen when addr is already registered.
var ErrAddressInUse = errors.New("local: address already registered")

// Registry is the namespace Dial and Listen rendezvous through. Tests
// typically share one Registry between the peers under test; production
// code using only the local transport (e.g. in unit tests for handler
// logic) would do the same.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	dialq     chan chan net.Conn
	down      chan struct{}
	closeOnce sync.Once
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Listen registers addr as accepting connections. It fails with
// ErrAddressInUse if addr is already registered.
func (r *Registry) Listen(addr string) (*Listener, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[addr]; ok {
		return nil, ErrAddressInUse
	}

	e := &entry{
		dialq: make(chan chan net.Conn),
		down:  make(chan struct{}),
	}
	r.entries[addr] = e
	return &Listener{registry: r, addr: addr, entry: e}, nil
}

// Dial connects to addr's listener, if one is registered, and blocks until
// that listener calls Accept (or ctx is done).
func (r *Registry) Dial(ctx context.Context, addr string) (net.Conn, error) {
	r.mu.Lock()
	e, ok := r.entries[addr]
	r.mu.Unlock()
	if !ok {
		return nil, &catalyst.TransportError{Op: "dial", Err: fmt.Errorf("local: no listener registered at %q", addr)}
	}

	resp := make(chan net.Conn)
	select {
	case <-ctx.Done():
		return nil, &catalyst.TransportError{Op: "dial", Err: ctx.Err()}
	case <-e.down:
		return nil, &catalyst.TransportError{Op: "dial", Err: fmt.Errorf("local: listener at %q is closed", addr)}
	case e.dialq <- resp:
		return <-resp, nil
	}
}

// Listener accepts connections Dial sent to the address it was registered
// under.
type Listener struct {
	registry *Registry
	addr     string
	entry    *entry
}

// Accept blocks until a Dial call arrives, or ctx is done, and returns this
// side's net.Conn half of a fresh net.Pipe() pair.
func (l *Listener) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, &catalyst.TransportError{Op: "accept", Err: ctx.Err()}
	case <-l.entry.down:
		return nil, &catalyst.TransportError{Op: "accept", Err: fmt.Errorf("local: listener at %q is closed", l.addr)}
	case resp := <-l.entry.dialq:
		clientSide, serverSide := net.Pipe()
		resp <- clientSide
		return serverSide, nil
	}
}

// Close stops accepting new Dials and unregisters this Listener's address.
func (l *Listener) Close() error {
	l.entry.closeOnce.Do(func() {
		close(l.entry.down)
		l.registry.mu.Lock()
		delete(l.registry.entries, l.addr)
		l.registry.mu.Unlock()
	})
	return nil
}
