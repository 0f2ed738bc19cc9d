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
	"context"
	"net"
	"sync"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/internal/xlog"
)

// AcceptFunc is invoked, on ctx, for every Connection a Server accepts.
type AcceptFunc func(ctx catalyst.Context, conn *catalyst.Connection)

// Server accepts Dial calls made against addr.Host under this Transport's
// Registry.
type Server struct {
	t *Transport

	mu           sync.Mutex
	listener     *Listener
	closed       bool
	acceptCancel context.CancelFunc

	connsMu sync.Mutex
	conns   map[*catalyst.Connection]struct{}
}

// Listen registers addr.Host and starts accepting. Each accepted
// Connection runs on ctx and is handed to onAccept once its CONNECT
// handshake completes. Once a registration has succeeded, calling Listen
// again completes successfully without registering again; a failed
// registration is not remembered and the next call tries again.
func (s *Server) Listen(ctx catalyst.Context, addr catalyst.Address, onAccept AcceptFunc) *catalyst.Future[struct{}] {
	future := catalyst.NewFuture[struct{}](ctx)

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		future.Complete(struct{}{})
		return future
	}

	ln, err := s.t.registry.Listen(addr.Host)
	if err != nil {
		s.mu.Unlock()
		future.Fail(&catalyst.BindError{Address: addr, Err: err})
		return future
	}
	s.listener = ln
	acceptCtx, cancel := context.WithCancel(context.Background())
	s.acceptCancel = cancel
	s.mu.Unlock()

	go s.acceptLoop(acceptCtx, ctx, onAccept)

	future.Complete(struct{}{})
	return future
}

func (s *Server) acceptLoop(acceptCtx context.Context, ctx catalyst.Context, onAccept AcceptFunc) {
	for {
		rawConn, err := s.listener.Accept(acceptCtx)
		if err != nil {
			return
		}
		go s.handshakeAndAccept(ctx, rawConn, onAccept)
	}
}

func (s *Server) handshakeAndAccept(ctx catalyst.Context, rawConn net.Conn, onAccept AcceptFunc) {
	fr, err := recvConnect(rawConn)
	if err != nil {
		xlog.Warningf("local.Server", "handshake: %s", err)
		rawConn.Close()
		return
	}

	ch := &pipeChannel{conn: rawConn}
	conn := catalyst.NewConnection(rawConn.RemoteAddr().String(), ctx, ch, s.t.ser, s.t.alloc)

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	conn.CloseListener(func(c *catalyst.Connection) {
		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
	})

	go runRecvLoop(conn, fr, ch)

	onAccept(ctx, conn)
}

// Close stops accepting and closes every Connection this Server has
// accepted.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	cancel := s.acceptCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if ln != nil {
		err = ln.Close()
	}

	s.connsMu.Lock()
	conns := make([]*catalyst.Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	return err
}
