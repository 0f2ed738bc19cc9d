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

package tcp

import (
	"context"
	"net"
	"sync"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/internal/xlog"
)

// AcceptFunc is invoked, on ctx, for every Connection a Server accepts.
type AcceptFunc func(ctx catalyst.Context, conn *catalyst.Connection)

// Server listens for incoming connections, handshakes each, and hands the
// resulting Connection to an AcceptFunc -- the same shape as neonet's
// LinkListener.Accept loop, but push- rather than pull-style, since every
// accepted Connection needs a Context to run on and this package has no
// single "the" context to hand every accepted peer by default.
type Server struct {
	t *Transport

	mu       sync.Mutex
	listener net.Listener
	closed   bool

	connsMu sync.Mutex
	conns   map[*catalyst.Connection]struct{}
}

// Listen binds addr and starts accepting. Each accepted Connection runs on
// ctx and is handed to onAccept once its CONNECT handshake completes.
// Once a bind has succeeded, calling Listen again completes successfully
// without rebinding. A failed bind is not remembered: calling Listen again
// after one tries to bind again.
func (s *Server) Listen(ctx catalyst.Context, addr catalyst.Address, onAccept AcceptFunc) *catalyst.Future[struct{}] {
	future := catalyst.NewFuture[struct{}](ctx)

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		future.Complete(struct{}{})
		return future
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr.String())
	if err != nil {
		s.mu.Unlock()
		future.Fail(&catalyst.BindError{Address: addr, Err: err})
		return future
	}
	s.listener = ln
	s.mu.Unlock()

	go s.acceptLoop(ctx, onAccept)

	future.Complete(struct{}{})
	return future
}

func (s *Server) acceptLoop(ctx catalyst.Context, onAccept AcceptFunc) {
	for {
		rawConn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		go s.handshakeAndAccept(ctx, rawConn, onAccept)
	}
}

func (s *Server) handshakeAndAccept(ctx catalyst.Context, rawConn net.Conn, onAccept AcceptFunc) {
	acceptCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.t.acquireAccept(acceptCtx); err != nil {
		rawConn.Close()
		return
	}
	defer s.t.releaseAccept()

	if tc, ok := rawConn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
	}

	fr, err := recvConnect(rawConn)
	if err != nil {
		xlog.Warningf("tcp.Server", "handshake: %s", err)
		rawConn.Close()
		return
	}

	nc := &netChannel{conn: rawConn}
	conn := catalyst.NewConnection(rawConn.RemoteAddr().String(), ctx, nc, s.t.ser, s.t.alloc)

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	conn.CloseListener(func(c *catalyst.Connection) {
		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
	})

	go runRecvLoop(conn, fr, nc)

	onAccept(ctx, conn)
}

// Close stops accepting and closes every Connection this Server has
// accepted, mirroring how the original's NettyServer.close() walks its
// Map<Channel, Connection> of live connections.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.listener
	s.mu.Unlock()

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
