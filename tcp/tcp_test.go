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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackShare/catalyst"
	"github.com/HackShare/catalyst/codec"
)

type pingRequest struct{ Text string }
type pongResponse struct{ Text string }

func newSharedSerializer() catalyst.Serializer {
	reg := codec.NewTypeRegistry()
	reg.Register(pingRequest{})
	reg.Register(pongResponse{})
	return codec.NewMsgpackSerializer(reg)
}

func TestTCPRoundTrip(t *testing.T) {
	ser := newSharedSerializer()
	pingKey, err := ser.KeyOf(pingRequest{})
	require.NoError(t, err)

	serverCtx := catalyst.NewContext("server")
	clientCtx := catalyst.NewContext("client")
	defer serverCtx.Close()
	defer clientCtx.Close()

	transport := NewTransport(WithSerializer(ser))
	defer transport.Close()

	server := transport.Server("main")
	addr := catalyst.NewAddress("127.0.0.1", 0)

	accepted := make(chan *catalyst.Connection, 1)
	_, err = server.Listen(serverCtx, addr, func(ctx catalyst.Context, conn *catalyst.Connection) {
		conn.Handler(ctx, pingKey, func(req interface{}) *catalyst.Future[interface{}] {
			f := catalyst.NewFuture[interface{}](ctx)
			r := req.(pingRequest)
			f.Complete(pongResponse{Text: "pong: " + r.Text})
			return f
		})
		accepted <- conn
	}).Wait()
	require.NoError(t, err)

	realAddr := catalyst.NewAddress("127.0.0.1", server.listener.Addr().(*net.TCPAddr).Port)

	client := transport.Client("main")
	connFuture := client.Connect(clientCtx, realAddr)
	conn, err := connFuture.Wait()
	require.NoError(t, err)

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}

	future := conn.Send(clientCtx, pingRequest{Text: "hi"})
	val, err := future.Wait()
	require.NoError(t, err)
	assert.Equal(t, pongResponse{Text: "pong: hi"}, val)
}

func TestTransportClientServerMemoizePerID(t *testing.T) {
	transport := NewTransport()
	defer transport.Close()

	assert.Same(t, transport.Client("a"), transport.Client("a"))
	assert.NotSame(t, transport.Client("a"), transport.Client("b"))

	assert.Same(t, transport.Server("a"), transport.Server("a"))
	assert.NotSame(t, transport.Server("a"), transport.Server("b"))
}

func TestTransportCloseClosesAcceptedConnections(t *testing.T) {
	ser := newSharedSerializer()

	serverCtx := catalyst.NewContext("server")
	clientCtx := catalyst.NewContext("client")
	defer serverCtx.Close()
	defer clientCtx.Close()

	transport := NewTransport(WithSerializer(ser))

	server := transport.Server("main")
	addr := catalyst.NewAddress("127.0.0.1", 0)

	accepted := make(chan *catalyst.Connection, 1)
	_, err := server.Listen(serverCtx, addr, func(ctx catalyst.Context, conn *catalyst.Connection) {
		accepted <- conn
	}).Wait()
	require.NoError(t, err)

	realAddr := catalyst.NewAddress("127.0.0.1", server.listener.Addr().(*net.TCPAddr).Port)
	client := transport.Client("main")
	conn, err := client.Connect(clientCtx, realAddr).Wait()
	require.NoError(t, err)

	select {
	case <-accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}

	closed := make(chan struct{})
	conn.CloseListener(func(*catalyst.Connection) { close(closed) })

	require.NoError(t, transport.Close())

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("transport.Close() never closed the accepted connection")
	}
}
