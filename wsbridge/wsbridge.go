// WebSocket Bridge
//
// Copyright (c) 2021, 2022  Philip Kaludercic
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

// Package wsbridge is an optional transport: it upgrades an HTTP
// connection to a WebSocket and wraps it as an io.ReadWriteCloser so
// it can be driven by the very same connection worker used for plain
// TCP. It is additive only - it does not change the wire protocol or
// any room/client semantics, and is disabled unless ENABLE_WEBSOCKET
// is set.
package wsbridge

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/proto"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn adapts a *websocket.Conn's message framing to the byte-stream
// io.ReadWriteCloser the connection worker expects, so the scanner on
// the other side sees the same "##TAG|...\n" lines regardless of
// transport.
type wsConn struct {
	*websocket.Conn
	pending *bytes.Reader
}

// Read assumes each WebSocket text frame carries one complete,
// already \n-terminated protocol line, same as a TCP client would
// write; the worker's bufio.Scanner still does the actual framing.
func (w *wsConn) Read(p []byte) (int, error) {
	for w.pending == nil || w.pending.Len() == 0 {
		_, data, err := w.Conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		w.pending = bytes.NewReader(data)
	}
	return w.pending.Read(p)
}

func (w *wsConn) Write(p []byte) (int, error) {
	if err := w.Conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsConn) Close() error { return w.Conn.Close() }

// Bridge is an HTTP server offering a single WebSocket upgrade
// endpoint, registered with conf as a Manager alongside the plain TCP
// listener.
type Bridge struct {
	conf *conf.Conf
	creg *clients.Registry
	rreg *rooms.Registry

	srv *http.Server
}

func (*Bridge) String() string { return "WebSocket Bridge" }

// New builds a Bridge that will listen on conf.WSPort once started.
func New(c *conf.Conf, creg *clients.Registry, rreg *rooms.Registry) *Bridge {
	return &Bridge{conf: c, creg: creg, rreg: rreg}
}

func (b *Bridge) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.conf.Debug.Println("websocket upgrade:", err)
		return
	}
	proto.MakeClient(&wsConn{Conn: conn}, b.conf, b.creg, b.rreg)
}

// Start implements conf.Manager.
func (b *Bridge) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handle)

	addr := fmt.Sprintf("%s:%d", b.conf.BindAddress, b.conf.WSPort)
	b.srv = &http.Server{Addr: addr, Handler: mux}

	b.conf.Log.Printf("Accepting WebSocket connections on %s", addr)
	if err := b.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		b.conf.Log.Print(err)
	}
}

// Shutdown implements conf.Manager.
func (b *Bridge) Shutdown() {
	if b.srv != nil {
		b.srv.Close()
	}
}
