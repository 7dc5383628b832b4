// TCP interface
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

package proto

import (
	"fmt"
	"net"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

// Listener is the single TCP endpoint, registered with conf as a
// Manager so it is started and shut down alongside every other
// long-running task.
type Listener struct {
	conf *conf.Conf
	creg *clients.Registry
	rreg *rooms.Registry

	ln net.Listener
}

func (*Listener) String() string { return "TCP Listener" }

// NewListener builds a Listener bound to c.BindAddress:c.Port. Port 0
// asks the OS to choose a free port.
func NewListener(c *conf.Conf, creg *clients.Registry, rreg *rooms.Registry) *Listener {
	return &Listener{conf: c, creg: creg, rreg: rreg}
}

// Start implements conf.Manager. It opens the listening socket with
// the operating system's default backlog and accepts connections until
// Shutdown closes the socket out from under it.
func (t *Listener) Start() {
	addr := fmt.Sprintf("%s:%d", t.conf.BindAddress, t.conf.Port)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(t.conf.Ctx, "tcp", addr)
	if err != nil {
		t.conf.Log.Fatal(err)
	}
	t.ln = ln

	t.conf.Log.Printf("Accepting connections on %s", addr)
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			// Shutdown closed the listener out from under us.
			return
		}
		MakeClient(conn, t.conf, t.creg, t.rreg)
	}
}

// Shutdown implements conf.Manager.
func (t *Listener) Shutdown() {
	if t.ln != nil {
		if err := t.ln.Close(); err != nil {
			t.conf.Log.Print(err)
		}
	}
}
