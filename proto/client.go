// Client Communication Management
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

// Package proto is the connection worker: it owns the per-client read
// loop, dispatches inbound lines to the client and room registries,
// and enforces the invalid-strike quota.
package proto

import (
	"bufio"
	"io"

	"github.com/tomasklepac/Tic-tac-toe"
	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

// maxInvalid is the invalid-strike count at which a connection is
// forcibly terminated.
const maxInvalid = 3

// Client wraps a registered client record with the registries its
// handlers need and the connection's mutable protocol state.
type Client struct {
	*clients.Client

	conf *conf.Conf
	creg *clients.Registry
	rreg *rooms.Registry
}

// MakeClient registers CONN as a new client and starts its worker in a
// new goroutine. It is a no-op from the caller's perspective: the
// worker owns CONN from this point on.
func MakeClient(conn io.ReadWriteCloser, c *conf.Conf, creg *clients.Registry, rreg *rooms.Registry) {
	base, err := creg.Create(conn)
	if err != nil {
		io.WriteString(conn, tactoe.Encode("ERROR", err.Error()))
		conn.Close()
		return
	}

	cli := &Client{Client: base, conf: c, creg: creg, rreg: rreg}
	go cli.handle()
}

// strike records one invalid-input strike against CLI, sends MSG as
// an ERROR line, and reports whether the connection has now reached
// the quota and must be torn down.
func (cli *Client) strike(msg string) (kill bool) {
	cli.Send("ERROR", msg)

	var n uint
	cli.creg.WithLock(func() {
		cli.InvalidCount++
		n = cli.InvalidCount
	})
	if n >= maxInvalid {
		cli.Send("ERROR", "Too many invalid messages")
		return true
	}
	return false
}

// handle drives the read loop: it sends the greeting, dispatches every
// inbound line until QUIT, a read error, or the strike quota is
// reached, and always cleans up the client and room state on the way
// out.
func (cli *Client) handle() {
	defer cli.cleanup()

	cli.Send("HELLO", "")
	cli.conf.Debug.Println(cli, "connected")

	scanner := bufio.NewScanner(cli.Conn)
	for scanner.Scan() {
		line := scanner.Text()
		cli.conf.Debug.Println(cli, "<", line)

		if len(line) > tactoe.MaxLineLen {
			if cli.strike("Line too long") {
				return
			}
			continue
		}

		if cli.interpret(line) {
			return
		}
	}
}

// cleanup tears down CLI's state once its worker loop ends, for
// whatever reason: voluntary QUIT, a read error, or the strike quota.
func (cli *Client) cleanup() {
	cli.creg.WithLock(func() { cli.Connected = false })
	cli.rreg.Disconnect(cli.Client, cli.conf.DisconnectGrace)
	cli.creg.Destroy(cli.Client)
	cli.Conn.Close()
	cli.conf.Debug.Println(cli, "disconnected")
}
