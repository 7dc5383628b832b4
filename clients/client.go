// Client Record
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

// Package clients holds the per-connection Client record and the
// process-wide client table. It knows nothing about rooms beyond a
// non-owning room-id back-reference: the room registry re-validates
// that reference under its own lock before trusting it.
package clients

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/tomasklepac/Tic-tac-toe"
)

// NoRoom is the RoomID value meaning "not in a room". Room ids start
// at 0, so 0 cannot be reused as the sentinel.
const NoRoom = ^uint64(0)

// Client is a single connected peer.
type Client struct {
	// reg is the registry this client was created by. Send and
	// SetNickname take reg's lock to touch the fields below, the same
	// lock the heartbeat sweep and proto's strike/cleanup already use
	// for MissedPongs/InvalidCount/Connected - one client lock, not
	// two, per the concurrency model.
	reg *Registry

	Conn io.ReadWriteCloser

	Nickname string
	State    tactoe.ClientState
	Session  string

	// RoomID is a non-owning back-reference: NoRoom means "no room".
	// Room ids are themselves zero-based, so zero cannot double as the
	// sentinel. The room registry is the source of truth and
	// re-validates this under its own lock before trusting it.
	RoomID uint64

	// Liveness
	Connected    bool
	Alive        bool
	MissedPongs  uint
	InvalidCount uint
}

// randomToken returns a 16-hex-character session token. Session
// tokens are credentials a peer can present to reclaim a vacated
// slot, so they are drawn from crypto/rand.
func randomToken() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("failed to generate session token: %v", err))
	}
	return hex.EncodeToString(buf[:])
}

// truncate returns s cut to at most MaxNameLen bytes.
func truncate(s string) string {
	if len(s) <= tactoe.MaxNameLen {
		return s
	}
	return s[:tactoe.MaxNameLen]
}

// SetNickname truncates and stores NAME, per the spec's JOIN handler.
func (c *Client) SetNickname(name string) {
	c.reg.WithLock(func() { c.Nickname = truncate(name) })
}

func (c *Client) String() string {
	return fmt.Sprintf("Client(%s)", c.Nickname)
}

// Send formats TAG|args... and writes it as a single line. A write
// failure only marks the connection dead (Connected = false); it is
// never raised to the caller. The client is removed from the server's
// state when its worker's read loop ends; the heartbeat sweep skips
// clients that are no longer connected. Callers must not already hold the
// client registry's lock (Registry.Each's callback in particular must
// defer any Send until after Each returns).
func (c *Client) Send(tag string, args ...string) {
	if c == nil {
		return
	}

	c.reg.WithLock(func() {
		if !c.Connected {
			return
		}
		if _, err := io.WriteString(c.Conn, tactoe.Encode(tag, args...)); err != nil {
			c.Connected = false
		}
	})
}
