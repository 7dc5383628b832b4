// Client Registry
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

package clients

import (
	"errors"
	"io"
	"sync"

	"github.com/tomasklepac/Tic-tac-toe"
)

// ErrServerFull is returned by Create once max clients are live.
var ErrServerFull = errors.New("Server full")

// Registry is the process-wide table of connected clients, guarded by
// a dedicated mutex, as required by the concurrency model.
type Registry struct {
	mu    sync.Mutex
	slots []*Client // fixed-size, indexed by slot
	max   uint
}

// NewRegistry allocates a table that can hold up to MAX live clients.
func NewRegistry(max uint) *Registry {
	return &Registry{slots: make([]*Client, max), max: max}
}

// Create allocates a Client for CONN and registers it in the first
// free table slot, failing with ErrServerFull once the live client
// count equals max_clients.
func (r *Registry) Create(conn io.ReadWriteCloser) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.slots {
		if s != nil {
			continue
		}
		c := &Client{
			reg:       r,
			Conn:      conn,
			State:     tactoe.LOBBY,
			Session:   randomToken(),
			RoomID:    NoRoom,
			Connected: true,
			Alive:     true,
		}
		r.slots[i] = c
		return c, nil
	}
	return nil, ErrServerFull
}

// Destroy removes C from the table. It is a no-op if C is not (or no
// longer) registered.
func (r *Registry) Destroy(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.slots {
		if s == c {
			r.slots[i] = nil
			return
		}
	}
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Each calls FN for every live client, under the registry lock. FN
// must not block on socket I/O and must not call back into the
// registry.
func (r *Registry) Each(fn func(*Client)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s != nil {
			fn(s)
		}
	}
}

// WithLock runs FN holding the client-registry lock, for callers (the
// connection worker, and Client.Send, which the room registry calls
// while already holding its own room lock) that need to touch a
// client's liveness fields consistently with the heartbeat sweep.
func (r *Registry) WithLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}
