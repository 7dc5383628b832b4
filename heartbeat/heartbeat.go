// Heartbeat & Pruner
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

// Package heartbeat runs the single background task that drives client
// liveness and room grace-period cleanup against the client and room
// registries.
package heartbeat

import (
	"time"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

// maxMissedPongs is the number of consecutive unanswered PINGs after
// which a client is treated as unreachable.
const maxMissedPongs = 3

// Task is the periodic PING sweep and grace-period pruner, registered
// with conf as a Manager.
type Task struct {
	conf *conf.Conf
	creg *clients.Registry
	rreg *rooms.Registry

	stop chan struct{}
}

func (*Task) String() string { return "Heartbeat" }

// New builds a heartbeat task against the given registries.
func New(c *conf.Conf, creg *clients.Registry, rreg *rooms.Registry) *Task {
	return &Task{conf: c, creg: creg, rreg: rreg, stop: make(chan struct{})}
}

// Start implements conf.Manager: it wakes every HeartbeatInterval,
// sweeps the client table for unreachable peers, then prunes rooms
// whose vacated slot has outlived DisconnectGrace.
func (t *Task) Start() {
	ticker := time.NewTicker(t.conf.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.sweep()
			t.rreg.Prune(t.conf.DisconnectGrace)
		}
	}
}

// Shutdown implements conf.Manager.
func (t *Task) Shutdown() {
	close(t.stop)
}

// sweep bumps the missed-pong counter of every live, connected client
// under the client lock, then, once that lock is released, pings
// whoever is still within budget and routes anyone who has now missed
// maxMissedPongs pongs through the disconnect handler. Send takes the
// same client lock internally, so it must never be called from inside
// Each's callback; collecting both slices first and acting on them
// afterward means sweep never holds the client lock while it waits
// for the room lock taken by Disconnect.
func (t *Task) sweep() {
	var toPing, unreachable []*clients.Client

	t.creg.Each(func(c *clients.Client) {
		if !c.Connected {
			return
		}
		c.MissedPongs++
		if c.MissedPongs > maxMissedPongs {
			c.Alive = false
			unreachable = append(unreachable, c)
		} else {
			toPing = append(toPing, c)
		}
	})

	for _, c := range toPing {
		c.Send("PING", "")
	}

	for _, c := range unreachable {
		t.conf.Debug.Println(c, "missed too many pongs")
		t.rreg.Disconnect(c, t.conf.DisconnectGrace)
		c.Conn.Close()
	}
}
