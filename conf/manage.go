// Configuration Management
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

package conf

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"
)

// Manager is a long-running subsystem started and stopped as a unit:
// the heartbeat task, the TCP listener, the optional WebSocket bridge
// and the optional history ledger are all managers. The client and
// room registries are not; they are plain tables shared by those.
type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

// HistoryManager additionally persists finished rounds.
type HistoryManager interface {
	Manager

	SaveResult(ctx context.Context, roomID uint64, roomName, p1, p2, outcome string, at time.Time)
}

func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("Late register: %#v", m))
	}

	if h, ok := m.(HistoryManager); ok {
		c.History = h
	}

	c.man = append(c.man, m)
}

func (c *Conf) Start() {
	// Start the service
	for _, m := range c.man {
		c.Debug.Printf("Starting %s", m)
		go m.Start()
	}
	c.run = true

	// Catch an interrupt request...
	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	select {
	case <-intr:
		c.Debug.Println("Caught interrupt")
	case <-c.Ctx.Done():
		c.Debug.Println("Requested shutdown")
	}

	// ...and request all managers to shut down.
	c.Debug.Println("Waiting for managers to shutdown...")
	for _, m := range c.man {
		c.Debug.Printf("Shutting %s down", m)
		m.Shutdown()
	}
	c.Debug.Println("Shutting down")
}
