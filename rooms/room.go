// Room Model
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

// Package rooms holds the Room record and the process-wide room
// table. Every mutation of a room - slot assignment, state change,
// replay votes, preserved identity, the embedded game - happens under
// the registry's single lock, per the server's coarse-locking
// discipline.
package rooms

import (
	"time"

	"github.com/tomasklepac/Tic-tac-toe"
	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/game"
)

// occupant is one of a room's two slots.
type occupant struct {
	Client *clients.Client

	// Preserved identity, valid only while Disconnected is true.
	Name           string
	Session        string
	Disconnected   bool
	DisconnectedAt time.Time
}

// live reports whether the slot currently holds a connected client.
func (o *occupant) live() bool { return o.Client != nil }

// Room is a named table for exactly two players.
type Room struct {
	Id    uint64
	Name  string
	State tactoe.RoomState

	Board *game.Board

	slots [2]occupant

	ReplayVote     [2]bool
	StartingPlayer tactoe.Slot
}

func (r *Room) occupant(s tactoe.Slot) *occupant { return &r.slots[s] }

// SlotOf returns the slot C occupies in R, if any.
func (r *Room) SlotOf(c *clients.Client) (tactoe.Slot, bool) {
	if r.slots[tactoe.P1].Client == c {
		return tactoe.P1, true
	}
	if r.slots[tactoe.P2].Client == c {
		return tactoe.P2, true
	}
	return 0, false
}

// Occupied counts the slots holding a live client.
func (r *Room) Occupied() int {
	n := 0
	if r.slots[tactoe.P1].live() {
		n++
	}
	if r.slots[tactoe.P2].live() {
		n++
	}
	return n
}

func (r *Room) String() string {
	return "Room(" + r.Name + ")"
}
