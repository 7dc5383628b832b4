// Common Interfaces and constants
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

package tactoe

import "fmt"

// ClientState is the state a connected client occupies.
type ClientState uint8

const (
	LOBBY ClientState = iota
	WAITING
	PLAYING
)

func (s ClientState) String() string {
	switch s {
	case LOBBY:
		return "LOBBY"
	case WAITING:
		return "WAITING"
	case PLAYING:
		return "PLAYING"
	default:
		panic(fmt.Sprintf("Illegal client state: %d", s))
	}
}

// RoomState is the occupancy state of a room.
type RoomState uint8

const (
	EMPTY RoomState = iota
	ROOM_WAITING
	ROOM_PLAYING
)

func (s RoomState) String() string {
	switch s {
	case EMPTY:
		return "EMPTY"
	case ROOM_WAITING:
		return "WAITING"
	case ROOM_PLAYING:
		return "PLAYING"
	default:
		panic(fmt.Sprintf("Illegal room state: %d", s))
	}
}

// Slot identifies one of the two player positions inside a room.
type Slot uint8

const (
	P1 Slot = iota
	P2
)

func (s Slot) Other() Slot {
	if s == P1 {
		return P2
	}
	return P1
}

func (s Slot) String() string {
	if s == P1 {
		return "p1"
	}
	return "p2"
}

// MaxNameLen is the maximum length, in bytes, a nickname or room name
// is truncated to.
const MaxNameLen = 31
