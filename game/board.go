// Game Model
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

// Package game implements the 3x3 Tic-Tac-Toe board: move legality,
// win/draw detection and turn alternation. It knows nothing about
// connections, rooms or nicknames - it is handed a Slot on every move
// and never looks anything up itself.
package game

import (
	"errors"
	"fmt"

	"github.com/tomasklepac/Tic-tac-toe"
)

// Outcome is the result of the game currently held by a Board.
type Outcome uint8

const (
	RUNNING Outcome = iota
	WON
	DRAW
)

func (o Outcome) String() string {
	switch o {
	case RUNNING:
		return "Running"
	case WON:
		return "Won"
	case DRAW:
		return "Draw"
	default:
		panic(fmt.Sprintf("Illegal outcome: %d", o))
	}
}

// Cell values. The blank cell is a literal space, matching the wire
// representation used when a board is replayed to a reconnecting
// client.
const (
	blank = ' '
	xMark = 'X'
	oMark = 'O'
)

var (
	ErrFinished   = errors.New("GAME_FINISHED")
	ErrNotTurn    = errors.New("NOT_YOUR_TURN")
	ErrOutOfRange = errors.New("OUT_OF_RANGE")
	ErrOccupied   = errors.New("OCCUPIED")
)

// Board is a 3x3 Tic-Tac-Toe board together with the turn machine
// riding on top of it.
type Board struct {
	cells   [3][3]byte
	Current *tactoe.Slot // nil once the game has no one on move
	Outcome Outcome
	Winner  *tactoe.Slot // set only once Outcome == WON

	// XSlot is the slot playing 'X' for this round: the starting
	// player always plays X, so this tracks Current's slot as of the
	// last Reset rather than being pinned to p1.
	XSlot tactoe.Slot
}

// NewBoard returns a freshly reset board, FIRST on move.
func NewBoard(first tactoe.Slot) *Board {
	b := &Board{}
	b.Reset(first)
	return b
}

// Reset clears the board and restarts the turn machine with FIRST on
// move. FIRST also takes the 'X' mark for the round, per the starting-
// player rule. Required before Move can be called again once a game
// has finished.
func (b *Board) Reset(first tactoe.Slot) {
	for i := range b.cells {
		for j := range b.cells[i] {
			b.cells[i][j] = blank
		}
	}
	cur := first
	b.Current = &cur
	b.Outcome = RUNNING
	b.Winner = nil
	b.XSlot = first
}

func (b *Board) mark(s tactoe.Slot) byte {
	if s == b.XSlot {
		return xMark
	}
	return oMark
}

// SymbolOf returns the wire symbol ('X' or 'O') slot S plays with on
// this board, which follows XSlot rather than a fixed p1/p2 mapping.
func (b *Board) SymbolOf(s tactoe.Slot) string {
	if s == b.XSlot {
		return "X"
	}
	return "O"
}

// Move attempts to place WHO's mark at (x, y). On success it updates
// the outcome and, if the game continues, toggles Current.
func (b *Board) Move(who tactoe.Slot, x, y int) error {
	if b.Outcome != RUNNING {
		return ErrFinished
	}
	if b.Current == nil || who != *b.Current {
		return ErrNotTurn
	}
	if x < 0 || x > 2 || y < 0 || y > 2 {
		return ErrOutOfRange
	}
	if b.cells[y][x] != blank {
		return ErrOccupied
	}

	b.cells[y][x] = b.mark(who)
	b.check()
	if b.Outcome == RUNNING {
		next := who.Other()
		b.Current = &next
	}
	return nil
}

// lines enumerates the eight winning triples as board coordinates.
var lines = [8][3][2]int{
	{{0, 0}, {1, 0}, {2, 0}}, // rows
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {0, 1}, {0, 2}}, // columns
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}}, // diagonals
	{{2, 0}, {1, 1}, {0, 2}},
}

// check evaluates the board and updates Outcome (and Winner, on a
// win) in place. It is called automatically after every accepted
// move; it never needs to be called directly.
func (b *Board) check() {
	for _, line := range lines {
		a := b.cells[line[0][1]][line[0][0]]
		c := b.cells[line[1][1]][line[1][0]]
		d := b.cells[line[2][1]][line[2][0]]
		if a != blank && a == c && c == d {
			b.Outcome = WON
			w := b.XSlot
			if a != xMark {
				w = w.Other()
			}
			b.Winner = &w
			return
		}
	}

	for _, row := range b.cells {
		for _, c := range row {
			if c == blank {
				return
			}
		}
	}
	b.Outcome = DRAW
}

// At returns the mark at (x, y), or the blank rune.
func (b *Board) At(x, y int) rune {
	return rune(b.cells[y][x])
}

// String renders the board row by row, for debug logging.
func (b *Board) String() string {
	buf := make([]byte, 0, 12)
	for _, row := range b.cells {
		buf = append(buf, row[:]...)
		buf = append(buf, '\n')
	}
	return string(buf)
}
