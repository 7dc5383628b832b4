// Room Registry
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

package rooms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tomasklepac/Tic-tac-toe"
	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/game"
)

var (
	ErrLobbyFull     = errors.New("Lobby full")
	ErrNoSuchRoom    = errors.New("No such room")
	ErrSelfJoin      = errors.New("Cannot join your own room")
	ErrRoomFull      = errors.New("Room full")
	ErrNotInRoom     = errors.New("Not in room")
	ErrNotInGameRoom = errors.New("Not in game room")
)

// History is the subset of conf.HistoryManager the room registry
// needs; kept narrow so this package does not import conf.
type History interface {
	SaveResult(ctx context.Context, roomID uint64, roomName, p1, p2, outcome string, at time.Time)
}

// Registry is the process-wide table of rooms, guarded by a single
// dedicated mutex as required by the concurrency model. All Room
// mutation - slot assignment, state, replay votes, preserved
// identity, the embedded game - happens while this lock is held.
type Registry struct {
	mu      sync.Mutex
	rooms   map[uint64]*Room
	nextID  uint64
	max     uint
	history History
}

// NewRegistry allocates a table that can hold up to MAX concurrent
// rooms.
func NewRegistry(max uint, history History) *Registry {
	return &Registry{rooms: make(map[uint64]*Room), max: max, history: history}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// removeIfEmpty deletes ROOM from the table if both slots are vacant with no
// preserved identity, per the Room lifecycle rule.
func (r *Registry) removeIfEmpty(room *Room) {
	for i := range room.slots {
		o := &room.slots[i]
		if o.live() || o.Disconnected {
			return
		}
	}
	room.State = tactoe.EMPTY
	delete(r.rooms, room.Id)
}

// Create allocates a new room with CREATOR in slot p1.
func (r *Registry) Create(name string, creator *clients.Client) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uint(len(r.rooms)) >= r.max {
		return nil, ErrLobbyFull
	}

	room := &Room{
		Id:    r.nextID,
		Name:  truncate(name),
		State: tactoe.ROOM_WAITING,
	}
	r.nextID++
	room.slots[tactoe.P1].Client = creator
	room.slots[tactoe.P1].Name = creator.Nickname
	room.slots[tactoe.P1].Session = creator.Session

	creator.RoomID = room.Id
	creator.State = tactoe.WAITING

	r.rooms[room.Id] = room
	creator.Send("CREATED", strconv.FormatUint(room.Id, 10), room.Name)
	return room, nil
}

// Join attaches JOINER to ROOM_ID's empty slot and, once both slots
// are filled, starts the first round.
func (r *Registry) Join(roomID uint64, joiner *clients.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return ErrNoSuchRoom
	}
	if _, already := room.SlotOf(joiner); already {
		return ErrSelfJoin
	}
	if room.Occupied() == 2 {
		return ErrRoomFull
	}
	if room.slots[tactoe.P1].Disconnected || room.slots[tactoe.P2].Disconnected {
		// A slot is reserved for a disconnected player within its grace
		// period; it is not available to a new joiner until Prune frees
		// it or the original player reconnects, so the room reads as
		// full rather than silently evicting the reconnect-eligible
		// identity.
		return ErrRoomFull
	}

	// Normalise so a lone live client always occupies p1.
	if !room.slots[tactoe.P1].live() && room.slots[tactoe.P2].live() {
		room.slots[tactoe.P1], room.slots[tactoe.P2] = room.slots[tactoe.P2], room.slots[tactoe.P1]
	}

	slot := tactoe.P2
	if !room.slots[tactoe.P1].live() {
		slot = tactoe.P1
	}
	room.slots[slot] = occupant{Client: joiner, Name: joiner.Nickname, Session: joiner.Session}

	room.State = tactoe.ROOM_PLAYING
	p1, p2 := room.slots[tactoe.P1].Client, room.slots[tactoe.P2].Client
	p1.RoomID, p2.RoomID = room.Id, room.Id
	p1.State, p2.State = tactoe.PLAYING, tactoe.PLAYING

	p1.Send("CLEAR", "")
	p2.Send("CLEAR", "")
	p1.Send("START", "Opponent:"+p2.Nickname)
	p2.Send("START", "Opponent:"+p1.Nickname)

	room.Board = game.NewBoard(room.StartingPlayer)
	p1.Send("SYMBOL", room.Board.SymbolOf(tactoe.P1))
	p2.Send("SYMBOL", room.Board.SymbolOf(tactoe.P2))
	room.active(room.StartingPlayer).Send("TURN", "Your move")
	return nil
}

// active returns the client occupying SLOT, or nil.
func (r *Room) active(s tactoe.Slot) *clients.Client {
	return r.slots[s].Client
}

// Leave is the voluntary-exit path: the slot, including its preserved
// identity, is cleared entirely (no reconnect eligibility).
func (r *Registry) Leave(c *clients.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	slot, ok := room.SlotOf(c)
	if !ok {
		return
	}
	wasPlaying := room.State == tactoe.ROOM_PLAYING

	room.slots[slot] = occupant{}
	c.RoomID = clients.NoRoom
	c.State = tactoe.LOBBY
	c.Send("EXITED", "")

	other := room.active(slot.Other())
	if wasPlaying && other != nil {
		other.Send("INFO", "Opponent left")
		other.Send("WIN", "You")
	}

	room.ReplayVote = [2]bool{}
	if room.Occupied() == 0 {
		r.removeIfEmpty(room)
	} else {
		room.State = tactoe.ROOM_WAITING
	}
}

// List emits a single ROOMS line summarising every non-EMPTY room.
func (r *Registry) List(requester *clients.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint64, 0, len(r.rooms))
	for id, room := range r.rooms {
		if room.State != tactoe.EMPTY {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	args := make([]string, 0, 1+4*len(ids))
	args = append(args, strconv.Itoa(len(ids)))
	for _, id := range ids {
		room := r.rooms[id]
		args = append(args,
			strconv.FormatUint(room.Id, 10),
			room.Name,
			room.State.String(),
			fmt.Sprintf("%d/2", room.Occupied()),
		)
	}
	requester.Send("ROOMS", args...)
}

// TryRestart flips the starting player and begins the next round once
// both replay votes are in and both slots are still live.
func (r *Registry) TryRestart(room *Room) {
	if room.Occupied() != 2 || !room.ReplayVote[tactoe.P1] || !room.ReplayVote[tactoe.P2] {
		return
	}

	room.StartingPlayer = room.StartingPlayer.Other()
	room.Board.Reset(room.StartingPlayer)
	room.ReplayVote = [2]bool{}

	p1, p2 := room.active(tactoe.P1), room.active(tactoe.P2)
	p1.Send("RESTART", "")
	p2.Send("RESTART", "")
	p1.Send("SYMBOL", room.Board.SymbolOf(tactoe.P1))
	p2.Send("SYMBOL", room.Board.SymbolOf(tactoe.P2))
	room.active(room.StartingPlayer).Send("TURN", "Your move")
}

// Move applies (x, y) on behalf of C and broadcasts the result.
func (r *Registry) Move(c *clients.Client, x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return ErrNotInGameRoom
	}
	slot, ok := room.SlotOf(c)
	if !ok {
		return ErrNotInGameRoom
	}

	if err := room.Board.Move(slot, x, y); err != nil {
		return err
	}

	xs, ys := strconv.Itoa(x), strconv.Itoa(y)
	p1, p2 := room.active(tactoe.P1), room.active(tactoe.P2)
	p1.Send("MOVE", c.Nickname, xs, ys)
	p2.Send("MOVE", c.Nickname, xs, ys)

	switch room.Board.Outcome {
	case game.WON:
		winner, loser := c, room.active(slot.Other())
		winner.Send("WIN", "You")
		loser.Send("LOSE", c.Nickname)
		room.ReplayVote = [2]bool{}
		r.saveResult(room, winnerName(room))
	case game.DRAW:
		p1.Send("DRAW", "")
		p2.Send("DRAW", "")
		room.ReplayVote = [2]bool{}
		r.saveResult(room, "draw")
	}

	if room.Board.Outcome != game.RUNNING {
		if room.Occupied() == 1 {
			if remaining := room.active(slot); remaining != nil {
				remaining.Send("INFO", "Game ended")
			} else if remaining := room.active(slot.Other()); remaining != nil {
				remaining.Send("INFO", "Game ended")
			}
			room.State = tactoe.ROOM_WAITING
		}
		return nil
	}

	room.active(*room.Board.Current).Send("TURN", "Your move")
	return nil
}

func winnerName(room *Room) string {
	if room.Board.Winner == nil {
		return ""
	}
	if c := room.active(*room.Board.Winner); c != nil {
		return c.Nickname
	}
	return ""
}

func (r *Registry) saveResult(room *Room, outcome string) {
	if r.history == nil {
		return
	}
	p1n, p2n := "", ""
	if c := room.active(tactoe.P1); c != nil {
		p1n = c.Nickname
	}
	if c := room.active(tactoe.P2); c != nil {
		p2n = c.Nickname
	}
	r.history.SaveResult(context.Background(), room.Id, room.Name, p1n, p2n, outcome, time.Now())
}

// Replay records C's reply to a replay prompt. A YES vote may trigger
// TryRestart; a NO vote is a voluntary exit scoped to the replay
// point and does not preserve the slot for reconnect.
func (r *Registry) Replay(c *clients.Client, yes bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return ErrNotInRoom
	}
	slot, ok := room.SlotOf(c)
	if !ok {
		return ErrNotInRoom
	}

	if yes {
		room.ReplayVote[slot] = true
		c.Send("INFO", "Replay confirmed")
		r.TryRestart(room)
		return nil
	}

	c.Send("INFO", "You declined replay")
	if other := room.active(slot.Other()); other != nil {
		other.Send("INFO", "Opponent declined replay")
		other.State = tactoe.WAITING
		room.State = tactoe.ROOM_WAITING
	}
	room.slots[slot] = occupant{}
	c.RoomID = clients.NoRoom
	c.State = tactoe.LOBBY
	c.Send("EXITED", "")

	r.removeIfEmpty(room)
	return nil
}

// Disconnect is the involuntary-exit path, driven by the heartbeat
// sweep or a closed connection. The slot's identity is preserved for
// DISCONNECT_GRACE if, and only if, the other slot is still live.
func (r *Registry) Disconnect(c *clients.Client, grace time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[c.RoomID]
	if !ok {
		return
	}
	slot, ok := room.SlotOf(c)
	if !ok {
		return
	}

	other := slot.Other()
	otherLive := room.active(other) != nil

	room.slots[slot] = occupant{
		Name:           c.Nickname,
		Session:        c.Session,
		Disconnected:   otherLive,
		DisconnectedAt: time.Now(),
	}

	if room.Board != nil && room.Board.Current != nil && *room.Board.Current == slot {
		room.Board.Current = nil
	}

	c.RoomID = clients.NoRoom
	c.State = tactoe.LOBBY

	if otherLive {
		opponent := room.active(other)
		opponent.Send("INFO", fmt.Sprintf("Opponent disconnected, waiting %d s to reconnect", int(grace/time.Second)))
		opponent.State = tactoe.WAITING
		room.State = tactoe.ROOM_WAITING
	} else {
		r.removeIfEmpty(room)
	}
}

// Prune awards any room whose preserved slot has outlived GRACE to the
// remaining player and removes the room.
func (r *Registry) Prune(grace time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, room := range r.rooms {
		for i := range room.slots {
			o := &room.slots[i]
			if !o.Disconnected || now.Sub(o.DisconnectedAt) < grace {
				continue
			}

			remainingSlot := tactoe.Slot(i).Other()
			if remaining := room.active(remainingSlot); remaining != nil {
				remaining.Send("INFO", "Opponent did not return in time")
				remaining.Send("WIN", "You")
				remaining.RoomID = clients.NoRoom
				remaining.State = tactoe.LOBBY
			}
			room.State = tactoe.EMPTY
			delete(r.rooms, id)
			break
		}
	}
}

// Reconnect scans for a preserved slot matching (NAME, SESSION) and,
// on the first match, attaches C to it and replays the in-flight game.
func (r *Registry) Reconnect(c *clients.Client, name, session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		for i := range room.slots {
			o := &room.slots[i]
			if !o.Disconnected || o.Name != name || o.Session != session {
				continue
			}

			slot := tactoe.Slot(i)
			o.Client = c
			o.Disconnected = false
			// A reconnecting peer opens a fresh socket and sends
			// RECONNECT without a prior JOIN, so c carries none of the
			// preserved identity yet; restore it from the slot so
			// broadcasts (MOVE/WIN/LOSE) name the right player and a
			// later disconnect preserves the same (name, session) pair
			// rather than the client's freshly-minted session token.
			c.Nickname = o.Name
			c.Session = o.Session
			c.RoomID = room.Id
			if room.Occupied() == 2 {
				c.State = tactoe.PLAYING
			} else {
				c.State = tactoe.WAITING
			}

			r.replayBoard(room, slot, c)
			if other := room.active(slot.Other()); other != nil {
				other.Send("INFO", "Opponent reconnected")
			}
			return nil
		}
	}
	return errors.New("No reconnect slot")
}

func (r *Registry) replayBoard(room *Room, slot tactoe.Slot, c *clients.Client) {
	c.Send("RECONNECTED", "")

	opponentName := "Unknown"
	if other := room.active(slot.Other()); other != nil {
		opponentName = other.Nickname
	} else if room.slots[slot.Other()].Disconnected {
		opponentName = room.slots[slot.Other()].Name
	}
	c.Send("START", "Opponent:"+opponentName)

	if room.Board != nil {
		c.Send("SYMBOL", room.Board.SymbolOf(slot))
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				mark := room.Board.At(x, y)
				if mark == ' ' {
					continue
				}
				mover := room.identityFor(mark)
				c.Send("MOVE", mover, strconv.Itoa(x), strconv.Itoa(y))
			}
		}
		if room.Board.Current != nil && *room.Board.Current == slot {
			c.Send("TURN", "")
		}
	}
}

// identityFor returns the nickname (live or preserved) of whichever
// slot plays MARK ('X' or 'O') on the room's current board.
func (r *Room) identityFor(mark rune) string {
	slot := r.Board.XSlot
	if mark != 'X' {
		slot = slot.Other()
	}
	if c := r.active(slot); c != nil {
		return c.Nickname
	}
	return r.slots[slot].Name
}

func truncate(s string) string {
	if len(s) <= tactoe.MaxNameLen {
		return s
	}
	return s[:tactoe.MaxNameLen]
}
