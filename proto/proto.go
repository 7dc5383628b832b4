// Protocol Dispatch
//
// Copyright (c) 2021, 2022, 2023  Philip Kaludercic
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
	"errors"
	"strconv"

	"github.com/tomasklepac/Tic-tac-toe"
	"github.com/tomasklepac/Tic-tac-toe/game"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
)

// arg returns the i'th element of args, or "" if short.
func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// interpret dispatches one already-framed inbound LINE. It returns
// true if the connection should be torn down, either because the
// client asked to (QUIT) or because it has reached its invalid-input
// quota.
func (cli *Client) interpret(line string) (kill bool) {
	tag, args, ok := tactoe.Decode(line)
	if !ok {
		return cli.strike("UNKNOWN_CMD")
	}

	switch tag {
	case "JOIN":
		cli.SetNickname(arg(args, 0))
		cli.State = tactoe.LOBBY
		cli.Send("JOINED", cli.Nickname)
		cli.Send("SESSION", cli.Session)
		return false

	case "RECONNECT":
		if len(args) != 2 {
			return cli.strike("Invalid reconnect format")
		}
		if err := cli.rreg.Reconnect(cli.Client, args[0], args[1]); err != nil {
			cli.Send("ERROR", "No reconnect slot")
		}
		return false

	case "CREATE":
		if _, err := cli.rreg.Create(arg(args, 0), cli.Client); err != nil {
			cli.Send("ERROR", errText(err))
		}
		return false

	case "JOINROOM":
		id, err := strconv.ParseUint(arg(args, 0), 10, 64)
		if err != nil {
			return cli.strike("Invalid JOINROOM format")
		}
		if err := cli.rreg.Join(id, cli.Client); err != nil {
			cli.Send("ERROR", errText(err))
		}
		return false

	case "EXIT":
		cli.rreg.Leave(cli.Client)
		return false

	case "LIST":
		cli.rreg.List(cli.Client)
		return false

	case "MOVE":
		if len(args) != 2 {
			return cli.strike("Invalid MOVE format")
		}
		x, errx := strconv.Atoi(args[0])
		y, erry := strconv.Atoi(args[1])
		if errx != nil || erry != nil {
			return cli.strike("Invalid MOVE format")
		}
		if err := cli.rreg.Move(cli.Client, x, y); err != nil {
			if errors.Is(err, game.ErrOutOfRange) {
				return cli.strike("Invalid MOVE format")
			}
			cli.Send("ERROR", errText(err))
		}
		return false

	case "REPLAY":
		if err := cli.rreg.Replay(cli.Client, arg(args, 0) == "YES"); err != nil {
			cli.Send("ERROR", errText(err))
		}
		return false

	case "QUIT":
		cli.Send("BYE", "")
		return true

	case "PING":
		cli.Send("PONG", "")
		return false

	case "PONG":
		cli.creg.WithLock(func() { cli.MissedPongs = 0 })
		return false

	default:
		return cli.strike("UNKNOWN_CMD")
	}
}

// errText renders an internal sentinel error as the wire-facing text
// from the error taxonomy. Anything unrecognised falls back to its Go
// error text, which should never happen for errors returned by the
// room or game packages.
func errText(err error) string {
	switch {
	case errors.Is(err, rooms.ErrLobbyFull):
		return "Lobby full"
	case errors.Is(err, rooms.ErrNoSuchRoom):
		return "No such room"
	case errors.Is(err, rooms.ErrSelfJoin):
		return "Cannot join your own room"
	case errors.Is(err, rooms.ErrRoomFull):
		return "Room full"
	case errors.Is(err, rooms.ErrNotInRoom):
		return "Not in room"
	case errors.Is(err, rooms.ErrNotInGameRoom):
		return "Not in game room"
	case errors.Is(err, game.ErrNotTurn):
		return "Not your turn"
	case errors.Is(err, game.ErrFinished):
		return "Game finished"
	case errors.Is(err, game.ErrOutOfRange):
		return "Invalid MOVE format"
	case errors.Is(err, game.ErrOccupied):
		return "Cell occupied"
	default:
		return err.Error()
	}
}
