// Configuration Specification and Management
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
	"io"
	"log"
	"time"
)

// flat is the on-disk representation: every key lives at the top
// level, one KEY=value per line. The file is decoded as TOML, so
// numbers and booleans may be written bare but string values
// (BIND_ADDRESS, HISTORY_DB) must be quoted; an unquoted value such as
// BIND_ADDRESS=0.0.0.0 is a decode error.
type flat struct {
	Port             uint   `toml:"PORT"`
	MaxRooms         uint   `toml:"MAX_ROOMS"`
	MaxClients       uint   `toml:"MAX_CLIENTS"`
	BindAddress      string `toml:"BIND_ADDRESS"`
	DisconnectGrace  uint   `toml:"DISCONNECT_GRACE"`
	Debug            bool   `toml:"DEBUG"`
	EnableWebSocket  bool   `toml:"ENABLE_WEBSOCKET"`
	WSPort           uint   `toml:"WS_PORT"`
	HistoryDB        string `toml:"HISTORY_DB"`
}

// Conf is the server's read-only-after-startup configuration record,
// populated once from defaults, an optional file, and flags/CLI
// overrides.
type Conf struct {
	Log   *log.Logger
	Debug *log.Logger
	Ctx   context.Context
	Kill  context.CancelFunc

	// Networking
	Port        uint
	BindAddress string

	// Resource bounds
	MaxRooms   uint
	MaxClients uint

	// Liveness
	HeartbeatInterval time.Duration
	MaxMissedPongs    uint
	DisconnectGrace   time.Duration

	// Optional WebSocket bridge
	EnableWebSocket bool
	WSPort          uint

	// Optional round-history ledger
	HistoryDB string
	History   HistoryManager

	// Internal state
	man []Manager
	run bool
}

// defaultConfig holds every value the spec assigns a default to.
var defaultConfig = Conf{
	Log:   log.Default(),
	Debug: log.New(io.Discard, "[debug] ", log.Ltime|log.Lshortfile|log.Lmicroseconds),

	Port:        10000,
	BindAddress: "0.0.0.0",

	MaxRooms:   16,
	MaxClients: 128,

	HeartbeatInterval: 5 * time.Second,
	MaxMissedPongs:    3,
	DisconnectGrace:   15 * time.Second,

	EnableWebSocket: false,
	WSPort:          10001,

	HistoryDB: "",
}

// Default returns a copy of the built-in default configuration.
func Default() *Conf {
	c := defaultConfig
	return &c
}
