// Entry point
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tomasklepac/Tic-tac-toe/clients"
	"github.com/tomasklepac/Tic-tac-toe/conf"
	"github.com/tomasklepac/Tic-tac-toe/heartbeat"
	"github.com/tomasklepac/Tic-tac-toe/history"
	"github.com/tomasklepac/Tic-tac-toe/proto"
	"github.com/tomasklepac/Tic-tac-toe/rooms"
	"github.com/tomasklepac/Tic-tac-toe/wsbridge"
)

// Default file name for the configuration file
const defconf = "server.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		dumpConf = flag.Bool("dump-config", false, "Dump the active configuration")
	)

	flag.Parse()
	if flag.NArg() > 1 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load the configuration from disk (if available)
	config, err := conf.Open(*confFile)
	if err != nil {
		log.Fatal(err)
	}
	config.Debug.Println("Debug logging has been enabled")

	// An optional first positional argument overrides PORT
	if flag.NArg() == 1 {
		if err := config.ApplyPortOverride(flag.Arg(0)); err != nil {
			log.Fatalln("Invalid port:", err)
		}
	}

	// Dump the configuration to standard output if requested
	if *dumpConf {
		if err := config.Dump(os.Stdout); err != nil {
			log.Fatalln("Failed to dump active configuration:", err)
		}
		os.Exit(0)
	}

	var hist *history.Manager
	if config.HistoryDB != "" {
		hist, err = history.Open(config.HistoryDB, config.Debug)
		if err != nil {
			log.Fatalln("Failed to open history database:", err)
		}
		config.Register(hist)
	}

	creg := clients.NewRegistry(config.MaxClients)
	rreg := rooms.NewRegistry(config.MaxRooms, historyOrNil(hist))

	config.Register(heartbeat.New(config, creg, rreg))
	config.Register(proto.NewListener(config, creg, rreg))
	if config.EnableWebSocket {
		config.Register(wsbridge.New(config, creg, rreg))
	}

	// Launch the server; blocks until an interrupt or a manager
	// requests shutdown via config.Kill.
	config.Start()
}

// historyOrNil returns a rooms.History interface value that is truly
// nil when HIST is nil, rather than a non-nil interface wrapping a nil
// *history.Manager.
func historyOrNil(hist *history.Manager) rooms.History {
	if hist == nil {
		return nil
	}
	return hist
}
