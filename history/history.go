// Round History Ledger
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

// Package history is an append-only ledger of finished rounds, backed
// by SQLite. It holds no accounts or credentials - only the outcome of
// rounds that already happened - and is entirely optional: the server
// runs fine with a nil History.
package history

import (
	"context"
	"database/sql"
	"embed"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed *.sql
var schema embed.FS

// Manager is a conf.HistoryManager backed by a SQLite database file.
type Manager struct {
	write *sql.DB
	log   *log.Logger

	insert *sql.Stmt
	stop   chan struct{}
}

func (*Manager) String() string { return "Round History" }

// Open creates (or reuses) the SQLite database at PATH and prepares
// the ledger's statements. Open gives an empty path no special
// meaning; the server only opens the ledger when HISTORY_DB is set.
func Open(path string, logger *log.Logger) (*Manager, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // single writer, matching SQLite's own model

	for _, pragma := range []string{
		"journal_mode = WAL",
		"synchronous = normal",
	} {
		if _, err := db.Exec("PRAGMA " + pragma + ";"); err != nil {
			db.Close()
			return nil, err
		}
	}

	data, err := schema.ReadFile("create-history.sql")
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(string(data)); err != nil {
		db.Close()
		return nil, err
	}

	insert, err := db.Prepare(`INSERT INTO rounds
		(room_id, room_name, p1, p2, outcome, played_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{write: db, log: logger, insert: insert, stop: make(chan struct{})}, nil
}

// SaveResult implements conf.HistoryManager. Failures are logged, not
// propagated: a broken ledger must never take down a game in progress.
func (m *Manager) SaveResult(ctx context.Context, roomID uint64, roomName, p1, p2, outcome string, at time.Time) {
	if _, err := m.insert.ExecContext(ctx, roomID, roomName, p1, p2, outcome, at); err != nil {
		m.log.Print(err)
	}
}

// Start implements conf.Manager. It runs "PRAGMA optimize" once a day
// until Shutdown, which runs it one last time before closing the
// database.
func (m *Manager) Start() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if _, err := m.write.Exec("PRAGMA optimize;"); err != nil {
				m.log.Print(err)
			}
		}
	}
}

// Shutdown implements conf.Manager.
func (m *Manager) Shutdown() {
	close(m.stop)
	if _, err := m.write.Exec("PRAGMA optimize;"); err != nil {
		m.log.Print(err)
	}
	if err := m.write.Close(); err != nil {
		m.log.Print(err)
	}
}
