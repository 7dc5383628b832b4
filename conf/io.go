// Configuration loading and dumping
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
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Open loads the configuration from PATH. A missing file is not an
// error: the defaults are returned unchanged, matching the spec's
// "Missing file -> all defaults" rule. Unknown keys are ignored by
// the decoder, also per spec.
func Open(path string) (*Conf, error) {
	c := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Ctx, c.Kill = context.WithCancel(context.Background())
			return c, nil
		}
		return nil, err
	}
	defer file.Close()

	var data flat
	if _, err := toml.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	applyFlat(c, &data)

	c.Ctx, c.Kill = context.WithCancel(context.Background())
	return c, nil
}

func applyFlat(c *Conf, data *flat) {
	if data.Port != 0 {
		c.Port = data.Port
	}
	if data.MaxRooms != 0 {
		c.MaxRooms = data.MaxRooms
	}
	if data.MaxClients != 0 {
		c.MaxClients = data.MaxClients
	}
	if data.BindAddress != "" {
		c.BindAddress = data.BindAddress
	}
	if data.DisconnectGrace != 0 {
		c.DisconnectGrace = time.Duration(data.DisconnectGrace) * time.Second
	}
	if data.Debug {
		c.Debug.SetOutput(os.Stderr)
	}
	c.EnableWebSocket = data.EnableWebSocket
	if data.WSPort != 0 {
		c.WSPort = data.WSPort
	}
	c.HistoryDB = data.HistoryDB
}

// ApplyPortOverride implements the spec's "An optional first CLI
// argument overrides PORT; invalid port -> exit non-zero" rule.
func (c *Conf) ApplyPortOverride(arg string) error {
	port, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return err
	}
	c.Port = uint(port)
	return nil
}

// Dump serialises the active configuration as the flat key=value
// (TOML) file Open would read back unchanged.
func (c *Conf) Dump(wr io.Writer) error {
	data := flat{
		Port:            c.Port,
		MaxRooms:        c.MaxRooms,
		MaxClients:      c.MaxClients,
		BindAddress:     c.BindAddress,
		DisconnectGrace: uint(c.DisconnectGrace / time.Second),
		Debug:           c.Debug.Writer() != io.Discard,
		EnableWebSocket: c.EnableWebSocket,
		WSPort:          c.WSPort,
		HistoryDB:       c.HistoryDB,
	}
	return toml.NewEncoder(wr).Encode(data)
}
