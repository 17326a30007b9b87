// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package config holds the tunable constants of the LUDP/NCR transport and
// the reflect-based struct-tag defaulting convention the rest of this module
// uses to build them.
package config

import (
	"reflect"
	"strconv"
	"time"
)

// Config collects every constant spec.md §6 fixes, plus the handful spec.md
// leaves as implementation choices (listen address, tick interval). Default
// returns a Config with every tagged field set; setDefaults fills in only
// the zero-valued fields of an existing one.
type Config struct {
	// ListenAddr is where the default UDP socket adapter binds.
	ListenAddr string `default:"0.0.0.0:33445"`

	// Q is the ring buffer size for send/recv windows. The usable window is
	// Q-1; one slot is always reserved so head and tail never collide.
	Q int `default:"16"`

	// MaxDataSize bounds a single LUDP Data payload, spec.md §6's
	// MAX_DATA_SIZE. NCR's crypto envelope (§4.5) eats 17 bytes of it.
	MaxDataSize int `default:"1024"`

	// MaxSyncRate and SyncRate are the two LUDP SYNC paces from §4.3.
	MaxSyncRate int `default:"10"`
	SyncRate    int `default:"2"`

	// DataSyncRate seeds sync_rate for one tick right after a connection
	// reaches status 3, before the idle/active split in §4.3 takes over.
	DataSyncRate int `default:"30"`

	// MinTimeout and MaxTimeout bound the randomized per-connection
	// liveness timeout, spec §3: "timeout ∈ [5, 10) seconds".
	MinTimeout time.Duration `default:"5s"`
	MaxTimeout time.Duration `default:"10s"`

	// PostConfirmKillDelay is how far out LUDP's kill_at is scheduled once
	// NCR reaches status 3 (§4.4). It postpones only the reaping of the LUDP
	// entry: LUDP's liveness timeout still applies, and NCR marks the
	// session timed out when that timeout fires. NCR runs no liveness check
	// of its own.
	PostConfirmKillDelay time.Duration `default:"3000s"`

	// IncomingQueueSize is the size of NCR's queue of accepted-but-not-yet-
	// crypto-handshaken LUDP connections (§3, §6: 64). netcrypto.Table does
	// not enforce it; the queue has no bound.
	IncomingQueueSize int `default:"64"`

	// SessionSlots is the size of the NCR crypto-connection table (§3, §6:
	// 256). netcrypto.Table does not enforce it: Connect and inbound accepts
	// keep allocating sessions past this count.
	SessionSlots int `default:"256"`

	// TickInterval is the scheduler cadence; spec §5 recommends "≥ 20 Hz".
	TickInterval time.Duration `default:"25ms"`
}

// Default returns a Config with every field set from its `default` tag.
func Default() Config {
	var c Config
	setDefaults(&c)
	return c
}

// setDefaults fills zero-valued fields tagged `default` via reflection, the
// way config.setDefaults does for syncthing's XML configuration.
func setDefaults(data interface{}) {
	s := reflect.ValueOf(data).Elem()
	t := s.Type()

	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.IsZero() {
			continue
		}
		tag := t.Field(i).Tag.Get("default")
		if tag == "" {
			continue
		}

		switch f.Interface().(type) {
		case string:
			f.SetString(tag)
		case int:
			v, err := strconv.ParseInt(tag, 10, 64)
			if err != nil {
				panic(err)
			}
			f.SetInt(v)
		case time.Duration:
			d, err := time.ParseDuration(tag)
			if err != nil {
				panic(err)
			}
			f.Set(reflect.ValueOf(d))
		default:
			panic("config: unsupported default-tagged field type: " + f.Type().String())
		}
	}
}
