// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package netcrypto

import (
	"errors"
	"sync"

	"github.com/stqism/ludpnet/config"
	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/logger"
	"github.com/stqism/ludpnet/ludp"
	"github.com/stqism/ludpnet/metrics"
	"github.com/stqism/ludpnet/transport"
)

var l = logger.New("netcrypto")

var (
	// ErrDuplicateSession is returned by Connect when a live session already
	// targets the same (peer public key, address), spec.md §4.4.
	ErrDuplicateSession = errors.New("netcrypto: session already exists for peer")
	ErrSessionNotReady  = errors.New("netcrypto: session not established")
	ErrPayloadTooLarge  = errors.New("netcrypto: payload too large for one envelope")
)

// Table is the net-crypto session table (C6): a growable slice of *Session
// plus the bookkeeping C9's incoming-connection queue needs, built directly
// on a ludp.Table the way NCR is layered on LUDP throughout spec.md §4.4.
type Table struct {
	mu       sync.Mutex
	cfg      config.Config
	ludp     *ludp.Table
	identity identity.Keypair
	events   *events.Logger
	metrics  *metrics.Set

	sessions  []*Session
	byLudpID  map[ludp.ID]ID
	byPeerKey map[identity.PublicKey]ID

	pendingLudp []ludp.ID // accepted LUDP ids awaiting their first packet 2
}

func NewTable(lt *ludp.Table, id identity.Keypair, cfg config.Config, ev *events.Logger, ms *metrics.Set) *Table {
	if ev == nil {
		ev = events.Default
	}
	if ms == nil {
		ms = metrics.Default
	}
	return &Table{
		cfg:       cfg,
		ludp:      lt,
		identity:  id,
		events:    ev,
		metrics:   ms,
		byLudpID:  make(map[ludp.ID]ID),
		byPeerKey: make(map[identity.PublicKey]ID),
	}
}

func (t *Table) alloc() ID {
	for i, s := range t.sessions {
		if s.status == StatusDead {
			return ID(i)
		}
	}
	t.sessions = append(t.sessions, &Session{})
	return ID(len(t.sessions) - 1)
}

func (t *Table) session(id ID) *Session {
	if int(id) < 0 || int(id) >= len(t.sessions) {
		return nil
	}
	return t.sessions[id]
}

func (t *Table) Status(id ID) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.session(id); s != nil {
		return s.status
	}
	return StatusDead
}

// Kill tears down a session and the LUDP connection carrying it, spec.md
// §4.4's "any unexpected packet id while in {1,2} kills the session".
func (t *Table) Kill(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.session(id)
	if s == nil || s.status == StatusDead {
		return
	}
	t.killLocked(id, s)
}

func (t *Table) killLocked(id ID, s *Session) {
	l.Debugln("killing session", id, "to", s.peer, "status", s.status)
	delete(t.byLudpID, s.ludpID)
	delete(t.byPeerKey, s.peerLongPub)
	t.ludp.Kill(s.ludpID)
	t.sessions[id] = &Session{}
	t.sessions = trimSessionsTail(t.sessions)
	t.metrics.SessionsActive.Dec()
	t.events.Log(events.SessionKilled, s.peer)
}

func trimSessionsTail(sessions []*Session) []*Session {
	for len(sessions) > 0 && sessions[len(sessions)-1].status == StatusDead {
		sessions = sessions[:len(sessions)-1]
	}
	return sessions
}
