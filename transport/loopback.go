// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package transport

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Medium is an in-memory datagram switch connecting any number of Loopback
// sockets, for tests that need to drive both ends of a handshake
// synchronously (spec.md §8 scenario 1) or inject loss (scenario 3)
// without touching a real kernel socket.
type Medium struct {
	mu    sync.Mutex
	nodes map[Addr]*Loopback
	now   time.Time

	// Drop, if non-nil, is consulted for every datagram; returning true
	// drops it. Tests use this for the uniform-drop scenario.
	Drop func(from, to Addr, data []byte) bool
}

func NewMedium() *Medium {
	return &Medium{
		nodes: make(map[Addr]*Loopback),
		now:   time.Unix(0, 0),
	}
}

// Advance moves the shared virtual clock forward, letting tests drive many
// ticks deterministically instead of sleeping in wall-clock time.
func (m *Medium) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Medium) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewSocket registers and returns a Loopback bound to addr.
func (m *Medium) NewSocket(addr Addr) *Loopback {
	s := &Loopback{
		addr:   addr,
		medium: m,
		inbox:  make(chan inbound, 1024),
	}
	m.mu.Lock()
	m.nodes[addr] = s
	m.mu.Unlock()
	return s
}

// UniformDrop returns a Drop predicate that drops a random fraction rate of
// datagrams, independent of kind. It drops every packet type alike; the
// data-only drop of spec.md §8 scenario 3 is a separate predicate in the
// ludp tests.
func UniformDrop(rate float64) func(from, to Addr, data []byte) bool {
	return func(_, _ Addr, _ []byte) bool {
		return rand.Float64() < rate
	}
}

// Loopback is a Socket backed by a Medium instead of a kernel socket.
type Loopback struct {
	addr   Addr
	medium *Medium
	inbox  chan inbound
}

func (s *Loopback) Send(to Addr, data []byte) (bool, error) {
	s.medium.mu.Lock()
	dst, ok := s.medium.nodes[to]
	drop := s.medium.Drop
	s.medium.mu.Unlock()
	if !ok {
		return true, nil // no listener; UDP would silently black-hole this too
	}
	if drop != nil && drop(s.addr, to, data) {
		return true, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case dst.inbox <- inbound{s.addr, cp}:
	default:
		l.Debugln("loopback inbox full, dropping")
	}
	return true, nil
}

func (s *Loopback) Recv() (Addr, []byte, bool) {
	select {
	case m := <-s.inbox:
		return m.from, m.data, true
	default:
		return Addr{}, nil, false
	}
}

func (s *Loopback) Now() time.Time { return s.medium.Now() }

func (s *Loopback) Close() error {
	s.medium.mu.Lock()
	delete(s.medium.nodes, s.addr)
	s.medium.mu.Unlock()
	return nil
}
