// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package transport defines the datagram I/O contract spec.md §1 and §6
// treat as an external collaborator (C1) — send/recv single UDP packets,
// a monotonic clock, a CSPRNG — and ships two implementations: a thin
// net.UDPConn adapter for real use, and an in-memory Loopback for tests
// that need to inject loss (spec.md §8 scenario 3).
package transport

import (
	"net"
	"time"
)

// Addr identifies a peer by (IPv4, UDP port), spec.md §3 "Peer address".
// Equality is componentwise, which [4]byte + int gives for free via ==.
type Addr struct {
	IP   [4]byte
	Port int
}

func AddrFromUDP(u *net.UDPAddr) Addr {
	var a Addr
	ip4 := u.IP.To4()
	copy(a.IP[:], ip4)
	a.Port = u.Port
	return a
}

func (a Addr) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IP(a.IP[:]), Port: a.Port}
}

func (a Addr) String() string {
	return a.UDPAddr().String()
}

// Socket is the datagram send/receive primitive every Node is built on.
// Send and Recv never block beyond the underlying non-blocking socket,
// matching spec.md §5's "no suspension points in the protocol-level logic".
type Socket interface {
	// Send transmits one datagram. ok is false for a transient
	// would-block condition; callers retry next tick (spec.md §7).
	Send(to Addr, data []byte) (ok bool, err error)

	// Recv returns the next queued datagram, or ok=false if none is
	// pending right now.
	Recv() (from Addr, data []byte, ok bool)

	// Now returns the monotonic clock the rest of the stack times off.
	Now() time.Time

	Close() error
}
