// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package netcrypto implements the net-crypto session layer above LUDP:
// C6 (session table), C7 (public-key handshake), C8 (encrypted data path),
// and C9 (incoming-connection queue), spec.md §4.4-§4.6.
package netcrypto

import (
	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/ludp"
	"github.com/stqism/ludpnet/transport"
)

// Status is a net-crypto session's handshake stage, spec.md §4.4.
type Status int

const (
	StatusDead            Status = iota
	StatusHandshakeSent           // 1: outbound, awaiting peer's packet 2
	StatusAwaitingConfirm         // 2: session keys known, awaiting peer's zero packet 3
	StatusEstablished             // 3: session live
	StatusTimedOut                // 4: underlying LUDP connection reported status 4
)

// ID indexes a Table's session slice, stable for the session's lifetime.
type ID int

// Session is one net-crypto session table entry.
type Session struct {
	ludpID      ludp.ID
	peer        transport.Addr
	peerLongPub identity.PublicKey
	status      Status
	inbound     bool
	accepted    bool

	sessPub     identity.PublicKey
	sessSec     identity.SecretKey
	peerSessPub identity.PublicKey

	sentNonce identity.Nonce
	recvNonce identity.Nonce

	inbox [][]byte // decrypted application payloads awaiting Read
}

func (s *Session) Status() Status           { return s.status }
func (s *Session) Peer() transport.Addr     { return s.peer }
func (s *Session) PeerLongPub() identity.PublicKey { return s.peerLongPub }
