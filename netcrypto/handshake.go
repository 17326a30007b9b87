// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package netcrypto

import (
	"golang.org/x/crypto/nacl/box"

	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

var zeroConfirm = [4]byte{}

// Connect opens (or reuses) the underlying LUDP connection to addr and
// starts an outbound net-crypto handshake to peerPub, spec.md §4.4.
func (t *Table) Connect(peerPub identity.PublicKey, addr transport.Addr) (ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byPeerKey[peerPub]; ok {
		if s := t.session(existing); s != nil && s.peer == addr && s.status != StatusDead {
			return 0, ErrDuplicateSession
		}
	}

	ludpID := t.ludp.NewOutbound(addr)
	ek, err := identity.Generate()
	if err != nil {
		return 0, err
	}
	secretNonce, err := identity.NewNonce()
	if err != nil {
		return 0, err
	}

	id := t.alloc()
	s := &Session{
		ludpID:      ludpID,
		peer:        addr,
		peerLongPub: peerPub,
		status:      StatusHandshakeSent,
		sessPub:     ek.Public,
		sessSec:     ek.Secret,
		recvNonce:   secretNonce,
		inbound:     false,
	}
	t.sessions[id] = s
	t.byLudpID[ludpID] = id
	t.byPeerKey[peerPub] = id
	t.metrics.SessionsActive.Inc()

	if err := t.sendHandshakeLocked(s, secretNonce); err != nil {
		return 0, err
	}
	// spec.md §4.4: "Post-send, increment recv_nonce so that the first
	// encrypted datagram received uses the incremented value" — the peer's
	// sent_nonce for its first packet to us is secretNonce+1 (see
	// acceptInbound/dispatchHandshakeReply).
	s.recvNonce.Increment()
	t.events.Log(events.SessionHandshakeSent, addr)
	return id, nil
}

// sendHandshakeLocked builds and writes this side's packet 2, announcing
// secretNonce as the value the peer should start encrypting to us with.
func (t *Table) sendHandshakeLocked(s *Session, secretNonce identity.Nonce) error {
	plain := make([]byte, 0, identity.NonceSize+identity.KeySize)
	plain = append(plain, secretNonce[:]...)
	plain = append(plain, s.sessPub[:]...)

	hsNonce, err := identity.NewNonce()
	if err != nil {
		return err
	}
	sealed := box.Seal(nil, plain, hsNonce.Array(), s.peerLongPub.Array(), t.identity.Secret.Array())

	pkt := wire.CryptoHandshake{SelfLongPub: t.identity.Public, Nonce: hsNonce, Sealed: sealed}
	t.ludp.Write(s.ludpID, pkt.Encode())
	return nil
}

// openHandshake decodes and opens an inbound packet 2 against our
// long-term key. ok is false if decryption failed.
func (t *Table) openHandshake(h wire.CryptoHandshake) (secretNonce identity.Nonce, peerSessPub identity.PublicKey, ok bool) {
	plain, valid := box.Open(nil, h.Sealed, h.Nonce.Array(), h.SelfLongPub.Array(), t.identity.Secret.Array())
	if !valid || len(plain) != identity.NonceSize+identity.KeySize {
		t.metrics.CryptoFailures.Inc()
		return identity.Nonce{}, identity.PublicKey{}, false
	}
	copy(secretNonce[:], plain[:identity.NonceSize])
	copy(peerSessPub[:], plain[identity.NonceSize:])
	return secretNonce, peerSessPub, true
}

// sendConfirmLocked encrypts and sends the 4-zero-byte packet 3 that
// signals this side has derived full session keys.
func (t *Table) sendConfirmLocked(s *Session) {
	sealed := box.Seal(nil, zeroConfirm[:], s.sentNonce.Array(), s.peerSessPub.Array(), s.sessSec.Array())
	pkt := wire.CryptoData{Sealed: sealed}
	t.ludp.Write(s.ludpID, pkt.Encode())
	s.sentNonce.Increment()
}
