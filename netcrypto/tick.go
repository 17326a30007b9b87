// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package netcrypto

import (
	"time"

	"golang.org/x/crypto/nacl/box"

	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/ludp"
	"github.com/stqism/ludpnet/wire"
)

// Tick drains newly accepted LUDP connections, advances any session still
// mid-handshake, and delivers decrypted application data — spec.md §4.4's
// "NCR drains newly accepted LUDP connections, consumes any queued
// handshake/confirmation packets, expires timed-out sessions" half of the
// combined scheduler step; LUDP's own Tick does the other half.
func (t *Table) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		id, ok := t.ludp.PopIncoming()
		if !ok {
			break
		}
		t.pendingLudp = append(t.pendingLudp, id)
	}

	remaining := t.pendingLudp[:0]
	for _, lid := range t.pendingLudp {
		if t.ludp.Status(lid) == ludp.StatusDead {
			continue
		}
		buf, ok := t.ludp.Read(lid)
		if !ok {
			remaining = append(remaining, lid)
			continue
		}
		t.acceptInbound(lid, buf)
	}
	t.pendingLudp = remaining

	for id, s := range t.sessions {
		if s.status == StatusDead || s.status == StatusTimedOut {
			continue
		}
		if ls := t.ludp.Status(s.ludpID); ls == ludp.StatusTimedOut || ls == ludp.StatusDead {
			s.status = StatusTimedOut
			t.events.Log(events.SessionTimedOut, s.peer)
			continue
		}
		for {
			buf, ok := t.ludp.Read(s.ludpID)
			if !ok {
				break
			}
			t.dispatch(ID(id), s, buf)
		}
	}
}

// acceptInbound turns a freshly accepted LUDP connection's first record
// into a session once it decodes as a valid packet 2, spec.md §4.4
// "Inbound". Anything else on that first record is protocol garbage; the
// connection is dropped.
func (t *Table) acceptInbound(lid ludp.ID, buf []byte) {
	h, err := wire.DecodeCryptoHandshake(buf)
	if err != nil || h.SelfLongPub == (identity.PublicKey{}) {
		t.ludp.Kill(lid)
		return
	}
	secretNonce, peerSessPub, ok := t.openHandshake(h)
	if !ok {
		t.ludp.Kill(lid)
		return
	}

	ek, err := identity.Generate()
	if err != nil {
		t.ludp.Kill(lid)
		return
	}
	myNonce, err := identity.NewNonce()
	if err != nil {
		t.ludp.Kill(lid)
		return
	}

	// spec.md §4.4 glossary: a peer's announced secret nonce "becomes the
	// initial sent_nonce (incremented by one) for the other side" —
	// original_source/core/net_crypto.c's accept_crypto_inbound does
	// memcpy(sent_nonce, secret_nonce, ...); increment_nonce(sent_nonce).
	sentNonce := secretNonce
	sentNonce.Increment()

	peer, _ := t.ludp.Peer(lid)
	id := t.alloc()
	s := &Session{
		ludpID:      lid,
		peer:        peer,
		peerLongPub: h.SelfLongPub,
		status:      StatusAwaitingConfirm,
		sessPub:     ek.Public,
		sessSec:     ek.Secret,
		peerSessPub: peerSessPub,
		sentNonce:   sentNonce,
		recvNonce:   myNonce,
		inbound:     true,
	}
	t.sessions[id] = s
	t.byLudpID[lid] = id
	t.byPeerKey[h.SelfLongPub] = id
	t.metrics.SessionsActive.Inc()

	t.sendHandshakeLocked(s, myNonce)
	// Post-send, increment our own recv_nonce to match the +1 the peer
	// will apply to it when deriving its sent_nonce, spec.md §4.4.
	s.recvNonce.Increment()
	t.events.Log(events.SessionHandshakeSent, peer)
	t.sendConfirmLocked(s)
}

func (t *Table) dispatch(id ID, s *Session, buf []byte) {
	if len(buf) == 0 {
		return
	}
	switch buf[0] {
	case wire.TypeCryptoHandshake:
		t.dispatchHandshakeReply(id, s, buf)
	case wire.TypeCryptoData:
		t.dispatchData(id, s, buf)
	default:
		// spec.md §4.7: "Any unexpected packet id while in {1,2} kills the
		// session"; §4.5/§7 treats anything unexpected on an established
		// (status 3) session as discarded, not fatal.
		if s.status == StatusEstablished {
			return
		}
		t.killLocked(id, s)
	}
}

// dispatchHandshakeReply is the initiator receiving the responder's
// packet 2, spec.md §4.4 "Confirmation".
func (t *Table) dispatchHandshakeReply(id ID, s *Session, buf []byte) {
	if s.status == StatusEstablished {
		// A stray/duplicate/replayed packet 2 on an already-established
		// session is discarded, not fatal — spec.md §4.5/§7's "discarded"
		// treatment extends to any unexpected packet once status = 3.
		return
	}
	if s.status != StatusHandshakeSent {
		t.killLocked(id, s)
		return
	}
	h, err := wire.DecodeCryptoHandshake(buf)
	if err != nil || h.SelfLongPub != s.peerLongPub {
		t.killLocked(id, s)
		return
	}
	secretNonce, peerSessPub, ok := t.openHandshake(h)
	if !ok {
		t.killLocked(id, s)
		return
	}

	// spec.md §4.4 "Confirmation": the initiator "sets sent_nonce =
	// secret_nonce + 1" — original_source/core/net_crypto.c's receive_crypto
	// does the same increment_nonce after the memcpy.
	s.sentNonce = secretNonce
	s.sentNonce.Increment()
	s.peerSessPub = peerSessPub
	s.status = StatusEstablished // transient, per spec.md §4.4
	t.sendConfirmLocked(s)
	s.status = StatusAwaitingConfirm
}

// dispatchData handles a packet 3: either the zero-byte confirmation that
// finalizes the handshake, or (once established) application payload.
func (t *Table) dispatchData(id ID, s *Session, buf []byte) {
	d, err := wire.DecodeCryptoData(buf)
	if err != nil {
		if s.status == StatusEstablished {
			return
		}
		t.killLocked(id, s)
		return
	}
	plain, ok := box.Open(nil, d.Sealed, s.recvNonce.Array(), s.peerSessPub.Array(), s.sessSec.Array())
	if !ok {
		t.metrics.CryptoFailures.Inc()
		if s.status == StatusEstablished {
			// spec.md §4.5/§7: a decryption failure on an established
			// session is "discarded", not fatal, and must not advance
			// recv_nonce. A bad packet during the handshake dance is
			// still treated as an unexpected/hostile event.
			return
		}
		t.killLocked(id, s)
		return
	}
	s.recvNonce.Increment()

	switch s.status {
	case StatusAwaitingConfirm:
		if len(plain) != 4 || string(plain) != string(zeroConfirm[:]) {
			t.killLocked(id, s)
			return
		}
		s.status = StatusEstablished
		t.ludp.KillIn(s.ludpID, t.cfg.PostConfirmKillDelay)
		t.metrics.HandshakesComplete.Inc()
		t.events.Log(events.SessionEstablished, s.peer)
	case StatusEstablished:
		cp := make([]byte, len(plain))
		copy(cp, plain)
		s.inbox = append(s.inbox, cp)
	default:
		t.killLocked(id, s)
	}
}
