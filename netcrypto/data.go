// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package netcrypto

import (
	"golang.org/x/crypto/nacl/box"

	"github.com/stqism/ludpnet/wire"
)

// overhead is the Poly1305 tag nacl/box appends to every sealed message.
const overhead = 16

// Write encrypts and enqueues bytes for sid, spec.md §4.5 write_encrypted.
// Each successful call consumes exactly one sent_nonce value.
func (t *Table) Write(sid ID, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.session(sid)
	if s == nil || s.status != StatusEstablished {
		return ErrSessionNotReady
	}
	if len(payload)+overhead > t.cfg.MaxDataSize-1 {
		return ErrPayloadTooLarge
	}

	sealed := box.Seal(nil, payload, s.sentNonce.Array(), s.peerSessPub.Array(), s.sessSec.Array())
	pkt := wire.CryptoData{Sealed: sealed}
	if ok := t.ludp.Write(s.ludpID, pkt.Encode()); !ok {
		return ErrSessionNotReady
	}
	s.sentNonce.Increment()
	return nil
}

// Read returns the oldest decrypted application payload queued for sid.
func (t *Table) Read(sid ID) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.session(sid)
	if s == nil || len(s.inbox) == 0 {
		return nil, false
	}
	data := s.inbox[0]
	s.inbox = s.inbox[1:]
	return data, true
}

// Accept returns the ID of an inbound session that has reached status 3
// and has not been returned by Accept before, for callers building a
// friend/connection list; ok is false once there is nothing new. It is a
// convenience over polling Status.
func (t *Table) Accept() (id ID, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.sessions {
		if s.status == StatusEstablished && s.inbound && !s.accepted {
			s.accepted = true
			return ID(i), true
		}
	}
	return 0, false
}
