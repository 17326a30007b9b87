// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package request implements the unreliable signed request envelope
// spec.md §4.6 uses for one-shot messages (friend requests, DHT pings)
// sent directly on bare UDP, bypassing LUDP and net-crypto entirely.
package request

import (
	"errors"

	"golang.org/x/crypto/nacl/box"

	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/wire"
)

var (
	ErrWrongDestination = errors.New("request: destination key is not ours")
	ErrDecryptFailed    = errors.New("request: AEAD open failed")
)

// Create produces the kind(1)·peer_pub(32)·self_pub(32)·nonce(24)·
// AEAD(body) envelope spec.md §4.6 defines, sealed under (peerPub, selfSec).
func Create(kind byte, peerPub, selfPub identity.PublicKey, selfSec identity.SecretKey, body []byte) ([]byte, error) {
	nonce, err := identity.NewNonce()
	if err != nil {
		return nil, err
	}
	sealed := box.Seal(nil, body, nonce.Array(), peerPub.Array(), selfSec.Array())
	pkt := wire.Request{
		Kind:    kind,
		PeerPub: peerPub,
		SelfPub: selfPub,
		Nonce:   nonce,
		Sealed:  sealed,
	}
	return pkt.Encode(), nil
}

// Handle decodes buf and opens it, provided its PeerPub field (the
// destination the sender addressed) matches ourPub. The sender's own
// public key (wire.Request.SelfPub) and decrypted body are returned.
func Handle(buf []byte, ourPub identity.PublicKey, ourSec identity.SecretKey) (senderPub identity.PublicKey, body []byte, err error) {
	req, err := wire.DecodeRequest(buf)
	if err != nil {
		return identity.PublicKey{}, nil, err
	}
	if req.PeerPub != ourPub {
		return identity.PublicKey{}, nil, ErrWrongDestination
	}
	plain, ok := box.Open(nil, req.Sealed, req.Nonce.Array(), req.SelfPub.Array(), ourSec.Array())
	if !ok {
		return identity.PublicKey{}, nil, ErrDecryptFailed
	}
	return req.SelfPub, plain, nil
}
