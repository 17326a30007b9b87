// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package identity holds the long-term and ephemeral keypair types used by
// net-crypto, and the nonce arithmetic spec.md §4.5 and §9 specify.
//
// Keys are curve25519 points as used by golang.org/x/crypto/nacl/box; a
// Keypair's external byte layout (spec.md §6, "Persisted state") is
// pub(32)·sec(32). Writing that layout to disk is a storage concern and
// explicitly out of this package's scope (spec.md §1); only the encoding is
// provided, for collaborators that do own persistence.
package identity

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/box"
)

const (
	KeySize   = 32
	NonceSize = 24
)

// PublicKey and SecretKey are curve25519 points/scalars.
type PublicKey [KeySize]byte
type SecretKey [KeySize]byte

// Keypair is a long-term or ephemeral (session) keypair.
type Keypair struct {
	Public PublicKey
	Secret SecretKey
}

// Generate produces a fresh keypair from a CSPRNG, per Design Notes §9:
// nonces and keys must come from crypto/rand, not an insecure source.
func Generate() (Keypair, error) {
	pub, sec, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Public: PublicKey(*pub), Secret: SecretKey(*sec)}, nil
}

// ErrShortKeypair is returned by UnmarshalBinary when given fewer than
// 2*KeySize bytes.
var ErrShortKeypair = errors.New("identity: keypair data too short")

// MarshalBinary encodes the keypair as pub(32)·sec(32), spec.md §6.
func (k Keypair) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2*KeySize)
	buf = append(buf, k.Public[:]...)
	buf = append(buf, k.Secret[:]...)
	return buf, nil
}

// UnmarshalBinary decodes the pub(32)·sec(32) layout written by
// MarshalBinary.
func (k *Keypair) UnmarshalBinary(data []byte) error {
	if len(data) < 2*KeySize {
		return ErrShortKeypair
	}
	copy(k.Public[:], data[:KeySize])
	copy(k.Secret[:], data[KeySize:2*KeySize])
	return nil
}

// Array returns a *[32]byte view for passing to nacl/box, which takes raw
// array pointers rather than named types.
func (p PublicKey) Array() *[32]byte { a := [32]byte(p); return &a }

func (s SecretKey) Array() *[32]byte { a := [32]byte(s); return &a }

// Nonce is the 24-byte counter paired with every crypto_box call. Byte 0 is
// the least-significant digit, per spec.md §4.5.
type Nonce [NonceSize]byte

func (n Nonce) Array() *[24]byte { a := [24]byte(n); return &a }

// NewNonce draws a fresh nonce from a CSPRNG. Used to seed recv_nonce on
// connect/accept (spec.md §4.4); sent_nonce is always derived from the
// peer's announced secret nonce, never generated locally.
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return Nonce{}, err
	}
	return n, nil
}

// Increment adds one to the nonce treated as a little-endian big integer,
// wrapping silently on overflow (spec.md §4.5: "space exhaustion is
// astronomically remote for any realistic session").
func (n *Nonce) Increment() {
	for i := range n {
		n[i]++
		if n[i] != 0 {
			return
		}
	}
}
