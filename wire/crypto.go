// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package wire

import (
	"github.com/stqism/ludpnet/identity"
)

// CryptoHandshake is the net-crypto handshake envelope (type 2), carried as
// the payload of a reliable LUDP Data packet, spec.md §4.4:
//
//	self_long_pub(32) · nonce(24) · AEAD{peer_long_pub, self_long_sec, nonce}(secret_nonce(24) · session_pub(32))
//
// Sealed is the AEAD output and is always SealedLen (72) bytes: the 56-byte
// plaintext plus box's 16-byte Poly1305 tag.
type CryptoHandshake struct {
	SelfLongPub identity.PublicKey
	Nonce       identity.Nonce
	Sealed      []byte
}

// SealedLen is len(secret_nonce·session_pub) + box overhead: 24+32+16.
const SealedLen = identity.NonceSize + identity.KeySize + 16

func (h CryptoHandshake) Encode() []byte {
	buf := make([]byte, 1+identity.KeySize+identity.NonceSize+len(h.Sealed))
	buf[0] = TypeCryptoHandshake
	off := 1
	off += copy(buf[off:], h.SelfLongPub[:])
	off += copy(buf[off:], h.Nonce[:])
	copy(buf[off:], h.Sealed)
	return buf
}

func DecodeCryptoHandshake(buf []byte) (CryptoHandshake, error) {
	const want = 1 + identity.KeySize + identity.NonceSize + SealedLen
	if len(buf) != want {
		return CryptoHandshake{}, ErrShort
	}
	if buf[0] != TypeCryptoHandshake {
		return CryptoHandshake{}, ErrType
	}
	var h CryptoHandshake
	off := 1
	copy(h.SelfLongPub[:], buf[off:off+identity.KeySize])
	off += identity.KeySize
	copy(h.Nonce[:], buf[off:off+identity.NonceSize])
	off += identity.NonceSize
	h.Sealed = append([]byte(nil), buf[off:]...)
	return h, nil
}

// CryptoData is the net-crypto encrypted payload envelope (type 3), spec.md
// §4.5: byte 3, followed by AEAD{peer_sess_pub, sess_sec, nonce}(plaintext).
type CryptoData struct {
	Sealed []byte
}

func (d CryptoData) Encode() []byte {
	buf := make([]byte, 1+len(d.Sealed))
	buf[0] = TypeCryptoData
	copy(buf[1:], d.Sealed)
	return buf
}

func DecodeCryptoData(buf []byte) (CryptoData, error) {
	if len(buf) < 1+16 {
		return CryptoData{}, ErrShort
	}
	if buf[0] != TypeCryptoData {
		return CryptoData{}, ErrType
	}
	return CryptoData{Sealed: append([]byte(nil), buf[1:]...)}, nil
}
