// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package wire

import (
	"github.com/stqism/ludpnet/identity"
)

// Request is the unreliable signed one-shot envelope spec.md §4.6 describes
// for friend requests / DHT pings. It bypasses LUDP entirely and rides on
// bare UDP:
//
//	kind(1) · peer_pub(32) · self_pub(32) · nonce(24) · AEAD{peer_pub, self_sec, nonce}(body)
type Request struct {
	Kind    byte
	PeerPub identity.PublicKey // destination
	SelfPub identity.PublicKey // sender
	Nonce   identity.Nonce
	Sealed  []byte
}

// MinRequestLen is the shortest valid request: kind, two keys, nonce, and
// the 16-byte MAC an empty sealed body still carries (1+32+32+24+16 = 105
// bytes).
const MinRequestLen = 1 + 2*identity.KeySize + identity.NonceSize + 16

func (r Request) Encode() []byte {
	buf := make([]byte, 1+2*identity.KeySize+identity.NonceSize+len(r.Sealed))
	buf[0] = r.Kind
	off := 1
	off += copy(buf[off:], r.PeerPub[:])
	off += copy(buf[off:], r.SelfPub[:])
	off += copy(buf[off:], r.Nonce[:])
	copy(buf[off:], r.Sealed)
	return buf
}

func DecodeRequest(buf []byte) (Request, error) {
	if len(buf) < MinRequestLen {
		return Request{}, ErrShort
	}
	var r Request
	r.Kind = buf[0]
	off := 1
	copy(r.PeerPub[:], buf[off:off+identity.KeySize])
	off += identity.KeySize
	copy(r.SelfPub[:], buf[off:off+identity.KeySize])
	off += identity.KeySize
	copy(r.Nonce[:], buf[off:off+identity.NonceSize])
	off += identity.NonceSize
	r.Sealed = append([]byte(nil), buf[off:]...)
	return r, nil
}
