// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package wire

import (
	"testing"

	"github.com/stqism/ludpnet/identity"
	"github.com/stretchr/testify/require"
)

func TestCryptoHandshakeRoundTrip(t *testing.T) {
	kp, err := identity.Generate()
	require.NoError(t, err)
	nonce, err := identity.NewNonce()
	require.NoError(t, err)

	h := CryptoHandshake{
		SelfLongPub: kp.Public,
		Nonce:       nonce,
		Sealed:      make([]byte, SealedLen),
	}
	got, err := DecodeCryptoHandshake(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestCryptoHandshakeRejectsWrongLength(t *testing.T) {
	_, err := DecodeCryptoHandshake([]byte{TypeCryptoHandshake, 1, 2, 3})
	require.ErrorIs(t, err, ErrShort)
}

func TestCryptoDataRoundTrip(t *testing.T) {
	d := CryptoData{Sealed: make([]byte, 21)}
	got, err := DecodeCryptoData(d.Encode())
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestCryptoDataRejectsShort(t *testing.T) {
	_, err := DecodeCryptoData([]byte{TypeCryptoData})
	require.ErrorIs(t, err, ErrShort)
}
