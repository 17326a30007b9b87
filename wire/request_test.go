// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package wire

import (
	"testing"

	"github.com/stqism/ludpnet/identity"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	a, err := identity.Generate()
	require.NoError(t, err)
	b, err := identity.Generate()
	require.NoError(t, err)
	nonce, err := identity.NewNonce()
	require.NoError(t, err)

	r := Request{
		Kind:    7,
		PeerPub: a.Public,
		SelfPub: b.Public,
		Nonce:   nonce,
		Sealed:  []byte("sealed-body-plus-mac"),
	}
	got, err := DecodeRequest(r.Encode())
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestRequestRejectsShort(t *testing.T) {
	_, err := DecodeRequest(make([]byte, MinRequestLen-1))
	require.ErrorIs(t, err, ErrShort)
}
