// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package identity

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestGenerateDistinct(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	require.NotEqual(t, a.Public, b.Public)
	require.NotEqual(t, a.Secret, b.Secret)
}

func TestKeypairRoundTrip(t *testing.T) {
	k, err := Generate()
	require.NoError(t, err)

	data, err := k.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 64)

	var got Keypair
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, k, got)
}

func TestUnmarshalBinaryShort(t *testing.T) {
	var k Keypair
	require.ErrorIs(t, k.UnmarshalBinary(make([]byte, 10)), ErrShortKeypair)
}

func TestNonceIncrementCarries(t *testing.T) {
	var n Nonce
	n[0] = 0xff
	n.Increment()
	require.Equal(t, byte(0x00), n[0])
	require.Equal(t, byte(0x01), n[1])
}

func TestNonceIncrementWrapsSilently(t *testing.T) {
	var n Nonce
	for i := range n {
		n[i] = 0xff
	}
	n.Increment()
	require.Equal(t, Nonce{}, n)
}

func TestNonceIncrementMonotonic(t *testing.T) {
	f := func(seed [24]byte) bool {
		n := Nonce(seed)
		before := n
		n.Increment()
		return n != before
	}
	require.NoError(t, quick.Check(f, nil))
}
