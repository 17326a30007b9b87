// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestInWindow(t *testing.T) {
	require.True(t, inWindow(10, 5, 10))
	require.False(t, inWindow(15, 5, 10))
	require.True(t, inWindow(2, 0xfffffffe, 10)) // wraps past 2^32
	require.False(t, inWindow(12, 0xfffffffe, 10))
}

func TestWithinQ(t *testing.T) {
	require.True(t, withinQ(100, 115, 16))
	require.False(t, withinQ(100, 116, 16))
	require.True(t, withinQ(0xfffffff0, 5, 16)) // wraps
}

func TestCounterGapOK(t *testing.T) {
	require.True(t, counterGapOK(5, 6, 10))
	require.True(t, counterGapOK(5, 14, 10))
	require.False(t, counterGapOK(5, 15, 10))
	require.False(t, counterGapOK(5, 5, 10)) // replay, zero gap
	require.True(t, counterGapOK(250, 3, 10)) // wraps mod 256
}

// TestInWindowWrapSafe is spec.md §9's "wrap-safe difference, never a
// signed compare" property: inWindow agrees with the unsigned wrap
// difference, fuzzed across the full uint32 range.
func TestInWindowWrapSafe(t *testing.T) {
	f := func(seq, start uint32, length uint8) bool {
		got := inWindow(seq, start, uint32(length))
		want := seq-start < uint32(length)
		return got == want
	}
	require.NoError(t, quick.Check(f, nil))
}
