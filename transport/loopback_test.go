// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopbackDeliversBothWays(t *testing.T) {
	m := NewMedium()
	a := m.NewSocket(Addr{IP: [4]byte{127, 0, 0, 1}, Port: 1})
	b := m.NewSocket(Addr{IP: [4]byte{127, 0, 0, 1}, Port: 2})

	ok, err := a.Send(Addr{IP: [4]byte{127, 0, 0, 1}, Port: 2}, []byte("hi"))
	require.True(t, ok)
	require.NoError(t, err)

	from, data, ok := b.Recv()
	require.True(t, ok)
	require.Equal(t, []byte("hi"), data)
	require.Equal(t, Addr{IP: [4]byte{127, 0, 0, 1}, Port: 1}, from)
}

func TestLoopbackRecvEmpty(t *testing.T) {
	m := NewMedium()
	a := m.NewSocket(Addr{Port: 1})
	_, _, ok := a.Recv()
	require.False(t, ok)
}

func TestLoopbackDropAll(t *testing.T) {
	m := NewMedium()
	m.Drop = func(_, _ Addr, _ []byte) bool { return true }
	a := m.NewSocket(Addr{Port: 1})
	b := m.NewSocket(Addr{Port: 2})

	_, err := a.Send(Addr{Port: 2}, []byte("x"))
	require.NoError(t, err)
	_, _, ok := b.Recv()
	require.False(t, ok)
}

func TestMediumAdvance(t *testing.T) {
	m := NewMedium()
	start := m.Now()
	m.Advance(1500 * time.Millisecond)
	require.True(t, m.Now().After(start))
}
