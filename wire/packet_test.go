// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandshakeRoundTrip(t *testing.T) {
	h := Handshake{IDSender: 0xdeadbeef, IDReply: 0x12345678}
	got, err := DecodeHandshake(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestHandshakeWrongType(t *testing.T) {
	buf := Handshake{}.Encode()
	buf[0] = TypeLUDPData
	_, err := DecodeHandshake(buf)
	require.ErrorIs(t, err, ErrType)
}

func TestSyncRoundTripNoRequests(t *testing.T) {
	s := Sync{Counter: 7, RecvCursor: 100, SentCursor: 200}
	got, err := DecodeSync(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s.Counter, got.Counter)
	require.Equal(t, s.RecvCursor, got.RecvCursor)
	require.Equal(t, s.SentCursor, got.SentCursor)
	require.Empty(t, got.Requested)
}

func TestSyncRoundTripWithRequests(t *testing.T) {
	s := Sync{Counter: 1, RecvCursor: 5, SentCursor: 9, Requested: []uint32{1, 2, 3, 4, 5}}
	got, err := DecodeSync(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s.Requested, got.Requested)
}

func TestSyncTooManyRequested(t *testing.T) {
	buf := make([]byte, 10+4*(MaxRequested+1))
	buf[0] = TypeLUDPSync
	_, err := DecodeSync(buf)
	require.ErrorIs(t, err, ErrTooMany)
}

func TestSyncShortTrailer(t *testing.T) {
	buf := make([]byte, 12)
	buf[0] = TypeLUDPSync
	_, err := DecodeSync(buf)
	require.ErrorIs(t, err, ErrShort)
}

func TestDataRoundTrip(t *testing.T) {
	d := Data{Seq: 42, Payload: []byte("hello")}
	got, err := DecodeData(d.Encode(), 1024)
	require.NoError(t, err)
	require.Equal(t, d.Seq, got.Seq)
	require.Equal(t, d.Payload, got.Payload)
}

func TestDataRejectsOversize(t *testing.T) {
	d := Data{Seq: 1, Payload: make([]byte, 10)}
	_, err := DecodeData(d.Encode(), 5)
	require.ErrorIs(t, err, ErrLong)
}

func TestDataRejectsShort(t *testing.T) {
	_, err := DecodeData([]byte{TypeLUDPData, 0, 0}, 1024)
	require.ErrorIs(t, err, ErrShort)
}
