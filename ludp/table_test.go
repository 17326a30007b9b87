// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"encoding/binary"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/stqism/ludpnet/config"
	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/metrics"
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

func newTestTable(socket transport.Socket, cfg config.Config) *Table {
	return NewTable(socket, cfg, events.NewLogger(), metrics.NewSet(prometheus.NewRegistry()))
}

func TestHandshakeIDDeterministicAndStable(t *testing.T) {
	m := transport.NewMedium()
	sock := m.NewSocket(transport.Addr{Port: 1})
	tbl := newTestTable(sock, config.Default())
	peer := transport.Addr{Port: 2}

	id1 := tbl.handshakeID(peer)
	id2 := tbl.handshakeID(peer)
	require.NotZero(t, id1)
	require.Equal(t, id1, id2)

	tbl.changeHandshake(peer)
	id3 := tbl.handshakeID(peer)
	require.NotEqual(t, id1, id3)
}

func TestNewOutboundReusesExistingEntry(t *testing.T) {
	m := transport.NewMedium()
	sock := m.NewSocket(transport.Addr{Port: 1})
	tbl := newTestTable(sock, config.Default())
	peer := transport.Addr{Port: 2}

	id1 := tbl.NewOutbound(peer)
	id2 := tbl.NewOutbound(peer)
	require.Equal(t, id1, id2)
	require.Equal(t, StatusHandshakeSending, tbl.Status(id1))
}

func TestNewOutboundReallocatesDeadSlot(t *testing.T) {
	m := transport.NewMedium()
	sock := m.NewSocket(transport.Addr{Port: 1})
	tbl := newTestTable(sock, config.Default())
	peerA := transport.Addr{Port: 2}
	peerB := transport.Addr{Port: 3}

	idA := tbl.NewOutbound(peerA)
	require.NoError(t, tbl.Kill(idA))

	idB := tbl.NewOutbound(peerB)
	require.Equal(t, idA, idB, "dead slot should be reused rather than growing the table")
}

func TestKillIsIdempotent(t *testing.T) {
	m := transport.NewMedium()
	sock := m.NewSocket(transport.Addr{Port: 1})
	tbl := newTestTable(sock, config.Default())
	peer := transport.Addr{Port: 2}

	id := tbl.NewOutbound(peer)
	require.NoError(t, tbl.Kill(id))
	require.ErrorIs(t, tbl.Kill(id), ErrAlreadyDead)
}

// establishPair drives two Tables over a shared Medium until both
// connections reach status 3, spec.md §8 scenario 1 ("both sides reach
// status 3 within 10 ticks at a 50ms tick rate with zero drops").
func establishPair(t *testing.T, m *transport.Medium, cfg config.Config) (a *Table, aSock *transport.Loopback, aID ID, b *Table, bSock *transport.Loopback, bID ID) {
	t.Helper()
	addrA := transport.Addr{Port: 10}
	addrB := transport.Addr{Port: 20}
	aSock = m.NewSocket(addrA)
	bSock = m.NewSocket(addrB)
	a = newTestTable(aSock, cfg)
	b = newTestTable(bSock, cfg)

	aID = a.NewOutbound(addrB)

	var bFound bool
	for i := 0; i < 10; i++ {
		m.Advance(cfg.TickInterval)
		now := m.Now()
		a.Tick(now)
		b.Tick(now)
		drain(aSock, a)
		drain(bSock, b)

		if id, ok := b.GetID(addrA); ok {
			bID, bFound = id, true
		}
		if bFound && a.Status(aID) == StatusEstablished && b.Status(bID) == StatusEstablished {
			return
		}
	}
	t.Fatalf("connection never reached established: a=%v b=%v", a.Status(aID), b.Status(bID))
	return
}

func drain(sock *transport.Loopback, tbl *Table) {
	for {
		from, buf, ok := sock.Recv()
		if !ok {
			return
		}
		tbl.HandlePacket(from, buf)
	}
}

func TestEstablishReachesStatusEstablishedBothSides(t *testing.T) {
	m := transport.NewMedium()
	cfg := config.Default()
	cfg.TickInterval = 50 * time.Millisecond
	a, _, aID, b, _, bID := establishPair(t, m, cfg)

	require.Equal(t, StatusEstablished, a.Status(aID))
	require.Equal(t, StatusEstablished, b.Status(bID))
}

// TestWriteBackpressure is spec.md §8 scenario 4: with a window of Q-1 the
// 16th write (Q=16) is refused until the peer's SYNC frees a slot.
func TestWriteBackpressure(t *testing.T) {
	m := transport.NewMedium()
	cfg := config.Default()
	cfg.TickInterval = 50 * time.Millisecond
	a, aSock, aID, b, bSock, bID := establishPair(t, m, cfg)
	_ = bID

	for i := 0; i < cfg.Q-1; i++ {
		require.True(t, a.Write(aID, []byte{byte(i)}), "write %d should fit the window", i)
	}
	require.False(t, a.Write(aID, []byte("overflow")), "write beyond Q-1 outstanding must be refused")

	// Drive enough ticks for the data to reach b, b's SYNC to ack it, and
	// that SYNC to reach a and free a window slot.
	for i := 0; i < 20; i++ {
		m.Advance(cfg.TickInterval)
		now := m.Now()
		a.Tick(now)
		b.Tick(now)
		drain(aSock, a)
		drain(bSock, b)
		if a.SendQueueLen(aID) < cfg.Q-1 {
			break
		}
	}
	require.Less(t, a.SendQueueLen(aID), cfg.Q-1, "peer ack should have freed a window slot")
	require.True(t, a.Write(aID, []byte("fits now")))
}

// dropDataOnly drops data packets (type 18) with probability rate and never
// touches handshake/SYNC traffic, spec.md §8 scenario 3: "20% uniform packet
// drop injected on data packets only".
func dropDataOnly(rate float64) func(from, to transport.Addr, data []byte) bool {
	return func(_, _ transport.Addr, data []byte) bool {
		if len(data) == 0 || data[0] != wire.TypeLUDPData {
			return false
		}
		return rand.Float64() < rate
	}
}

// TestLossRecoveryDeliversFullOrderedStream is spec.md §8 scenario 3: with
// 20% uniform drop on data packets only, a 1000-packet unidirectional
// stream is delivered fully and in order via selective retransmission.
func TestLossRecoveryDeliversFullOrderedStream(t *testing.T) {
	const streamLen = 1000

	m := transport.NewMedium()
	cfg := config.Default()
	cfg.TickInterval = 50 * time.Millisecond
	a, aSock, aID, b, bSock, bID := establishPair(t, m, cfg)
	_ = bID

	m.Drop = dropDataOnly(0.2)

	next := 0
	received := make([]uint32, 0, streamLen)

	const maxTicks = 20000
	for i := 0; i < maxTicks && len(received) < streamLen; i++ {
		for next < streamLen && a.SendQueueLen(aID) < cfg.Q-1 {
			payload := make([]byte, 4)
			binary.BigEndian.PutUint32(payload, uint32(next))
			if !a.Write(aID, payload) {
				break
			}
			next++
		}

		m.Advance(cfg.TickInterval)
		now := m.Now()
		a.Tick(now)
		b.Tick(now)
		drain(aSock, a)
		drain(bSock, b)

		for {
			data, ok := b.Read(bID)
			if !ok {
				break
			}
			received = append(received, binary.BigEndian.Uint32(data))
		}
	}

	require.Len(t, received, streamLen, "every packet must eventually be delivered despite loss")
	for i, v := range received {
		require.Equal(t, uint32(i), v, "packets must be delivered in order")
	}
}
