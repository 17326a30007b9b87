// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package ludp implements the lossless-UDP connection layer: C3 (the
// connection table), C4 (handshake), and C5 (the reliable transfer engine)
// of spec.md §3-§4.3.
package ludp

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/stqism/ludpnet/transport"
)

// Status is a LUDP connection's lifecycle stage, spec.md §3.
type Status int

const (
	StatusDead            Status = iota // slot unused, reusable by alloc
	StatusHandshakeSending               // 1: outbound handshake in flight
	StatusHandshakeDone                  // 2: handshake reply seen, awaiting first SYNC
	StatusEstablished                    // 3: data flowing
	StatusTimedOut                       // 4: liveness timeout fired, awaiting reap
)

// Inbound records whether NCR has drained this connection out of the
// incoming-connection queue yet (spec.md §4.4, C9). Outbound connections are
// never queued; they move straight to the crypto handshake.
type Inbound int

const (
	Outbound Inbound = iota
	InboundPendingAccept
	InboundDelivered
)

// ring is a Q-slot circular buffer of variable-length records. Occupancy is
// tracked separately from length so a valid zero-length record (never
// produced by Write, which requires len>=1, but received Data payloads are
// bounded only by <=MaxDataSize) is never confused with an empty slot.
type ring struct {
	data     [][]byte
	occupied []bool
}

func newRing(q int) ring {
	return ring{data: make([][]byte, q), occupied: make([]bool, q)}
}

func (r *ring) put(slot int, payload []byte) {
	r.data[slot] = payload
	r.occupied[slot] = true
}

func (r *ring) clear(slot int) {
	r.data[slot] = nil
	r.occupied[slot] = false
}

// Conn is one LUDP connection table entry, spec.md §3's full attribute list.
type Conn struct {
	peer    transport.Addr
	status  Status
	inbound Inbound

	hsIDSelf uint32
	hsIDPeer uint32

	// Send side: sendbufHead is the next free sequence number to fill via
	// Write; sent is the next sequence number not yet transmitted at all;
	// ackedSent is the oldest sequence number the peer has not yet
	// confirmed (the floor of Write's send window).
	sent        uint32
	sendbufHead uint32
	ackedSent   uint32
	send        ring

	// Recv side: recvHead is the contiguous-delivered boundary; ackedRead
	// is the oldest record not yet handed to Read.
	recvHead  uint32
	ackedRead uint32
	recv      ring

	// Peer's reported recv and sent cursors, learned from Handshake/Sync.
	peerRecv uint32
	peerSent uint32

	recvCounter uint8 // last SYNC counter accepted from peer
	sendCounter uint8 // counter stamped on our next outgoing SYNC

	reqPackets []uint32 // sequence numbers the peer most recently requested

	syncRate uint16
	dataRate uint16

	lastSync     time.Time
	lastSent     time.Time
	lastRecvSync time.Time
	lastRecvData time.Time

	timeout time.Duration
	killAt  time.Time // zero means unscheduled

	syncLimiter *rate.Limiter
	dataLimiter *rate.Limiter
}

// SendQueueLen is the number of sequence numbers written but not yet
// confirmed by the peer (spec.md §3 "send_queue_len").
func (c *Conn) SendQueueLen() int { return int(c.sendbufHead - c.ackedSent) }

// RecvQueueLen is the number of contiguous delivered records not yet read.
func (c *Conn) RecvQueueLen() int { return int(c.recvHead - c.ackedRead) }

func (c *Conn) Status() Status            { return c.status }
func (c *Conn) Peer() transport.Addr      { return c.peer }
func (c *Conn) Inbound() Inbound          { return c.inbound }
