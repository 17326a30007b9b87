// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"time"

	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

// counterGapBound is the upper bound spec.md §4.3 places on an accepted
// SYNC counter's (mod 256) advance over the last one we saw.
const counterGapBound = 10

func (t *Table) handleSync(from transport.Addr, sy wire.Sync) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, hasID := t.byPeer[from]
	if !hasID {
		if sy.RecvCursor != t.handshakeIDLocked(from) {
			return
		}
		id = t.newInboundFromSync(from, sy.RecvCursor, sy.SentCursor)
		return
	}

	c := t.conns[id]
	now := t.socket.Now()
	q := uint32(t.cfg.Q)

	switch c.status {
	case StatusHandshakeDone:
		if sy.RecvCursor != c.peerRecv {
			return
		}
		c.recvCounter = sy.Counter
		c.sendCounter++
		c.status = StatusEstablished
		c.syncRate = uint16(t.cfg.DataSyncRate)
		c.lastRecvSync = now
		reply := t.buildSyncLocked(c)
		t.socket.Send(from, reply.Encode())
		c.lastSync = now
		t.events.Log(events.ConnEstablished, from)

	case StatusEstablished:
		if !withinQ(c.peerRecv, sy.RecvCursor, q) {
			return
		}
		if !withinQ(c.peerSent, sy.SentCursor, q) {
			return
		}
		if !counterGapOK(c.recvCounter, sy.Counter, counterGapBound) {
			return
		}
		c.peerRecv = sy.RecvCursor
		c.peerSent = sy.SentCursor
		c.ackedSent = sy.RecvCursor
		c.lastRecvSync = now
		c.recvCounter = sy.Counter
		c.sendCounter++
		c.reqPackets = append(c.reqPackets[:0], sy.Requested...)
	}
}

// buildSyncLocked assembles the SYNC this node would send right now,
// listing holes in [recv_head, peer_sent) and snapping recv_head forward
// when there are none, spec.md §4.3.
func (t *Table) buildSyncLocked(c *Conn) wire.Sync {
	q := uint32(t.cfg.Q)
	length := c.peerSent - c.recvHead
	// peer_sent one or more behind recv_head (the newest record has already
	// been slid past) means the range is empty, not a wrap-sized one.
	behind := length > q-1
	var holes []uint32
	for i := uint32(0); !behind && i < length && len(holes) < wire.MaxRequested; i++ {
		seq := c.recvHead + i
		if !c.recv.occupied[seq%q] {
			holes = append(holes, seq)
		}
	}
	if len(holes) == 0 && !behind {
		c.recvHead = c.peerSent
	}
	return wire.Sync{
		Counter:    c.sendCounter,
		RecvCursor: c.recvHead,
		SentCursor: c.sent,
		Requested:  holes,
	}
}

// updateRatesLocked applies spec.md §4.3's rate-control table. Called once
// per tick, before any packet is sent for this connection.
func (t *Table) updateRatesLocked(c *Conn, now time.Time) {
	switch c.status {
	case StatusHandshakeSending, StatusHandshakeDone:
		c.syncRate = uint16(t.cfg.MaxSyncRate)
	case StatusEstablished:
		if c.SendQueueLen() > 0 {
			numReq := len(c.reqPackets)
			q := t.cfg.Q
			if numReq > q-1 {
				numReq = q - 1
			}
			c.dataRate = uint16((q - 1 - numReq) * t.cfg.MaxSyncRate)
			c.syncRate = uint16(t.cfg.MaxSyncRate)
		} else if now.Sub(c.lastRecvData) <= time.Second {
			c.syncRate = uint16(t.cfg.MaxSyncRate)
		} else {
			c.syncRate = uint16(t.cfg.SyncRate)
		}
	}
}
