// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/wire"
)

func rateLimit(pps uint16) rate.Limit { return rate.Limit(pps) }

// Tick drives every live connection one scheduler step: rate control,
// due handshake/SYNC/Data transmission, liveness timeout, and kill_at
// reaping. spec.md §4.1, §4.2, §4.3, §5.
func (t *Table) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.conns {
		c := t.conns[id]
		if c.status == StatusDead {
			continue
		}

		if !c.killAt.IsZero() && !now.Before(c.killAt) {
			t.killLocked(ID(id), c)
			continue
		}

		t.updateRatesLocked(c, now)

		switch c.status {
		case StatusHandshakeSending:
			t.sendHandshakeIfDue(c, now)
		case StatusHandshakeDone, StatusEstablished:
			t.sendSyncIfDue(c, now)
		}
		if c.status == StatusEstablished {
			t.sendDataIfDue(c, now)
		}

		if c.status != StatusTimedOut && now.Sub(c.lastRecvSync) > c.timeout {
			c.status = StatusTimedOut
			t.events.Log(events.ConnTimedOut, c.peer)
		}
	}
}

func (t *Table) sendHandshakeIfDue(c *Conn, now time.Time) {
	c.syncLimiter.SetLimit(rateLimit(c.syncRate))
	if !c.syncLimiter.AllowN(now, 1) {
		return
	}
	hs := wire.Handshake{IDSender: c.hsIDSelf, IDReply: 0}
	t.socket.Send(c.peer, hs.Encode())
	c.lastSync = now
	t.events.Log(events.HandshakeSent, c.peer)
}

func (t *Table) sendSyncIfDue(c *Conn, now time.Time) {
	c.syncLimiter.SetLimit(rateLimit(c.syncRate))
	if !c.syncLimiter.AllowN(now, 1) {
		return
	}
	sy := t.buildSyncLocked(c)
	t.socket.Send(c.peer, sy.Encode())
	c.lastSync = now
}

func (t *Table) sendDataIfDue(c *Conn, now time.Time) {
	if c.SendQueueLen() == 0 {
		return
	}
	c.dataLimiter.SetLimit(rateLimit(c.dataRate))
	q := uint32(t.cfg.Q)
	for c.dataLimiter.AllowN(now, 1) {
		var seq uint32
		switch {
		case len(c.reqPackets) > 0:
			seq = c.reqPackets[0]
			c.reqPackets = c.reqPackets[1:]
			t.metrics.RetransmitsServed.Inc()
		case c.sent != c.sendbufHead:
			seq = c.sent
			c.sent++
		default:
			return
		}
		payload := c.send.data[seq%q]
		if payload == nil {
			l.Debugln("no send-buffer record for seq", seq, "to", c.peer)
			continue
		}
		d := wire.Data{Seq: seq, Payload: payload}
		t.socket.Send(c.peer, d.Encode())
		c.lastSent = now
	}
}
