// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

// HandlePacket dispatches an inbound LUDP datagram by its type byte,
// spec.md §6.
func (t *Table) HandlePacket(from transport.Addr, buf []byte) {
	if len(buf) == 0 {
		return
	}
	switch buf[0] {
	case wire.TypeLUDPHandshake:
		t.metrics.PacketsByType.WithLabelValues("handshake").Inc()
		if hs, err := wire.DecodeHandshake(buf); err == nil {
			t.handleHandshake(from, hs)
		}
	case wire.TypeLUDPSync:
		t.metrics.PacketsByType.WithLabelValues("sync").Inc()
		if sy, err := wire.DecodeSync(buf); err == nil {
			t.handleSync(from, sy)
		}
	case wire.TypeLUDPData:
		t.metrics.PacketsByType.WithLabelValues("data").Inc()
		if d, err := wire.DecodeData(buf, t.cfg.MaxDataSize); err == nil {
			t.handleData(from, d)
		}
	}
}

func (t *Table) handleHandshake(from transport.Addr, hs wire.Handshake) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, hasID := t.byPeer[from]
	status := StatusDead
	if hasID {
		status = t.conns[id].status
	}

	if hs.IDReply == 0 {
		if status < StatusEstablished {
			reply := wire.Handshake{IDSender: t.handshakeIDLocked(from), IDReply: hs.IDSender}
			t.socket.Send(from, reply.Encode())
		}
		return
	}

	if !hasID || status != StatusHandshakeSending {
		return
	}
	c := t.conns[id]
	if hs.IDReply != c.hsIDSelf {
		return
	}

	c.hsIDPeer = hs.IDSender
	c.peerRecv = hs.IDReply
	c.peerSent = hs.IDSender
	c.recvHead = hs.IDSender
	c.ackedRead = hs.IDSender
	c.status = StatusHandshakeDone
	c.lastRecvSync = t.socket.Now()
}
