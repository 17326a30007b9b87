// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

func (t *Table) handleData(from transport.Addr, d wire.Data) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.byPeer[from]
	if !ok {
		return
	}
	c := t.conns[id]
	if c.status != StatusEstablished {
		return
	}
	q := uint32(t.cfg.Q)

	windowLen := (c.ackedRead + q - 1) - c.recvHead
	slot := d.Seq % q
	if inWindow(d.Seq, c.recvHead, windowLen) && !c.recv.occupied[slot] {
		payload := make([]byte, len(d.Payload))
		copy(payload, d.Payload)
		c.recv.put(int(slot), payload)
		c.lastRecvData = t.socket.Now()
		if d.Seq-c.peerSent < q {
			c.peerSent = d.Seq
		}
	}

	for c.recv.occupied[c.recvHead%q] {
		c.recvHead++
	}
}
