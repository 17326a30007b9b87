// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludp

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stqism/ludpnet/config"
	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/logger"
	"github.com/stqism/ludpnet/metrics"
	"github.com/stqism/ludpnet/transport"
)

var l = logger.New("ludp")

// ErrAlreadyDead is returned by Kill on a connection that is not live —
// spec.md §8's testable property that kill is idempotent and the second
// call reports failure.
var ErrAlreadyDead = errors.New("ludp: connection already dead")

// ID indexes a Table's connection slice. It stays stable for the entry's
// lifetime, the same growable-array-with-stable-indices contract cid.Map
// gives discover.go's device cache.
type ID int

// Table is the LUDP connection table (C3): a growable slice of *Conn plus a
// live-peer index, and the six-cell-per-address handshake-ID mixing table
// spec.md §4.2 describes.
type Table struct {
	mu      sync.Mutex
	cfg     config.Config
	socket  transport.Socket
	events  *events.Logger
	metrics *metrics.Set

	conns  []*Conn
	byPeer map[transport.Addr]ID

	hsTable  [6][256]uint32
	hsSeeded [6][256]bool

	pendingAccept []ID
}

func NewTable(socket transport.Socket, cfg config.Config, ev *events.Logger, ms *metrics.Set) *Table {
	if ev == nil {
		ev = events.Default
	}
	if ms == nil {
		ms = metrics.Default
	}
	return &Table{
		cfg:     cfg,
		socket:  socket,
		events:  ev,
		metrics: ms,
		byPeer:  make(map[transport.Addr]ID),
	}
}

func addrBytes(a transport.Addr) [6]byte {
	var b [6]byte
	copy(b[:4], a.IP[:])
	b[4] = byte(a.Port >> 8)
	b[5] = byte(a.Port)
	return b
}

// handshakeID is the deterministic, per-table, per-address id spec.md §4.2
// derives by XORing six lazily-seeded random words together. Never zero.
func (t *Table) handshakeID(peer transport.Addr) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handshakeIDLocked(peer)
}

func (t *Table) handshakeIDLocked(peer transport.Addr) uint32 {
	bytes := addrBytes(peer)
	var id uint32
	for i, b := range bytes {
		if !t.hsSeeded[i][b] {
			t.hsTable[i][b] = randNonzeroWord()
			t.hsSeeded[i][b] = true
		}
		id ^= t.hsTable[i][b]
	}
	if id == 0 {
		id = 1
	}
	return id
}

// changeHandshake re-keys one of the six cells contributing to peer's id,
// invalidating any cached value — spec.md §4.1's required re-key on kill.
func (t *Table) changeHandshake(peer transport.Addr) {
	bytes := addrBytes(peer)
	i := rand.IntN(6)
	t.hsTable[i][bytes[i]] = randNonzeroWord()
	t.hsSeeded[i][bytes[i]] = true
}

func randNonzeroWord() uint32 {
	for {
		if v := rand.Uint32(); v != 0 {
			return v
		}
	}
}

// alloc finds a dead slot to reuse or appends a fresh one.
func (t *Table) alloc() ID {
	for i, c := range t.conns {
		if c.status == StatusDead {
			return ID(i)
		}
	}
	t.conns = append(t.conns, &Conn{})
	return ID(len(t.conns) - 1)
}

func (t *Table) newLimiters(c *Conn) {
	q := t.cfg.Q
	c.syncLimiter = rate.NewLimiter(rate.Limit(t.cfg.MaxSyncRate), q-1)
	c.dataLimiter = rate.NewLimiter(rate.Limit(t.cfg.MaxSyncRate), q-1)
}

// NewOutbound returns the live connection id for peer, creating one in
// status 1 (handshake sending) if none exists yet. spec.md §4.2.
func (t *Table) NewOutbound(peer transport.Addr) ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.byPeer[peer]; ok {
		return id
	}

	id := t.alloc()
	now := t.socket.Now()
	c := &Conn{
		peer:    peer,
		inbound: Outbound,
		status:  StatusHandshakeSending,
		send:    newRing(t.cfg.Q),
		recv:    newRing(t.cfg.Q),
		timeout: randomTimeout(t.cfg.MinTimeout, t.cfg.MaxTimeout),
	}
	c.hsIDSelf = t.handshakeIDLocked(peer)
	c.sent, c.sendbufHead, c.ackedSent = c.hsIDSelf, c.hsIDSelf, c.hsIDSelf
	c.syncRate = uint16(t.cfg.MaxSyncRate)
	c.lastRecvSync = now
	t.newLimiters(c)
	t.conns[id] = c
	t.byPeer[peer] = id
	t.metrics.LUDPConnsActive.Inc()
	return id
}

func randomTimeout(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// newInboundFromSync bootstraps a table entry the first time a peer's SYNC
// arrives for a handshake this node only replied to statelessly — spec.md
// §4.2 "Inbound side-entry via SYNC". Caller holds t.mu.
func (t *Table) newInboundFromSync(peer transport.Addr, hsIDSelf, hsIDPeer uint32) ID {
	id := t.alloc()
	now := t.socket.Now()
	c := &Conn{
		peer:    peer,
		inbound: InboundPendingAccept,
		status:  StatusHandshakeDone,
		send:    newRing(t.cfg.Q),
		recv:    newRing(t.cfg.Q),
		timeout: randomTimeout(t.cfg.MinTimeout, t.cfg.MaxTimeout),
	}
	c.hsIDSelf = hsIDSelf
	c.hsIDPeer = hsIDPeer
	c.sent, c.sendbufHead, c.ackedSent = hsIDSelf, hsIDSelf, hsIDSelf
	c.recvHead, c.ackedRead, c.peerSent = hsIDPeer, hsIDPeer, hsIDPeer
	c.peerRecv = hsIDSelf
	c.syncRate = uint16(t.cfg.MaxSyncRate)
	c.lastRecvSync = now
	t.newLimiters(c)
	t.conns[id] = c
	t.byPeer[peer] = id
	t.pendingAccept = append(t.pendingAccept, id)
	t.metrics.LUDPConnsActive.Inc()
	t.events.Log(events.IncomingConnection, peer)
	return id
}

// PopIncoming returns the next LUDP connection NCR hasn't drained yet
// (spec.md §4.4's incoming_connection()), or ok=false if none is pending.
func (t *Table) PopIncoming() (id ID, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.pendingAccept) > 0 {
		id, t.pendingAccept = t.pendingAccept[0], t.pendingAccept[1:]
		c := t.conns[id]
		if c.status == StatusDead || c.inbound != InboundPendingAccept {
			continue
		}
		c.inbound = InboundDelivered
		return id, true
	}
	return 0, false
}

func (t *Table) GetID(peer transport.Addr) (ID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byPeer[peer]
	return id, ok
}

func (t *Table) conn(id ID) *Conn {
	if int(id) < 0 || int(id) >= len(t.conns) {
		return nil
	}
	return t.conns[id]
}

func (t *Table) Status(id ID) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.conn(id); c != nil {
		return c.status
	}
	return StatusDead
}

func (t *Table) Peer(id ID) (transport.Addr, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.conn(id)
	if c == nil || c.status == StatusDead {
		return transport.Addr{}, false
	}
	return c.peer, true
}

// Kill destroys a live connection immediately and re-keys its handshake-id
// cell, spec.md §4.1. Killing an already-dead id reports ErrAlreadyDead.
func (t *Table) Kill(id ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.conn(id)
	if c == nil || c.status == StatusDead {
		return ErrAlreadyDead
	}
	t.killLocked(id, c)
	return nil
}

func (t *Table) killLocked(id ID, c *Conn) {
	l.Debugln("killing connection", id, "to", c.peer, "status", c.status)
	delete(t.byPeer, c.peer)
	t.changeHandshake(c.peer)
	t.conns[id] = &Conn{}
	t.trimTailLocked()
	t.metrics.LUDPConnsActive.Dec()
	t.events.Log(events.ConnKilled, c.peer)
}

func (t *Table) trimTailLocked() {
	for len(t.conns) > 0 && t.conns[len(t.conns)-1].status == StatusDead {
		t.conns = t.conns[:len(t.conns)-1]
	}
}

// KillIn schedules id for destruction d after now, spec.md §4.1
// kill_connection_in — used by NCR with a long delay once the crypto
// session is confirmed (§4.4). It does not change the liveness timeout
// Tick applies.
func (t *Table) KillIn(id ID, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.conn(id); c != nil && c.status != StatusDead {
		c.killAt = t.socket.Now().Add(d)
	}
}

// Write enqueues payload for transmission, spec.md §3/§4.3. ok is false if
// id is not a live connection, the send window is full, or payload is out
// of bounds. Records written before the connection reaches status 3 stay
// queued and are sent once it does.
func (t *Table) Write(id ID, payload []byte) (ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.conn(id)
	if c == nil || c.status == StatusDead {
		return false
	}
	if len(payload) < 1 || len(payload) > t.cfg.MaxDataSize {
		return false
	}
	if c.sendbufHead-c.ackedSent >= uint32(t.cfg.Q-1) {
		return false
	}
	slot := int(c.sendbufHead) % t.cfg.Q
	c.send.put(slot, payload)
	c.sendbufHead++
	return true
}

// SendQueueLen reports how many written sequence numbers the peer has not
// yet acknowledged, spec.md §3's send_queue_len.
func (t *Table) SendQueueLen(id ID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.conn(id); c != nil {
		return c.SendQueueLen()
	}
	return 0
}

// RecvQueueLen reports how many contiguous delivered records are queued for
// Read, spec.md §3's recv_queue_len.
func (t *Table) RecvQueueLen(id ID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.conn(id); c != nil {
		return c.RecvQueueLen()
	}
	return 0
}

// Read removes and returns the oldest contiguous delivered record, if any.
func (t *Table) Read(id ID) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.conn(id)
	if c == nil || c.recvHead-c.ackedRead == 0 {
		return nil, false
	}
	slot := int(c.ackedRead) % t.cfg.Q
	data := c.recv.data[slot]
	c.recv.clear(slot)
	c.ackedRead++
	return data, true
}
