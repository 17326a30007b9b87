// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package ludpnet wires the LUDP (ludp) and net-crypto (netcrypto) layers
// together into a Node value owned by the caller, per spec.md §9's design
// note: "a re-architecture should make them an explicit Node value owned
// by the caller, passed into every operation; supports multi-instance
// tests." A Node holds one Socket, one identity keypair, one LUDP table,
// one net-crypto table, and a private Prometheus registry; nothing here is
// a package-level singleton.
package ludpnet

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thejerf/suture/v4"

	"github.com/stqism/ludpnet/config"
	"github.com/stqism/ludpnet/events"
	"github.com/stqism/ludpnet/identity"
	"github.com/stqism/ludpnet/logger"
	"github.com/stqism/ludpnet/ludp"
	"github.com/stqism/ludpnet/metrics"
	"github.com/stqism/ludpnet/netcrypto"
	"github.com/stqism/ludpnet/request"
	"github.com/stqism/ludpnet/transport"
	"github.com/stqism/ludpnet/wire"
)

var l = logger.New("ludpnet")

// Node is one peer's transport+crypto endpoint: the datagram socket, the
// LUDP connection table, the net-crypto session table layered on it, and
// the suture.Supervisor that drives both with a periodic tick and a
// datagram-read loop, the way summaryService/multicastBeacon embed a
// *suture.Supervisor in the teacher.
type Node struct {
	Identity identity.Keypair
	Config   config.Config
	Events   *events.Logger
	Metrics  *metrics.Set
	Registry *prometheus.Registry

	LUDP *ludp.Table
	NCR  *netcrypto.Table

	socket transport.Socket
	sup    *suture.Supervisor

	// OnRequest, if set, is called for every unreliable signed request
	// (spec.md §4.6) this node successfully decrypts. Routing it to a
	// friend-request or DHT-ping application protocol is out of scope
	// (spec.md §1); this is the hand-off point for a caller that owns one.
	OnRequest func(senderPub identity.PublicKey, kind byte, body []byte)
}

// New builds a Node around socket and id, using cfg (config.Default() if
// the caller wants the spec-fixed constants unmodified). Nothing runs
// until Serve is called.
func New(socket transport.Socket, id identity.Keypair, cfg config.Config) *Node {
	reg := prometheus.NewRegistry()
	ms := metrics.NewSet(reg)
	ev := events.NewLogger()

	lt := ludp.NewTable(socket, cfg, ev, ms)
	nt := netcrypto.NewTable(lt, id, cfg, ev, ms)

	n := &Node{
		Identity: id,
		Config:   cfg,
		Events:   ev,
		Metrics:  ms,
		Registry: reg,
		LUDP:     lt,
		NCR:      nt,
		socket:   socket,
	}
	n.sup = suture.New("ludpnet.Node", suture.Spec{
		PassThroughPanics: false,
	})
	n.sup.Add(&tickService{n: n})
	n.sup.Add(&readService{n: n})
	return n
}

// Serve runs the Node's tick and read loops until ctx is cancelled,
// restarting either on panic per suture's default backoff policy. It
// returns ctx.Err() once cancelled.
func (n *Node) Serve(ctx context.Context) error {
	return n.sup.Serve(ctx)
}

// Connect opens a net-crypto session (and the LUDP connection under it) to
// peerPub at addr, spec.md §4.4.
func (n *Node) Connect(peerPub identity.PublicKey, addr transport.Addr) (netcrypto.ID, error) {
	return n.NCR.Connect(peerPub, addr)
}

// Accept returns the next net-crypto session that just reached
// Established from an inbound connection, spec.md §4.4 C9.
func (n *Node) Accept() (netcrypto.ID, bool) {
	return n.NCR.Accept()
}

// Write encrypts and reliably enqueues payload on sid, spec.md §4.5.
func (n *Node) Write(sid netcrypto.ID, payload []byte) error {
	return n.NCR.Write(sid, payload)
}

// Read returns the oldest decrypted application payload queued for sid.
func (n *Node) Read(sid netcrypto.ID) ([]byte, bool) {
	return n.NCR.Read(sid)
}

// SendRequest sends a one-shot unreliable signed request directly on the
// datagram socket, bypassing LUDP and net-crypto entirely, spec.md §4.6.
func (n *Node) SendRequest(kind byte, peerPub identity.PublicKey, addr transport.Addr, body []byte) (bool, error) {
	buf, err := request.Create(kind, peerPub, n.Identity.Public, n.Identity.Secret, body)
	if err != nil {
		return false, err
	}
	return n.socket.Send(addr, buf)
}

// dispatch routes one inbound datagram by its leading byte, spec.md §2:
// LUDP's three wire types (16/17/18) go to the connection table; anything
// else is treated as an unreliable signed request (spec.md §4.6), whose
// "kind" byte IS the packet's first byte (wire.Request.Encode writes Kind
// there, not a fixed discriminator) — net-crypto's own packet types 2 and
// 3 never appear here, since they only ever travel as the payload of a
// LUDP Data packet, already unwrapped by the time netcrypto.Table.Tick
// sees them.
func (n *Node) dispatch(from transport.Addr, buf []byte) {
	if len(buf) == 0 {
		return
	}
	switch buf[0] {
	case wire.TypeLUDPHandshake, wire.TypeLUDPSync, wire.TypeLUDPData:
		n.LUDP.HandlePacket(from, buf)
	default:
		n.Metrics.PacketsByType.WithLabelValues("request").Inc()
		senderPub, body, err := request.Handle(buf, n.Identity.Public, n.Identity.Secret)
		if err != nil {
			n.Metrics.CryptoFailures.Inc()
			l.Debugln("discarding request from", from, ":", err)
			return
		}
		if n.OnRequest != nil {
			n.OnRequest(senderPub, buf[0], body)
		}
	}
}

// tick advances both layers one scheduler step, in the order spec.md §2
// prescribes: NCR first (drain accepted connections, dispatch queued
// handshake/confirm/data packets, notice LUDP timeouts), then LUDP (issue
// due handshake/SYNC/data packets, reap its own timeouts).
func (n *Node) tick(now time.Time) {
	n.NCR.Tick(now)
	n.LUDP.Tick(now)
}
