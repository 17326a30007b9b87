// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package metrics collects the Prometheus instrumentation for a Node:
// active connection/session counts, packets seen by type, retransmit
// volume, crypto failures, and handshake completions. Each Node owns its
// own *prometheus.Registry (never the global DefaultRegisterer), the way
// cmd/infra/ursrv/serve builds a private registry per server instance
// instead of registering onto the process-wide default.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is the collector group for one Node.
type Set struct {
	LUDPConnsActive    prometheus.Gauge
	SessionsActive     prometheus.Gauge
	PacketsByType      *prometheus.CounterVec
	RetransmitsServed  prometheus.Counter
	CryptoFailures     prometheus.Counter
	HandshakesComplete prometheus.Counter
}

// NewSet builds a Set and registers every collector on reg.
func NewSet(reg *prometheus.Registry) *Set {
	s := &Set{
		LUDPConnsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ludpnet",
			Subsystem: "ludp",
			Name:      "connections_active",
			Help:      "LUDP connection table entries with status > 0.",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ludpnet",
			Subsystem: "netcrypto",
			Name:      "sessions_active",
			Help:      "Net-crypto session table entries with status > 0.",
		}),
		PacketsByType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ludpnet",
			Subsystem: "wire",
			Name:      "packets_total",
			Help:      "Datagrams seen, by wire.Type* byte.",
		}, []string{"type"}),
		RetransmitsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ludpnet",
			Subsystem: "ludp",
			Name:      "retransmits_served_total",
			Help:      "Data packets sent to satisfy a peer-requested sequence number.",
		}),
		CryptoFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ludpnet",
			Subsystem: "netcrypto",
			Name:      "crypto_failures_total",
			Help:      "AEAD open failures, handshake or data path.",
		}),
		HandshakesComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ludpnet",
			Subsystem: "netcrypto",
			Name:      "handshakes_complete_total",
			Help:      "Net-crypto sessions that reached status Established.",
		}),
	}
	reg.MustRegister(
		s.LUDPConnsActive,
		s.SessionsActive,
		s.PacketsByType,
		s.RetransmitsServed,
		s.CryptoFailures,
		s.HandshakesComplete,
	)
	return s
}

// Default is a Set registered on a private registry, used by callers
// (mainly tests) that don't want to plumb one through explicitly — the
// same fallback shape events.Default gives the events package.
var Default = NewSet(prometheus.NewRegistry())
