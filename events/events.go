// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

// Package events provides subscription and polling over the connection and
// session lifecycle transitions LUDP and NCR go through, the same
// bitmask-filtered pub/sub used for syncthing's own state-change reporting,
// specialized here to the one piece of data every transition in this module
// actually carries: the peer address the connection or session belongs to.
package events

import (
	"errors"
	"sync"
	"time"

	"github.com/stqism/ludpnet/logger"
	"github.com/stqism/ludpnet/transport"
)

var l = logger.New("events")

type EventType uint64

const (
	HandshakeSent EventType = 1 << iota
	ConnEstablished
	ConnTimedOut
	ConnKilled
	IncomingConnection
	SessionHandshakeSent
	SessionEstablished
	SessionTimedOut
	SessionKilled

	AllEvents = ^EventType(0)
)

func (t EventType) String() string {
	switch t {
	case HandshakeSent:
		return "HandshakeSent"
	case ConnEstablished:
		return "ConnEstablished"
	case ConnTimedOut:
		return "ConnTimedOut"
	case ConnKilled:
		return "ConnKilled"
	case IncomingConnection:
		return "IncomingConnection"
	case SessionHandshakeSent:
		return "SessionHandshakeSent"
	case SessionEstablished:
		return "SessionEstablished"
	case SessionTimedOut:
		return "SessionTimedOut"
	case SessionKilled:
		return "SessionKilled"
	default:
		return "Unknown"
	}
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

const BufferSize = 64

type Logger struct {
	subs   map[int]*Subscription
	nextID int
	mutex  sync.Mutex
}

// Event is one logged lifecycle transition. Peer identifies the LUDP
// connection or net-crypto session the transition belongs to — every
// call site in ludp and netcrypto has one, so unlike the teacher's
// generic Data interface{} bag this field is concretely typed.
type Event struct {
	ID   int
	Time time.Time
	Type EventType
	Peer transport.Addr
}

// Subscription is a single consumer's filtered view of a Logger's stream,
// optionally narrowed to one peer so a caller tracking one connection isn't
// woken for every other peer's traffic.
type Subscription struct {
	mask    EventType
	peer    transport.Addr
	anyPeer bool
	id      int
	events  chan Event
	mutex   sync.Mutex
}

var Default = NewLogger()

var (
	ErrTimeout = errors.New("timeout")
	ErrClosed  = errors.New("closed")
)

func NewLogger() *Logger {
	return &Logger{
		subs: make(map[int]*Subscription),
	}
}

// Log fans out a lifecycle transition for peer to every subscription whose
// mask includes t and whose peer filter (if any) matches.
func (l2 *Logger) Log(t EventType, peer transport.Addr) {
	l2.mutex.Lock()
	l.Debugln("log", l2.nextID, t.String(), peer)
	e := Event{
		ID:   l2.nextID,
		Time: time.Now(),
		Type: t,
		Peer: peer,
	}
	l2.nextID++
	for _, s := range l2.subs {
		if s.mask&t == 0 {
			continue
		}
		if !s.anyPeer && s.peer != peer {
			continue
		}
		select {
		case s.events <- e:
		default:
			l.Debugln("dropping event", e.ID, t.String())
		}
	}
	l2.mutex.Unlock()
}

// Subscribe returns a subscription delivering every event matching mask,
// from any peer.
func (l2 *Logger) Subscribe(mask EventType) *Subscription {
	return l2.subscribe(mask, transport.Addr{}, true)
}

// SubscribePeer returns a subscription delivering only mask-matching events
// for peer — the filter a caller tracking one connection's lifecycle wants,
// rather than the whole node's traffic.
func (l2 *Logger) SubscribePeer(mask EventType, peer transport.Addr) *Subscription {
	return l2.subscribe(mask, peer, false)
}

func (l2 *Logger) subscribe(mask EventType, peer transport.Addr, anyPeer bool) *Subscription {
	l2.mutex.Lock()
	s := &Subscription{
		mask:    mask,
		peer:    peer,
		anyPeer: anyPeer,
		id:      l2.nextID,
		events:  make(chan Event, BufferSize),
	}
	l2.nextID++
	l2.subs[s.id] = s
	l2.mutex.Unlock()
	return s
}

func (l2 *Logger) Unsubscribe(s *Subscription) {
	l2.mutex.Lock()
	delete(l2.subs, s.id)
	close(s.events)
	l2.mutex.Unlock()
}

func (s *Subscription) Poll(timeout time.Duration) (Event, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	to := time.After(timeout)
	select {
	case e, ok := <-s.events:
		if !ok {
			return e, ErrClosed
		}
		return e, nil
	case <-to:
		return Event{}, ErrTimeout
	}
}
