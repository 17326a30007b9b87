// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package ludpnet

import (
	"context"
	"fmt"
	"time"
)

// tickService drives Node.tick at Config.TickInterval, the scheduler
// spec.md §5 says the protocol self-paces around ("recommended >= 20 Hz").
type tickService struct {
	n *Node
}

func (s *tickService) String() string { return fmt.Sprintf("ludpnet.tickService@%p", s.n) }

func (s *tickService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.n.Config.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.n.tick(now)
		}
	}
}

// readService drains the Node's Socket and dispatches every datagram,
// spec.md §5: Recv never blocks, so this loop polls it and backs off
// briefly when nothing is queued, rather than spinning the CPU.
type readService struct {
	n *Node
}

func (s *readService) String() string { return fmt.Sprintf("ludpnet.readService@%p", s.n) }

func (s *readService) Serve(ctx context.Context) error {
	const idleBackoff = time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		from, buf, ok := s.n.socket.Recv()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleBackoff):
			}
			continue
		}
		s.n.dispatch(from, buf)
	}
}
