// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

package transport

import (
	"net"
	"time"

	"github.com/stqism/ludpnet/logger"
)

var l = logger.New("transport")

type inbound struct {
	from Addr
	data []byte
}

// UDP adapts a real net.UDPConn to the Socket interface. Reads happen on a
// background goroutine that feeds a bounded channel, the same
// genericReader-over-a-channel shape beacon/beacon.go uses for its own UDP
// listener, so a slow consumer drops newest datagrams instead of blocking
// the kernel socket's receive queue.
type UDP struct {
	conn   *net.UDPConn
	inbox  chan inbound
	closed chan struct{}
}

// ListenUDP binds addr (e.g. "0.0.0.0:33445") and starts the reader.
func ListenUDP(addr string) (*UDP, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, err
	}
	u := &UDP{
		conn:   conn,
		inbox:  make(chan inbound, 256),
		closed: make(chan struct{}),
	}
	go u.readLoop()
	return u, nil
}

func (u *UDP) readLoop() {
	buf := make([]byte, 65536)
	for {
		n, from, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-u.closed:
				return
			default:
				l.Warnln("read:", err)
				return
			}
		}
		cp := make([]byte, n)
		copy(cp, buf[:n])
		select {
		case u.inbox <- inbound{AddrFromUDP(from), cp}:
		default:
			l.Debugln("dropping datagram, inbox full")
		}
	}
}

func (u *UDP) Send(to Addr, data []byte) (bool, error) {
	_, err := u.conn.WriteToUDP(data, to.UDPAddr())
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (u *UDP) Recv() (Addr, []byte, bool) {
	select {
	case m := <-u.inbox:
		return m.from, m.data, true
	default:
		return Addr{}, nil, false
	}
}

func (u *UDP) Now() time.Time { return time.Now() }

func (u *UDP) Close() error {
	close(u.closed)
	return u.conn.Close()
}
