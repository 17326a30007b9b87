// Copyright (C) 2026 the Contributors. All rights reserved. Use of this
// source code is governed by an MIT-style license that can be found in the
// LICENSE file.

/*
Package wire implements the fixed-layout big-endian binary encodings spec.md
§4 and §6 define. Every wire type here is dispatched by its leading type
byte, the same discriminated-union-over-one-byte idiom
discover/packets.go uses for its own announcement packets:

	 0                   1                   2                   3
	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|  Type (1)     |                                               |
	+-+-+-+-+-+-+-+-+                                               +
	/                       Type-specific body                      /
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

Unlike discover's XDR-encoded, variable-length NodeID fields, every field here
is fixed-width; the only variable-length parts (the Data and CryptoData
payloads, Request's sealed body and Sync's request list) take their length
from the packet's own length, not an on-wire count field. Encoding is done
directly with encoding/binary rather than github.com/calmh/xdr's
padded-string/opaque conventions.
*/
package wire

import (
	"encoding/binary"
	"errors"
)

// Packet type bytes, spec.md §2 and §6.
const (
	TypeLUDPHandshake = 16
	TypeLUDPSync      = 17
	TypeLUDPData      = 18

	TypeRequest         = 1
	TypeCryptoHandshake = 2
	TypeCryptoData      = 3
)

var (
	ErrShort   = errors.New("wire: packet too short")
	ErrLong    = errors.New("wire: packet too long")
	ErrType    = errors.New("wire: unexpected type byte")
	ErrTooMany = errors.New("wire: too many requested sequence numbers")
)

// Handshake is the LUDP handshake packet (type 16), spec.md §4.2.
type Handshake struct {
	IDSender uint32
	IDReply  uint32
}

func (h Handshake) Encode() []byte {
	buf := make([]byte, 9)
	buf[0] = TypeLUDPHandshake
	binary.BigEndian.PutUint32(buf[1:5], h.IDSender)
	binary.BigEndian.PutUint32(buf[5:9], h.IDReply)
	return buf
}

func DecodeHandshake(buf []byte) (Handshake, error) {
	if len(buf) != 9 {
		return Handshake{}, ErrShort
	}
	if buf[0] != TypeLUDPHandshake {
		return Handshake{}, ErrType
	}
	return Handshake{
		IDSender: binary.BigEndian.Uint32(buf[1:5]),
		IDReply:  binary.BigEndian.Uint32(buf[5:9]),
	}, nil
}

// MaxRequested is Q-1, the most requested sequence numbers a Sync packet
// can carry (spec.md §6: "10 + 4·(Q−1)").
const MaxRequested = 15

// Sync is the LUDP SYNC packet (type 17), spec.md §4.3.
type Sync struct {
	Counter    uint8
	RecvCursor uint32
	SentCursor uint32
	Requested  []uint32 // length 0..MaxRequested
}

func (s Sync) Encode() []byte {
	buf := make([]byte, 10+4*len(s.Requested))
	buf[0] = TypeLUDPSync
	buf[1] = s.Counter
	binary.BigEndian.PutUint32(buf[2:6], s.RecvCursor)
	binary.BigEndian.PutUint32(buf[6:10], s.SentCursor)
	for i, seq := range s.Requested {
		binary.BigEndian.PutUint32(buf[10+4*i:14+4*i], seq)
	}
	return buf
}

func DecodeSync(buf []byte) (Sync, error) {
	if len(buf) < 10 {
		return Sync{}, ErrShort
	}
	if buf[0] != TypeLUDPSync {
		return Sync{}, ErrType
	}
	rem := len(buf) - 10
	if rem%4 != 0 {
		return Sync{}, ErrShort
	}
	n := rem / 4
	if n > MaxRequested {
		return Sync{}, ErrTooMany
	}
	s := Sync{
		Counter:    buf[1],
		RecvCursor: binary.BigEndian.Uint32(buf[2:6]),
		SentCursor: binary.BigEndian.Uint32(buf[6:10]),
	}
	if n > 0 {
		s.Requested = make([]uint32, n)
		for i := range s.Requested {
			s.Requested[i] = binary.BigEndian.Uint32(buf[10+4*i : 14+4*i])
		}
	}
	return s, nil
}

// Data is the LUDP data packet (type 18), spec.md §4.3.
type Data struct {
	Seq     uint32
	Payload []byte
}

func (d Data) Encode() []byte {
	buf := make([]byte, 5+len(d.Payload))
	buf[0] = TypeLUDPData
	binary.BigEndian.PutUint32(buf[1:5], d.Seq)
	copy(buf[5:], d.Payload)
	return buf
}

// DecodeData borrows buf's backing array for Payload; callers that retain
// the result past the lifetime of buf must copy it.
func DecodeData(buf []byte, maxDataSize int) (Data, error) {
	if len(buf) < 5 {
		return Data{}, ErrShort
	}
	if buf[0] != TypeLUDPData {
		return Data{}, ErrType
	}
	if len(buf)-5 > maxDataSize {
		return Data{}, ErrLong
	}
	return Data{
		Seq:     binary.BigEndian.Uint32(buf[1:5]),
		Payload: buf[5:],
	}, nil
}
