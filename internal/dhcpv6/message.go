/*
Copyright 2026 The dhcpv6client Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dhcpv6

import (
	"net"
)

// transactionID is the 24-bit value DHCPv6 client messages carry and that
// replies must echo.
type transactionID uint32

const transactionIDMask transactionID = 0x00FFFFFF

func mustParseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic("dhcpv6: invalid literal IP: " + s)
	}
	return ip
}

// message is a decoded DHCPv6 packet: 1-byte type, 3-byte transaction id,
// then an option stream.
type message struct {
	Type   MessageType
	XID    transactionID
	Opts   options
	raw    []byte // the exact bytes this message was decoded from
}

// decodeMessage parses a received UDP payload. Any malformed option stream
// is a wire error; the caller drops the packet.
func decodeMessage(data []byte) (*message, error) {
	if len(data) < 4 {
		return nil, errWireShortHeader
	}
	xid := transactionID(data[1])<<16 | transactionID(data[2])<<8 | transactionID(data[3])
	opts, err := parseOptions(data[4:])
	if err != nil {
		return nil, err
	}
	return &message{
		Type: MessageType(data[0]),
		XID:  xid & transactionIDMask,
		Opts: opts,
		raw:  append([]byte(nil), data...),
	}, nil
}

// builder constructs an outbound message into a fixed 1500-byte scratch
// buffer, writing sequentially and refusing to exceed capacity.
type builder struct {
	buf [maxPacketSize]byte
	n   int
}

var errBuilderFull = &wireError{reason: "outbound packet would exceed 1500-byte scratch buffer"}

func (b *builder) reset() { b.n = 0 }

func (b *builder) write(p []byte) error {
	if b.n+len(p) > len(b.buf) {
		return errBuilderFull
	}
	copy(b.buf[b.n:], p)
	b.n += len(p)
	return nil
}

func (b *builder) bytes() []byte { return b.buf[:b.n] }

// header writes the 4-byte message header.
func (b *builder) header(t MessageType, xid transactionID) error {
	xid &= transactionIDMask
	return b.write([]byte{
		byte(t),
		byte(xid >> 16),
		byte(xid >> 8),
		byte(xid),
	})
}

// option appends one TLV-encoded option.
func (b *builder) option(code OptionCode, value []byte) error {
	return b.write(encodeOption(code, value))
}
