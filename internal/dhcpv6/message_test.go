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

import "testing"

func TestDecodeMessageRoundTrip(t *testing.T) {
	var b builder
	if err := b.header(MessageTypeReply, 0x123456); err != nil {
		t.Fatalf("header: %v", err)
	}
	if err := b.option(OptionClientID, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("option: %v", err)
	}

	msg, err := decodeMessage(b.bytes())
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if msg.Type != MessageTypeReply {
		t.Errorf("Type = %v, want MessageTypeReply", msg.Type)
	}
	if msg.XID != 0x123456 {
		t.Errorf("XID = %#x, want 0x123456", msg.XID)
	}
	if data, ok := msg.Opts.get(OptionClientID); !ok || string(data) != "\xAA\xBB" {
		t.Errorf("OptionClientID = %v, %v", data, ok)
	}
}

func TestDecodeMessageTooShort(t *testing.T) {
	if _, err := decodeMessage([]byte{0x01, 0x02}); err != errWireShortHeader {
		t.Errorf("decodeMessage(short) = %v, want errWireShortHeader", err)
	}
}

func TestTransactionIDMasksTo24Bits(t *testing.T) {
	var b builder
	if err := b.header(MessageTypeSolicit, 0xFF123456); err != nil {
		t.Fatalf("header: %v", err)
	}
	msg, err := decodeMessage(b.bytes())
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if msg.XID != 0x123456 {
		t.Errorf("XID = %#x, want masked 0x123456", msg.XID)
	}
}

func TestBuilderRefusesOverflow(t *testing.T) {
	var b builder
	big := make([]byte, maxPacketSize+1)
	if err := b.write(big); err == nil {
		t.Fatalf("write(maxPacketSize+1 bytes): expected error, got nil")
	}
}
