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
	"crypto/rand"
	"encoding/binary"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// randXID returns a random 24-bit transaction id, distinct from avoid.
func randXID(avoid transactionID) transactionID {
	var b [4]byte
	for {
		rand.Read(b[:])
		x := transactionID(binary.BigEndian.Uint32(b[:])) & transactionIDMask
		if x != avoid {
			return x
		}
	}
}

// buildAdvertise builds a raw ADVERTISE with the given XID, CLIENTID, and
// SERVERID option values, so the various message-matching property trials
// can independently corrupt each field.
func buildAdvertise(xid transactionID, clientID, serverID []byte) []byte {
	var b builder
	_ = b.header(MessageTypeAdvertise, xid)
	if clientID != nil {
		_ = b.option(OptionClientID, clientID)
	}
	if serverID != nil {
		_ = b.option(OptionServerID, serverID)
	}
	return b.bytes()
}

var _ = Describe("inbound message matching", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness(gT)
		Expect(h.client.Start(true, false)).To(Succeed())
		h.client.onTimerSolicit()
	})

	DescribeTable("a message that fails the matching gate leaves the state machine untouched",
		func(corrupt func(xid transactionID, clientID, serverID []byte) (transactionID, []byte, []byte)) {
			before := h.client.state
			sentBefore := len(h.socket.Sent())

			xid, cid, sid := corrupt(h.client.xid, h.client.duid, testServerID(gT))
			h.socket.deliver(buildAdvertise(xid, cid, sid))

			Expect(h.client.state).To(Equal(before))
			Expect(h.socket.Sent()).To(HaveLen(sentBefore))
		},
		Entry("wrong transaction id", func(xid transactionID, cid, sid []byte) (transactionID, []byte, []byte) {
			return randXID(xid), cid, sid
		}),
		Entry("missing CLIENTID", func(xid transactionID, cid, sid []byte) (transactionID, []byte, []byte) {
			return xid, nil, sid
		}),
		Entry("CLIENTID echoing a different DUID", func(xid transactionID, cid, sid []byte) (transactionID, []byte, []byte) {
			other := append([]byte(nil), cid...)
			other[len(other)-1] ^= 0xFF
			return xid, other, sid
		}),
		Entry("missing SERVERID", func(xid transactionID, cid, sid []byte) (transactionID, []byte, []byte) {
			return xid, cid, nil
		}),
		Entry("SERVERID too short to be a DUID", func(xid transactionID, cid, sid []byte) (transactionID, []byte, []byte) {
			return xid, cid, []byte{0x01}
		}),
	)

	It("rejects many independently-random wrong transaction ids", func() {
		before := h.client.state
		for i := 0; i < 100; i++ {
			h.socket.deliver(buildAdvertise(randXID(h.client.xid), h.client.duid, testServerID(gT)))
			Expect(h.client.state).To(Equal(before))
		}
	})
})

var _ = Describe("RFC 3315 section 14 retransmission timing", func() {
	const trials = 200

	DescribeTable("RT1 is within 10% of IRT",
		func(irt time.Duration) {
			for i := 0; i < trials; i++ {
				rt := newRetransmitTimer(newRNG(), irt, 0)
				got := rt.next()
				Expect(got).To(BeNumerically(">=", scaleDuration(irt, 0.9)))
				Expect(got).To(BeNumerically("<=", scaleDuration(irt, 1.1)))
			}
		},
		Entry("1s IRT", time.Second),
		Entry("3s IRT", 3*time.Second),
	)

	It("doubles each subsequent RT within 10%, over many random trials", func() {
		for i := 0; i < trials; i++ {
			rt := newRetransmitTimer(newRNG(), time.Second, 0)
			prev := rt.next()
			for n := 0; n < 5; n++ {
				got := rt.next()
				Expect(got).To(BeNumerically(">=", scaleDuration(prev, 1.8)))
				Expect(got).To(BeNumerically("<=", scaleDuration(prev, 2.2)))
				prev = got
			}
		}
	})

	It("clamps to within 10% of MRT once MRT is exceeded, over many random trials", func() {
		mrt := 4 * time.Second
		for i := 0; i < trials; i++ {
			rt := newRetransmitTimer(newRNG(), time.Second, mrt)
			for n := 0; n < 20; n++ {
				got := rt.next()
				Expect(got).To(BeNumerically("<=", scaleDuration(mrt, 1.1)))
			}
		}
	})
})

var _ = Describe("SERVERID preference selection across a Solicit to Bound cycle", func() {
	It("keeps the first ADVERTISE's SERVERID when no better one ever arrives", func() {
		h := newHarness(gT)
		Expect(h.client.Start(true, false)).To(Succeed())
		h.client.onTimerSolicit()

		addr := net.ParseIP("2001:db8::5")
		h.deliverAdvertise(gT, 0, addr)
		Expect(h.client.state).To(Equal(StateSolicit), "preference 0 must not act before a second retransmit")

		h.client.onTimerSolicit() // second retransmit interval elapses with no better offer
		Expect(h.client.state).To(Equal(StateRequest))
	})

	It("acts immediately on the first PREFERENCE=255 ADVERTISE seen", func() {
		h := newHarness(gT)
		Expect(h.client.Start(true, false)).To(Succeed())
		h.client.onTimerSolicit()

		h.deliverAdvertise(gT, 255, net.ParseIP("2001:db8::6"))
		Expect(h.client.state).To(Equal(StateRequest))
	})
})

var _ = Describe("GetInfo and saved_verified", func() {
	It("reports no info until a REPLY has been saved and verified", func() {
		h := newHarness(gT)
		_, ok := h.client.GetInfo()
		Expect(ok).To(BeFalse())
	})

	It("reports exactly the most recently saved REPLY once bound", func() {
		h := bindHarness(gT, net.ParseIP("2001:db8::7"))
		info, ok := h.client.GetInfo()
		Expect(ok).To(BeTrue())
		Expect(info.Packet).NotTo(BeEmpty())
	})
})

var _ = Describe("stop/start idempotence", func() {
	It("treats a second Stop as a no-op", func() {
		h := newHarness(gT)
		Expect(h.client.Start(true, false)).To(Succeed())
		h.client.Stop(false)
		Expect(h.client.state).To(Equal(StateInactive))
		h.client.Stop(false) // must not panic or re-run teardown
		Expect(h.client.state).To(Equal(StateInactive))
	})

	It("re-entering Start with a still-valid same-network lease goes to Confirm, not Solicit", func() {
		h := bindHarness(gT, net.ParseIP("2001:db8::8"))
		h.client.Stop(false) // discardInformation=false: lease survives
		Expect(h.client.Start(true, false)).To(Succeed())
		Expect(h.client.state).To(Equal(StateConfirm))
	})
})

var _ = Describe("option encode/decode round trip", func() {
	DescribeTable("encoding then decoding any supported option preserves value bytes exactly",
		func(code OptionCode, value []byte) {
			encoded := encodeOption(code, value)
			opts, err := parseOptions(encoded)
			Expect(err).NotTo(HaveOccurred())
			Expect(opts).To(HaveLen(1))
			Expect(opts[0].Code).To(Equal(code))
			if len(value) == 0 {
				Expect(opts[0].Data).To(BeEmpty())
			} else {
				Expect(opts[0].Data).To(Equal(value))
			}
		},
		Entry("empty value", OptionElapsedTime, []byte{}),
		Entry("short value", OptionPreference, []byte{0x80}),
		Entry("DUID-shaped value", OptionClientID, []byte{0x00, 0x01, 0x00, 0x01, 0xAA, 0xBB}),
		Entry("max uint16 length value", OptionVendorOpts, make([]byte, 65535)),
	)

	It("round-trips many independently-random option payloads", func() {
		for i := 0; i < 100; i++ {
			n := i % 64
			value := make([]byte, n)
			rand.Read(value)
			encoded := encodeOption(OptionVendorOpts, value)
			opts, err := parseOptions(encoded)
			Expect(err).NotTo(HaveOccurred())
			Expect(opts).To(HaveLen(1))
			if n == 0 {
				Expect(opts[0].Data).To(BeEmpty())
			} else {
				Expect(opts[0].Data).To(Equal(value))
			}
		}
	})
})
