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
	"math"
	"time"
)

// rng is a cryptographically-seeded source of uniform floats and 24-bit
// transaction ids. Retransmission jitter and transaction ids come from the
// OS CSPRNG, not math/rand: a weak PRNG would break DHCPv6 transaction-id
// unpredictability. crypto/rand is the correct tool for this and is used directly
// rather than through math/rand's Source interface, matching RFC 3315's own
// requirement.
type rng struct{}

func newRNG() *rng { return &rng{} }

// uniform returns a uniformly distributed float64 in [lo, hi).
func (r *rng) uniform(lo, hi float64) float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which is unrecoverable; fall back to the
		// midpoint rather than panic mid-retransmission.
		return (lo + hi) / 2
	}
	// Use the top 53 bits for a uniform double in [0, 1).
	v := binary.BigEndian.Uint64(b[:]) >> 11
	frac := float64(v) / float64(uint64(1)<<53)
	return lo + frac*(hi-lo)
}

// transactionID generates a fresh 24-bit transaction id.
func (r *rng) transactionID() transactionID {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return transactionID(binary.BigEndian.Uint32(b[:])) & transactionIDMask
}

// jitteredDelay returns a duration uniform in [0, max).
func (r *rng) jitteredDelay(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(r.uniform(0, float64(max)))
}

// retransmitTimer computes successive retransmission times per RFC 3315
// section 14:
//
//	RT1 = IRT * (1 + U(-0.1, +0.1))
//	RTn = 2*RT(n-1) + U(-0.1, +0.1)*RT(n-1), clamped to MRT*(1+U(-0.1,+0.1))
//	      when MRT != 0 and RTn would exceed MRT.
type retransmitTimer struct {
	rng *rng
	irt time.Duration
	mrt time.Duration
	rt  time.Duration
	n   int
}

func newRetransmitTimer(r *rng, irt, mrt time.Duration) *retransmitTimer {
	return &retransmitTimer{rng: r, irt: irt, mrt: mrt}
}

// next returns the next retransmission interval, advancing internal state.
func (t *retransmitTimer) next() time.Duration {
	t.n++
	if t.n == 1 {
		t.rt = scaleDuration(t.irt, 1+t.rng.uniform(-0.1, 0.1))
		return t.rt
	}
	candidate := scaleDuration(t.rt, 2+t.rng.uniform(-0.1, 0.1))
	if t.mrt != 0 && candidate > t.mrt {
		candidate = scaleDuration(t.mrt, 1+t.rng.uniform(-0.1, 0.1))
	}
	t.rt = candidate
	return t.rt
}

// scaleDuration returns d*factor.
func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

// clampToDeadline returns d capped at remaining, the time left until the
// deadline; a remaining of zero or less yields 0. Used by Renew/Rebind to ensure the next attempt does
// not overrun T2/expiry.
func clampToDeadline(d time.Duration, remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	if d > remaining {
		return remaining
	}
	return d
}

// elapsedHundredths computes the ELAPSED_TIME option value: zero on the
// first try of a phase, otherwise (now-start)*100 saturating to 0xFFFF.
func elapsedHundredths(try int, start, now time.Time) uint16 {
	if try <= 1 {
		return 0
	}
	elapsed := now.Sub(start).Seconds() * 100
	if elapsed > math.MaxUint16 {
		return math.MaxUint16
	}
	if elapsed < 0 {
		return 0
	}
	return uint16(elapsed)
}
