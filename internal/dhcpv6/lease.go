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

import "time"

// lease is the currently held IA_NA binding.
type lease struct {
	Valid             bool
	Start             time.Time
	T1                time.Duration
	T2                time.Duration
	PreferredLifetime time.Duration // infiniteDuration sentinel for INFINITE
	ValidLifetime     time.Duration
	SSID              string // empty on wired, or the SSID in effect when obtained
}

// infiniteDuration stands in for the RFC 3315 INFINITE (0xFFFFFFFF seconds)
// sentinel once converted to a time.Duration.
const infiniteDuration = time.Duration(infiniteLifetime) * time.Second

// newLeaseFromIANA builds a normalized lease from a freshly saved IA_NA +
// IAADDR, applying RFC 3315's T1/T2 and lifetime normalization steps in
// order.
func newLeaseFromIANA(now time.Time, ia iana, addr iaAddr, ssid string) lease {
	preferred := addr.PreferredLifetime
	valid := addr.ValidLifetime
	t1 := ia.T1
	t2 := ia.T2

	// 1. preferred==0 => preferred = valid.
	if preferred == 0 {
		preferred = valid
	}
	// 2. T1==0 or T2==0: derive from preferred, unless preferred is
	// INFINITE in which case T1=T2=0.
	if t1 == 0 || t2 == 0 {
		if preferred == infiniteLifetime {
			t1, t2 = 0, 0
		} else {
			t1 = uint32(float64(preferred) * 0.5)
			t2 = uint32(float64(preferred) * 0.8)
		}
	}
	// 3. T1==INFINITE or T2==INFINITE: force T1=T2=0 and
	// preferred=valid=INFINITE.
	if t1 == infiniteLifetime || t2 == infiniteLifetime {
		t1, t2 = 0, 0
		preferred, valid = infiniteLifetime, infiniteLifetime
	}
	// 4. valid==INFINITE: T1=T2=0.
	if valid == infiniteLifetime {
		t1, t2 = 0, 0
	}

	return lease{
		Valid:             true,
		Start:             now,
		T1:                durationOrInfinite(t1),
		T2:                durationOrInfinite(t2),
		PreferredLifetime: durationOrInfinite(preferred),
		ValidLifetime:     durationOrInfinite(valid),
		SSID:              ssid,
	}
}

func durationOrInfinite(seconds uint32) time.Duration {
	if seconds == infiniteLifetime {
		return infiniteDuration
	}
	return time.Duration(seconds) * time.Second
}

// stillValid reports whether the lease is valid at time now: the valid
// flag must be set, and either the valid lifetime is INFINITE or now
// falls within [start, start+validLifetime). A clock that appears to have
// gone backwards (now < start) makes the lease invalid.
func (l lease) stillValid(now time.Time) bool {
	if !l.Valid {
		return false
	}
	if l.ValidLifetime == infiniteDuration {
		return true
	}
	if now.Before(l.Start) {
		return false
	}
	return now.Sub(l.Start) < l.ValidLifetime
}

// remaining returns how much of d is left as of now, given the lease
// started at l.Start; negative results are clamped to zero.
func (l lease) remaining(now time.Time, d time.Duration) time.Duration {
	if d == infiniteDuration {
		return infiniteDuration
	}
	left := d - now.Sub(l.Start)
	if left < 0 {
		return 0
	}
	return left
}

// t1Deadline returns the absolute time at which T1 fires.
func (l lease) t1Deadline() time.Time { return l.Start.Add(l.T1) }

// t2Deadline returns the absolute time at which T2 fires.
func (l lease) t2Deadline() time.Time { return l.Start.Add(l.T2) }

// expiryDeadline returns the absolute time at which the valid lifetime
// expires. Callers must check ValidLifetime != infiniteDuration first.
func (l lease) expiryDeadline() time.Time { return l.Start.Add(l.ValidLifetime) }
