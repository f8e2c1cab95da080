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

// savedPacket is the most recently received REPLY or chosen ADVERTISE,
// together with views over its decoded options. Rather than retaining raw
// pointers into the backing buffer, the sub-views here are plain copies
// re-derived at save time: they go out of scope together with the
// savedPacket value itself, so there is nothing to dangle.
type savedPacket struct {
	msg      *message
	serverID []byte
	ia       iana
	haveIA   bool
	addr     iaAddr
	haveAddr bool
	status   StatusCode
	haveTopLevelStatus bool
}

// newSavedPacket extracts the views this package needs (server-id, IA_NA,
// IAADDR) out of a decoded message. A message with no SERVERID yields a
// nil serverID; the caller is responsible for matching rules before ever
// reaching this point.
func newSavedPacket(msg *message) *savedPacket {
	sp := &savedPacket{msg: msg}
	if sid, ok := msg.Opts.get(OptionServerID); ok {
		sp.serverID = append([]byte(nil), sid...)
	}
	if sc, ok := msg.Opts.get(OptionStatusCode); ok {
		sp.status, _ = decodeStatusCode(sc)
		sp.haveTopLevelStatus = true
	} else {
		sp.status = StatusSuccess
	}
	if iaData, ok := msg.Opts.get(OptionIANA); ok {
		if ia, ok := parseIANA(iaData); ok {
			sp.ia = ia
			sp.haveIA = true
			if addrData, ok := ia.Nested.get(OptionIAAddr); ok {
				if addr, ok := parseIAAddr(addrData); ok {
					sp.addr = addr
					sp.haveAddr = true
				}
			}
		}
	}
	return sp
}

// iaStatus returns the STATUS_CODE nested inside the IA_NA, if present,
// defaulting to StatusSuccess.
func (sp *savedPacket) iaStatus() StatusCode {
	if !sp.haveIA {
		return StatusSuccess
	}
	if sc, ok := sp.ia.Nested.get(OptionStatusCode); ok {
		code, _ := decodeStatusCode(sc)
		return code
	}
	return StatusSuccess
}

// usableIAAddr reports whether the saved packet contains an IA_NA with a
// usable IAADDR: present, with a nonzero valid lifetime, and preferred
// lifetime not exceeding valid lifetime. An IAADDR failing either lifetime
// check is treated the same as an absent one.
func (sp *savedPacket) usableIAAddr() bool {
	if !sp.haveIA || !sp.haveAddr {
		return false
	}
	return sp.addr.ValidLifetime != 0 && sp.addr.PreferredLifetime <= sp.addr.ValidLifetime
}

// preference returns the PREFERENCE option value, default 0.
func (sp *savedPacket) preference() uint8 {
	if p, ok := sp.msg.Opts.get(OptionPreference); ok && len(p) >= 1 {
		return p[0]
	}
	return 0
}
