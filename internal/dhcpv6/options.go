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
	"encoding/binary"
	"net"
)

// option is one decoded TLV: 2-byte code, 2-byte length, length bytes of
// value, all big-endian.
type option struct {
	Code OptionCode
	Data []byte
}

// options is the decoded option stream of a message, or of an IA_NA's
// nested options.
type options []option

// get returns the data of the first option with the given code.
func (o options) get(code OptionCode) ([]byte, bool) {
	for _, opt := range o {
		if opt.Code == code {
			return opt.Data, true
		}
	}
	return nil, false
}

// getAll returns the data of every option with the given code, in order.
func (o options) getAll(code OptionCode) [][]byte {
	var out [][]byte
	for _, opt := range o {
		if opt.Code == code {
			out = append(out, opt.Data)
		}
	}
	return out
}

// parseOptions decodes a back-to-back TLV stream. An option whose declared
// length spills past the end of buf is a parse error;
// the caller is expected to drop the enclosing message rather than trust a
// partial parse.
func parseOptions(buf []byte) (options, error) {
	var out options
	i := 0
	for i < len(buf) {
		if i+4 > len(buf) {
			return nil, errWireShortHeader
		}
		code := OptionCode(binary.BigEndian.Uint16(buf[i : i+2]))
		length := int(binary.BigEndian.Uint16(buf[i+2 : i+4]))
		i += 4
		if i+length > len(buf) {
			return nil, errWireOptionOverrun
		}
		out = append(out, option{Code: code, Data: buf[i : i+length]})
		i += length
	}
	return out, nil
}

// encodeOption returns the TLV encoding of one option.
func encodeOption(code OptionCode, value []byte) []byte {
	buf := make([]byte, 4+len(value))
	binary.BigEndian.PutUint16(buf[0:2], uint16(code))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(value)))
	copy(buf[4:], value)
	return buf
}

// --- IA_NA --------------------------------------------------------------

// iana is a parsed IA_NA option: identity association id, T1/T2, and its
// nested options.
type iana struct {
	IAID    uint32
	T1      uint32
	T2      uint32
	Nested  options
}

// parseIANA decodes an IA_NA option value. A truncated value is reported as
// "absent" (ok=false), never as an error.
func parseIANA(data []byte) (iana, bool) {
	if len(data) < 12 {
		return iana{}, false
	}
	nested, err := parseOptions(data[12:])
	if err != nil {
		return iana{}, false
	}
	return iana{
		IAID:   binary.BigEndian.Uint32(data[0:4]),
		T1:     binary.BigEndian.Uint32(data[4:8]),
		T2:     binary.BigEndian.Uint32(data[8:12]),
		Nested: nested,
	}, true
}

func encodeIANA(iaid, t1, t2 uint32, nested []byte) []byte {
	buf := make([]byte, 12+len(nested))
	binary.BigEndian.PutUint32(buf[0:4], iaid)
	binary.BigEndian.PutUint32(buf[4:8], t1)
	binary.BigEndian.PutUint32(buf[8:12], t2)
	copy(buf[12:], nested)
	return buf
}

// --- IAADDR ---------------------------------------------------------------

// iaAddr is a parsed IAADDR option.
type iaAddr struct {
	Address           net.IP
	PreferredLifetime uint32
	ValidLifetime     uint32
	Nested            options
}

func parseIAAddr(data []byte) (iaAddr, bool) {
	if len(data) < 24 {
		return iaAddr{}, false
	}
	nested, err := parseOptions(data[24:])
	if err != nil {
		return iaAddr{}, false
	}
	addr := make(net.IP, 16)
	copy(addr, data[0:16])
	return iaAddr{
		Address:           addr,
		PreferredLifetime: binary.BigEndian.Uint32(data[16:20]),
		ValidLifetime:     binary.BigEndian.Uint32(data[20:24]),
		Nested:            nested,
	}, true
}

func encodeIAAddr(addr net.IP, preferred, valid uint32, nested []byte) []byte {
	buf := make([]byte, 24+len(nested))
	copy(buf[0:16], addr.To16())
	binary.BigEndian.PutUint32(buf[16:20], preferred)
	binary.BigEndian.PutUint32(buf[20:24], valid)
	copy(buf[24:], nested)
	return buf
}

// --- STATUS_CODE ------------------------------------------------------

// decodeStatusCode decodes a STATUS_CODE option's 2-byte code prefix. A value too
// short to hold the code is treated as StatusSuccess: absence of an
// explicit status never fabricates an error where none was signalled.
func decodeStatusCode(data []byte) (StatusCode, string) {
	if len(data) < 2 {
		return StatusSuccess, ""
	}
	return StatusCode(binary.BigEndian.Uint16(data[0:2])), string(data[2:])
}

func encodeStatusCode(code StatusCode, message string) []byte {
	buf := make([]byte, 2+len(message))
	binary.BigEndian.PutUint16(buf[0:2], uint16(code))
	copy(buf[2:], message)
	return buf
}

// --- ORO ------------------------------------------------------------------

func encodeORO(codes []OptionCode) []byte {
	buf := make([]byte, 2*len(codes))
	for i, c := range codes {
		binary.BigEndian.PutUint16(buf[2*i:2*i+2], uint16(c))
	}
	return buf
}

func decodeORO(data []byte) []OptionCode {
	n := len(data) / 2
	out := make([]OptionCode, n)
	for i := 0; i < n; i++ {
		out[i] = OptionCode(binary.BigEndian.Uint16(data[2*i : 2*i+2]))
	}
	return out
}

// --- ELAPSED_TIME -----------------------------------------------------

func encodeElapsedTime(hundredths uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, hundredths)
	return buf
}

// --- DNS_SERVERS / DOMAIN_LIST / CAPTIVE_PORTAL_URL --------------------

func decodeDNSServers(data []byte) []net.IP {
	n := len(data) / 16
	out := make([]net.IP, 0, n)
	for i := 0; i < n; i++ {
		addr := make(net.IP, 16)
		copy(addr, data[16*i:16*i+16])
		out = append(out, addr)
	}
	return out
}

// decodeDomainList decodes the DNS-style compressed label sequence used by
// OPTION_DOMAIN_LIST (RFC 3646 section 4 points at RFC 1035 section 3.1
// encoding, without compression pointers). A malformed label sequence yields
// whatever complete domains were decoded before the error, never an error
// itself, following this package's drop-rather-than-fail stance on
// malformed option payload content.
func decodeDomainList(data []byte) []string {
	var domains []string
	i := 0
	for i < len(data) {
		var labels []string
		for {
			if i >= len(data) {
				return domains
			}
			length := int(data[i])
			i++
			if length == 0 {
				break
			}
			if i+length > len(data) {
				return domains
			}
			labels = append(labels, string(data[i:i+length]))
			i += length
		}
		if len(labels) > 0 {
			domains = append(domains, joinLabels(labels))
		}
	}
	return domains
}

func joinLabels(labels []string) string {
	out := labels[0]
	for _, l := range labels[1:] {
		out += "." + l
	}
	return out
}

func encodeDomainList(domains []string) []byte {
	var buf []byte
	for _, d := range domains {
		for _, label := range splitDomain(d) {
			buf = append(buf, byte(len(label)))
			buf = append(buf, label...)
		}
		buf = append(buf, 0)
	}
	return buf
}

func splitDomain(d string) []string {
	var labels []string
	start := 0
	for i := 0; i < len(d); i++ {
		if d[i] == '.' {
			labels = append(labels, d[start:i])
			start = i + 1
		}
	}
	if start < len(d) {
		labels = append(labels, d[start:])
	}
	return labels
}

func decodeCaptivePortalURL(data []byte) string {
	return string(data)
}

// --- option admissibility ------------------------

// defaultRequestedOptions is the static default ORO content: the union is
// this set plus whatever the embedding service installs via
// Client.SetRequestedOptions.
var defaultRequestedOptions = []OptionCode{
	OptionDNSServers,
	OptionDomainList,
	OptionCaptivePortalURL,
}

// alwaysAllowedClientOptions is the set of options a DHCPv6 client is always
// permitted to see or send, independent of what was requested.
var alwaysAllowedClientOptions = map[OptionCode]bool{
	OptionClientID:     true,
	OptionServerID:     true,
	OptionORO:          true,
	OptionElapsedTime:  true,
	OptionUnicast:      true,
	OptionRapidCommit:  true,
	OptionIANA:         true,
	OptionIAAddr:       true,
	OptionStatusCode:   true,
	OptionIATA:         true,
	OptionPreference:   true,
	OptionRelayMsg:     true,
	OptionAuth:         true,
	OptionUserClass:    true,
	OptionVendorClass:  true,
	OptionVendorOpts:   true,
	OptionInterfaceID:  true,
	OptionReconfMsg:    true,
	OptionReconfAccept: true,
}

// dhcpv6ClientOptionIsOK reports whether code is always allowed for a
// DHCPv6 client, or is in the currently configured requested-options set.
func dhcpv6ClientOptionIsOK(code OptionCode, requested []OptionCode) bool {
	if alwaysAllowedClientOptions[code] {
		return true
	}
	for _, r := range requested {
		if r == code {
			return true
		}
	}
	return false
}

// mergedRequestedOptions returns the union of defaultRequestedOptions and an
// override list installed by the embedding service, de-duplicated and in a
// stable order (defaults first).
func mergedRequestedOptions(override []OptionCode) []OptionCode {
	seen := make(map[OptionCode]bool, len(defaultRequestedOptions)+len(override))
	var out []OptionCode
	for _, c := range defaultRequestedOptions {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range override {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
