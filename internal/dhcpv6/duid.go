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
	"fmt"
	"net"
	"sync"

	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/insomniacslk/dhcp/iana"
)

// SystemDUIDSource is the concrete DUIDSource collaborator. It builds a
// &dhcpv6.DUIDLL{HWType: iana.HWTypeEthernet, LinkLayerAddr: ...} from the
// interface's hardware address. The wire codec in this package (message.go,
// options.go) is hand-rolled; only the DUID value type and its byte
// serialization are borrowed from insomniacslk/dhcp, since the DUID/IAID
// allocator and persistence is an external collaborator that still needs
// *some* concrete representation.
type SystemDUIDSource struct {
	mu       sync.Mutex
	systemID []byte // cached system-wide DUID-LL
}

// NewSystemDUIDSource creates a DUIDSource with no cached system DUID; the
// first EstablishAndGet call derives and caches one.
func NewSystemDUIDSource() *SystemDUIDSource {
	return &SystemDUIDSource{}
}

// EstablishAndGet returns the system-wide persistent DUID, deriving and
// caching a DUID-LL on first use. Real persistence (surviving process
// restarts) belongs to the embedding service; this in-process cache matches
// the scope of the collaborator contract.
func (s *SystemDUIDSource) EstablishAndGet(kind DUIDKind) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.systemID != nil {
		return s.systemID, nil
	}
	hw, err := anyHardwareAddr()
	if err != nil {
		return nil, fmt.Errorf("dhcpv6: establish system DUID: %w", err)
	}
	d := &dhcpv6.DUIDLL{
		HWType:        iana.HWTypeEthernet,
		LinkLayerAddr: hw,
	}
	s.systemID = d.ToBytes()
	return s.systemID, nil
}

// CopyRandom returns a private per-interface DUID-LL derived from a
// randomized link-layer address, used when the client is started with
// privacy_required.
func (s *SystemDUIDSource) CopyRandom(iface Interface) ([]byte, error) {
	var hw net.HardwareAddr = make(net.HardwareAddr, 6)
	if _, err := rand.Read(hw); err != nil {
		return nil, fmt.Errorf("dhcpv6: generate private DUID: %w", err)
	}
	hw[0] |= 0x02 // locally-administered bit
	d := &dhcpv6.DUIDLL{
		HWType:        iana.HWTypeEthernet,
		LinkLayerAddr: hw,
	}
	return d.ToBytes(), nil
}

// IAID derives a 32-bit identity association id from the interface's link
// index.
func (s *SystemDUIDSource) IAID(iface Interface) uint32 {
	idx := uint32(iface.Index())
	return idx
}

// anyHardwareAddr picks a stable hardware address to seed the system DUID
// from, preferring the first interface with a non-empty MAC, matching the
// common real-world DUID-LL derivation strategy (any persistent NIC
// address, not necessarily the client interface's own).
func anyHardwareAddr() (net.HardwareAddr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, ifi := range ifaces {
		if len(ifi.HardwareAddr) == 6 {
			return ifi.HardwareAddr, nil
		}
	}
	return nil, fmt.Errorf("no interface with a hardware address found")
}

// duidFromBytes decodes a previously established or cached DUID for
// logging/equality purposes.
func duidFromBytes(b []byte) (dhcpv6.DUID, error) {
	return dhcpv6.DUIDFromBytes(b)
}
