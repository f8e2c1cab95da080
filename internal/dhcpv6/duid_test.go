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
	"bytes"
	"testing"

	duidwire "github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/insomniacslk/dhcp/iana"
)

func TestSystemDUIDSourceCopyRandomProducesDistinctDUIDs(t *testing.T) {
	s := NewSystemDUIDSource()
	a, err := s.CopyRandom(nil)
	if err != nil {
		t.Fatalf("CopyRandom: %v", err)
	}
	b, err := s.CopyRandom(nil)
	if err != nil {
		t.Fatalf("CopyRandom: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Errorf("two CopyRandom calls returned identical DUIDs, want distinct")
	}

	d, err := duidFromBytes(a)
	if err != nil {
		t.Fatalf("duidFromBytes: %v", err)
	}
	ll, ok := d.(*duidwire.DUIDLL)
	if !ok {
		t.Fatalf("CopyRandom DUID type = %T, want *DUIDLL", d)
	}
	if ll.HWType != iana.HWTypeEthernet {
		t.Errorf("CopyRandom DUID HWType = %v, want HWTypeEthernet", ll.HWType)
	}
}

func TestSystemDUIDSourceIAIDFromInterfaceIndex(t *testing.T) {
	s := NewSystemDUIDSource()
	iface := &fakeIfaceForDUID{index: 7}
	if got := s.IAID(iface); got != 7 {
		t.Errorf("IAID = %d, want 7", got)
	}
}

func TestSystemDUIDSourceEstablishAndGetCaches(t *testing.T) {
	s := NewSystemDUIDSource()
	first, err := s.EstablishAndGet(DUIDKindLLT)
	if err != nil {
		t.Skipf("no hardware address available in this environment: %v", err)
	}
	second, err := s.EstablishAndGet(DUIDKindLLT)
	if err != nil {
		t.Fatalf("EstablishAndGet (cached): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("EstablishAndGet did not cache: got two different DUIDs")
	}
}

// fakeIfaceForDUID is a minimal Interface implementation sufficient for
// SystemDUIDSource.IAID, which only calls Index().
type fakeIfaceForDUID struct{ index int }

func (f *fakeIfaceForDUID) Name() string                  { return "fake0" }
func (f *fakeIfaceForDUID) Index() int                     { return f.index }
func (f *fakeIfaceForDUID) IsWireless() bool               { return false }
func (f *fakeIfaceForDUID) LinkLayerType() LinkLayerType   { return LinkLayerWired }
func (f *fakeIfaceForDUID) GetLinkStatus() LinkStatus      { return LinkStatus{Valid: true, Active: true} }
