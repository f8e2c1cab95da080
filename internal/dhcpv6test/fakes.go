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

// Package dhcpv6test provides in-memory fakes of every dhcpv6 collaborator
// interface (Socket, Interface, DUIDSource, KernelAddressAPI, Service), for
// driving the state machine from tests without a real network stack or
// kernel.
package dhcpv6test

import (
	"net"
	"sync"
	"time"

	"github.com/dhcpv6lab/dhcpv6client/internal/dhcpv6"
)

// FakeInterface is a hand-driven dhcpv6.Interface.
type FakeInterface struct {
	mu         sync.Mutex
	name       string
	index      int
	wireless   bool
	linkLayer  dhcpv6.LinkLayerType
	linkStatus dhcpv6.LinkStatus
}

// NewFakeInterface creates a wired, link-active fake interface.
func NewFakeInterface(name string, index int) *FakeInterface {
	return &FakeInterface{
		name:       name,
		index:      index,
		linkLayer:  dhcpv6.LinkLayerWired,
		linkStatus: dhcpv6.LinkStatus{Valid: true, Active: true},
	}
}

func (f *FakeInterface) Name() string { return f.name }
func (f *FakeInterface) Index() int   { return f.index }

func (f *FakeInterface) IsWireless() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wireless
}

func (f *FakeInterface) LinkLayerType() dhcpv6.LinkLayerType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linkLayer
}

func (f *FakeInterface) GetLinkStatus() dhcpv6.LinkStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.linkStatus
}

// SetWireless marks the fake interface as wireless or cellular for
// wake/same-network test scenarios.
func (f *FakeInterface) SetWireless(layer dhcpv6.LinkLayerType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wireless = layer == dhcpv6.LinkLayerWireless
	f.linkLayer = layer
}

// SetLinkStatus overrides the reported link status.
func (f *FakeInterface) SetLinkStatus(s dhcpv6.LinkStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkStatus = s
}

// FakeSocket is a hand-driven dhcpv6.Socket: Transmit records every
// outbound packet, and Deliver feeds a packet into the installed receive
// handler, simulating an inbound datagram.
type FakeSocket struct {
	mu        sync.Mutex
	iface     dhcpv6.Interface
	handler   func([]byte)
	sent      [][]byte
	nextErr   error
	receiving bool
}

// NewFakeSocket creates a FakeSocket bound to iface.
func NewFakeSocket(iface dhcpv6.Interface) *FakeSocket {
	return &FakeSocket{iface: iface}
}

func (s *FakeSocket) Transmit(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextErr != nil {
		err := s.nextErr
		s.nextErr = nil
		return err
	}
	cp := append([]byte(nil), packet...)
	s.sent = append(s.sent, cp)
	return nil
}

func (s *FakeSocket) EnableReceive(handler func([]byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	s.receiving = true
	return nil
}

func (s *FakeSocket) DisableReceive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	s.receiving = false
}

func (s *FakeSocket) Interface() dhcpv6.Interface { return s.iface }

// Deliver simulates an inbound packet arriving while receive is enabled. It
// is a no-op (matching a real socket silently dropping datagrams nobody is
// listening for) when no handler is currently installed.
func (s *FakeSocket) Deliver(packet []byte) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(packet)
	}
}

// Sent returns every packet transmitted so far, in order.
func (s *FakeSocket) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

// LastSent returns the most recently transmitted packet, or nil.
func (s *FakeSocket) LastSent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

// FailNextTransmit makes the next Transmit call return err.
func (s *FakeSocket) FailNextTransmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextErr = err
}

// IsReceiving reports whether a receive handler is currently installed.
func (s *FakeSocket) IsReceiving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiving
}

// FakeDUIDSource hands out fixed, deterministic DUID bytes instead of
// deriving them from real hardware.
type FakeDUIDSource struct {
	System []byte
	Random []byte
	IAIDVal uint32
}

// NewFakeDUIDSource creates a source with distinct system/private DUIDs.
func NewFakeDUIDSource() *FakeDUIDSource {
	return &FakeDUIDSource{
		System:  []byte{0x00, 0x01, 0x00, 0x01, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Random:  []byte{0x00, 0x03, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
		IAIDVal: 1,
	}
}

func (f *FakeDUIDSource) EstablishAndGet(dhcpv6.DUIDKind) ([]byte, error) {
	return f.System, nil
}

func (f *FakeDUIDSource) CopyRandom(dhcpv6.Interface) ([]byte, error) {
	return f.Random, nil
}

func (f *FakeDUIDSource) IAID(dhcpv6.Interface) uint32 { return f.IAIDVal }

// kernelAddress records one AddAddress call.
type kernelAddress struct {
	addr              net.IP
	prefixLength      int
	validLifetime     time.Duration
	preferredLifetime time.Duration
}

// FakeKernelAddressAPI records every address add/remove in order, and can be
// told to fail the next call of either kind.
type FakeKernelAddressAPI struct {
	mu      sync.Mutex
	added   []kernelAddress
	removed []net.IP
	current map[string]bool
	addErr  error
	remErr  error
}

// NewFakeKernelAddressAPI creates an empty fake kernel address table.
func NewFakeKernelAddressAPI() *FakeKernelAddressAPI {
	return &FakeKernelAddressAPI{current: make(map[string]bool)}
}

func (k *FakeKernelAddressAPI) AddAddress(ifname string, addr net.IP, prefixLength int, validLifetime, preferredLifetime time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.addErr != nil {
		err := k.addErr
		k.addErr = nil
		return err
	}
	k.added = append(k.added, kernelAddress{
		addr:              append(net.IP(nil), addr...),
		prefixLength:      prefixLength,
		validLifetime:     validLifetime,
		preferredLifetime: preferredLifetime,
	})
	k.current[addr.String()] = true
	return nil
}

func (k *FakeKernelAddressAPI) RemoveAddress(ifname string, addr net.IP) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.remErr != nil {
		err := k.remErr
		k.remErr = nil
		return err
	}
	k.removed = append(k.removed, append(net.IP(nil), addr...))
	delete(k.current, addr.String())
	return nil
}

// HasAddress reports whether addr is currently installed.
func (k *FakeKernelAddressAPI) HasAddress(addr net.IP) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current[addr.String()]
}

// AddedCount returns how many AddAddress calls have succeeded.
func (k *FakeKernelAddressAPI) AddedCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.added)
}

// FailNextAdd makes the next AddAddress call return err.
func (k *FakeKernelAddressAPI) FailNextAdd(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.addErr = err
}

// FailNextRemove makes the next RemoveAddress call return err.
func (k *FakeKernelAddressAPI) FailNextRemove(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.remErr = err
}

// FakeService supplies a settable SSID for same-network/wake tests.
type FakeService struct {
	mu   sync.Mutex
	ssid string
	ok   bool
}

// NewFakeService creates a service reporting no SSID (wired-equivalent).
func NewFakeService() *FakeService {
	return &FakeService{}
}

func (s *FakeService) GetSSID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ssid, s.ok
}

// SetSSID installs the SSID reported by subsequent GetSSID calls.
func (s *FakeService) SetSSID(ssid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssid = ssid
	s.ok = true
}

// ClearSSID makes GetSSID report ok=false.
func (s *FakeService) ClearSSID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssid = ""
	s.ok = false
}
