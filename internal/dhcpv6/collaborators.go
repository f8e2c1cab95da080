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
	"time"
)

// LinkLayerType distinguishes the media a client interface runs on, which
// changes several state-machine behaviors.
type LinkLayerType int

const (
	LinkLayerWired LinkLayerType = iota
	LinkLayerWireless
	LinkLayerCellular
)

// LinkStatus is what Interface.GetLinkStatus reports.
type LinkStatus struct {
	Valid            bool
	Active           bool
	WakeOnSameNetwork bool
}

// InterfaceAddress is one IPv6 address the interface collaborator currently
// reports, with its DAD flags.
type InterfaceAddress struct {
	IP    net.IP
	Flags AddressFlags
}

// Socket is the out-of-scope UDP/multicast transport collaborator.
// Transmit must send packet to AllDHCPRelayAgentsAndServers:ServerPort
// from a socket bound to ClientPort. Errors ENXIO and ENETDOWN must not
// be surfaced as failures; all other errors are logged and ignored by the
// caller, not propagated as state-machine failures.
type Socket interface {
	Transmit(packet []byte) error
	EnableReceive(handler func([]byte)) error
	DisableReceive()
	Interface() Interface
}

// Interface is the out-of-scope link/interface abstraction.
type Interface interface {
	Name() string
	Index() int
	IsWireless() bool
	LinkLayerType() LinkLayerType
	GetLinkStatus() LinkStatus
}

// DUIDKind selects which persistent identifier EstablishAndGet should
// return.
type DUIDKind int

const (
	DUIDKindLLT DUIDKind = iota
	DUIDKindEN
)

// DUIDSource is the out-of-scope DUID/IAID allocator and persistence
// collaborator. EstablishAndGet returns the system-wide persistent DUID;
// CopyRandom returns a private per-interface DUID for clients started
// with privacy_required.
type DUIDSource interface {
	EstablishAndGet(kind DUIDKind) ([]byte, error)
	CopyRandom(iface Interface) ([]byte, error)
	IAID(iface Interface) uint32
}

// KernelAddressAPI is the out-of-scope kernel address-add/remove
// collaborator. Failures are logged but never abort the state machine.
type KernelAddressAPI interface {
	AddAddress(ifname string, addr net.IP, prefixLength int, validLifetime, preferredLifetime time.Duration) error
	RemoveAddress(ifname string, addr net.IP) error
}

// Service is the embedding host: it supplies the SSID (for the same-network
// test) and receives coalesced notifications by way of the callback
// installed through Client.SetNotificationCallback.
type Service interface {
	GetSSID() (ssid string, ok bool)
}
