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

	"github.com/go-logr/logr"
)

// Mode is the client's top-level acquisition mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModeStateless
	ModeStateful
)

// State is one of the twelve automaton states of the client state machine.
type State int

const (
	StateInactive State = iota
	StateSolicit
	StateRequest
	StateBound
	StateRenew
	StateRebind
	StateConfirm
	StateRelease
	StateUnbound
	StateDecline
	StateInform
	StateInformComplete
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateSolicit:
		return "Solicit"
	case StateRequest:
		return "Request"
	case StateBound:
		return "Bound"
	case StateRenew:
		return "Renew"
	case StateRebind:
		return "Rebind"
	case StateConfirm:
		return "Confirm"
	case StateRelease:
		return "Release"
	case StateUnbound:
		return "Unbound"
	case StateDecline:
		return "Decline"
	case StateInform:
		return "Inform"
	case StateInformComplete:
		return "InformComplete"
	default:
		return "Unknown"
	}
}

// EventKind enumerates the external interface/service events
// Client.HandleEvent accepts.
type EventKind int

const (
	EventLinkStatusChanged EventKind = iota
	EventAddressesChanged
	EventWake
	EventBSSIDChanged
	EventRenew
)

// WakeEvent is the data delivered with EventWake.
type WakeEvent struct {
	LinkStatus     LinkStatus
	NetworkChanged bool
	BSSIDChanged   bool
}

// Info is what GetInfo returns: the raw bytes of the most recently saved
// packet, its option list, and the subset of named options (DNS servers,
// domain search list, captive portal URL) decoded for direct consumption.
type Info struct {
	Packet           []byte
	Options          []OptionOut
	DNSServers       []net.IP
	DomainSearchList []string
	CaptivePortalURL string
}

// OptionOut is one decoded option exposed through GetInfo, independent of
// this package's internal option representation.
type OptionOut struct {
	Code OptionCode
	Data []byte
}

// Client is the per-interface DHCPv6 client state machine. One Client is
// created per interface and runs until Released.
type Client struct {
	service    Service
	socket     Socket
	iface      Interface
	duidSource DUIDSource
	kernelAPI  KernelAddressAPI
	sched      *Scheduler
	rng        *rng
	log        logr.Logger

	mode  Mode
	state State

	xid transactionID
	try int
	rt  *retransmitTimer

	startTime time.Time // absolute start of the current phase

	saved         *savedPacket
	savedVerified bool

	assignedAddr      net.IP
	assignedPrefixLen int // 0 == unspecified/none

	lse lease

	privacyRequired bool
	cachedDUID      []byte // only meaningful when privacyRequired
	duid            []byte

	iaid uint32

	requestedOptionsOverride []OptionCode

	nextRenewTime time.Time // absolute time the pending T1/T2 timer targets

	cancelTimer CancelFunc
	notify      *notifier
	onSymptom   symptomCallback

	// solicitBest is the best ADVERTISE seen so far in the current Solicit
	// phase.
	solicitBest           *savedPacket
	solicitBestPreference uint8

	// addressTentative is set while Bound is waiting for DAD to clear on a
	// freshly committed address.
	addressTentative bool

	// declinedAddr is the address being torn down by the current Decline
	// phase.
	declinedAddr net.IP

	// wakeSkewSecs overrides the default wake-skew window used by wake
	// handling's reschedule-vs-renew-now decision;
	// zero means "use the default".
	wakeSkewSecs time.Duration

	// symptomAtTry overrides generateSymptomAtTry; zero means "use the
	// default".
	symptomAtTry int

	discardInformation bool
}

// NewClient creates a Client bound to service for the given socket,
// interface, DUID/IAID source and kernel address API. It starts in ModeIdle/
// StateInactive.
func NewClient(service Service, socket Socket, iface Interface, duidSource DUIDSource, kernelAPI KernelAddressAPI, log logr.Logger) *Client {
	sched := NewScheduler()
	c := &Client{
		service:    service,
		socket:     socket,
		iface:      iface,
		duidSource: duidSource,
		kernelAPI:  kernelAPI,
		sched:      sched,
		rng:        newRNG(),
		log:        withDefaultLogger(log),
		mode:       ModeIdle,
		state:      StateInactive,
	}
	c.notify = newNotifier(sched)
	return c
}

// SetRequestedOptions installs an override list of additionally-requested
// options; the ORO sent on the wire is the union with the static default
// option set.
func (c *Client) SetRequestedOptions(codes []OptionCode) {
	c.requestedOptionsOverride = append([]OptionCode(nil), codes...)
}

// SetWakeSkew overrides the wake-handling skew window; d<=0 restores the default.
func (c *Client) SetWakeSkew(d time.Duration) {
	c.wakeSkewSecs = d
}

// SetSymptomTryThreshold overrides the Solicit try count at which a
// diagnostic symptom is raised; n<=0
// restores the default.
func (c *Client) SetSymptomTryThreshold(n int) {
	c.symptomAtTry = n
}

// symptomThreshold returns the effective symptom-at-try threshold.
func (c *Client) symptomThreshold() int {
	if c.symptomAtTry <= 0 {
		return generateSymptomAtTry
	}
	return c.symptomAtTry
}

// SetNotificationCallback installs the coalesced-change callback and,
// separately, the synchronous diagnostic-symptom callback.
func (c *Client) SetNotificationCallback(onChange func(), onSymptom func()) {
	c.notify.setCallback(onChange)
	c.onSymptom = onSymptom
}

// Start begins acquisition. allocateAddress selects Stateful (Solicit, or
// Confirm if a still-valid same-network lease survives a previous run);
// false selects Stateless (Inform). Calling Start again in the same mode
// with a still-valid same-network lease re-enters Confirm rather than
// restarting Solicit.
func (c *Client) Start(allocateAddress, privacyRequired bool) error {
	c.privacyRequired = privacyRequired
	if allocateAddress {
		if c.lse.stillValid(c.sched.Now()) && c.sameNetwork() {
			c.mode = ModeStateful
			c.transitionTo(StateConfirm)
			return nil
		}
		c.mode = ModeStateful
		return c.establishDUID()
	}
	c.mode = ModeStateless
	return c.establishDUIDAndTransition(StateInform)
}

func (c *Client) establishDUID() error {
	if err := c.loadDUID(); err != nil {
		return err
	}
	c.transitionTo(StateSolicit)
	return nil
}

func (c *Client) establishDUIDAndTransition(s State) error {
	if err := c.loadDUID(); err != nil {
		return err
	}
	c.transitionTo(s)
	return nil
}

func (c *Client) loadDUID() error {
	if c.duid != nil {
		return nil
	}
	if c.privacyRequired {
		if c.cachedDUID == nil {
			id, err := c.duidSource.CopyRandom(c.iface)
			if err != nil {
				return wrapLocal("copy_random duid", err)
			}
			c.cachedDUID = id
		}
		c.duid = c.cachedDUID
	} else {
		id, err := c.duidSource.EstablishAndGet(DUIDKindLLT)
		if err != nil {
			return wrapLocal("establish_and_get duid", err)
		}
		c.duid = id
	}
	c.iaid = c.duidSource.IAID(c.iface)
	return nil
}

// Stop leaves Inactive. Calling Stop twice is a no-op. discardInformation,
// when true, means a subsequent Start should not attempt Confirm even if
// the lease would otherwise still be valid.
func (c *Client) Stop(discardInformation bool) {
	if c.state == StateInactive && c.mode == ModeIdle {
		return
	}
	c.discardInformation = discardInformation
	if discardInformation {
		c.lse = lease{}
	}
	c.enterInactive()
	c.mode = ModeIdle
}

// Release performs a best-effort teardown: a released client with a
// still-valid lease first sends a RELEASE, synchronously, before becoming
// Inactive.
func (c *Client) Release() {
	if c.mode == ModeStateful && c.lse.stillValid(c.sched.Now()) && c.assignedAddr != nil {
		c.transitionTo(StateRelease)
	}
	c.enterInactive()
	c.mode = ModeIdle
}

// HandleEvent delivers an external interface/service event. It is a no-op
// when mode != Stateful.
func (c *Client) HandleEvent(kind EventKind, data any) {
	if c.mode != ModeStateful {
		return
	}
	switch kind {
	case EventLinkStatusChanged:
		status, _ := data.(LinkStatus)
		c.handleLinkStatusChanged(status)
	case EventAddressesChanged:
		addrs, _ := data.([]InterfaceAddress)
		c.handleAddressesChanged(addrs)
	case EventWake:
		w, _ := data.(WakeEvent)
		c.handleWake(w)
	case EventBSSIDChanged:
		c.handleBSSIDChanged()
	case EventRenew:
		if c.state == StateBound {
			c.transitionTo(StateRenew)
		}
	}
}

// GetInfo returns the most recently saved REPLY's bytes and parsed options,
// iff saved_verified. DNSServers and DomainSearchList are accumulated
// across every occurrence of their option in the packet: a server that
// (non-conformantly) repeats one of these options still yields a single
// merged list rather than losing all but the last occurrence.
func (c *Client) GetInfo() (Info, bool) {
	if !c.savedVerified || c.saved == nil {
		return Info{}, false
	}
	out := make([]OptionOut, 0, len(c.saved.msg.Opts))
	for _, o := range c.saved.msg.Opts {
		out = append(out, OptionOut{Code: o.Code, Data: append([]byte(nil), o.Data...)})
	}
	info := Info{Packet: append([]byte(nil), c.saved.msg.raw...), Options: out}
	for _, raw := range c.saved.msg.Opts.getAll(OptionDNSServers) {
		info.DNSServers = append(info.DNSServers, decodeDNSServers(raw)...)
	}
	for _, raw := range c.saved.msg.Opts.getAll(OptionDomainList) {
		info.DomainSearchList = append(info.DomainSearchList, decodeDomainList(raw)...)
	}
	if raw, ok := c.saved.msg.Opts.get(OptionCaptivePortalURL); ok {
		info.CaptivePortalURL = decodeCaptivePortalURL(raw)
	}
	return info, true
}

// CopyAddresses returns zero or one assigned address with its prefix
// length.
func (c *Client) CopyAddresses() (net.IP, int, bool) {
	if c.assignedAddr == nil {
		return nil, 0, false
	}
	return c.assignedAddr, c.assignedPrefixLen, true
}

// --- state-entry discipline ------

// transitionTo performs the common entry discipline: cancel the
// outstanding timer and receive handler, set state, reset try, generate a
// new transaction id, install the new state's receive handler, and call
// its onEnter hook, which may fall through directly into onTimer.
func (c *Client) transitionTo(s State) {
	from := c.state
	c.cancelPendingTimer()
	c.socket.DisableReceive()
	c.state = s
	c.try = 0
	c.xid = c.rng.transactionID()
	c.rt = nil
	c.log.Info("state transition", "from", from.String(), "to", s.String())
	c.installReceiveHandler()
	c.onEnter(s)
}

func (c *Client) enterInactive() {
	c.cancelPendingTimer()
	c.socket.DisableReceive()
	c.notify.cancelPending()
	if c.state != StateInactive {
		c.log.Info("state transition", "from", c.state.String(), "to", StateInactive.String())
	}
	c.state = StateInactive
	c.try = 0
}

func (c *Client) cancelPendingTimer() {
	if c.cancelTimer != nil {
		c.cancelTimer()
		c.cancelTimer = nil
	}
}

// scheduleTimer arms the single outstanding timer, superseding any
// previous one.
func (c *Client) scheduleTimer(d time.Duration, f func()) {
	c.cancelPendingTimer()
	c.cancelTimer = c.sched.AfterFunc(d, func() {
		c.cancelTimer = nil
		f()
	})
}

func (c *Client) scheduleTimerAt(at time.Time, f func()) {
	d := at.Sub(c.sched.Now())
	if d < 0 {
		d = 0
	}
	c.scheduleTimer(d, f)
}

// installReceiveHandler reassigns the single receive handler for the
// current state.
func (c *Client) installReceiveHandler() {
	if c.state == StateInactive || c.state == StateInformComplete {
		return
	}
	_ = c.socket.EnableReceive(func(raw []byte) {
		c.onReceive(raw)
	})
}

// --- wire helpers -----------------------------------------------------

func (c *Client) requestedOptions() []OptionCode {
	return mergedRequestedOptions(c.requestedOptionsOverride)
}

// oroValue encodes the ORO option value for the current requested-options
// set.
func (c *Client) oroValue() []byte {
	return encodeORO(c.requestedOptions())
}

// elapsed returns the ELAPSED_TIME option value for the current try.
func (c *Client) elapsed() []byte {
	return encodeElapsedTime(elapsedHundredths(c.try, c.startTime, c.sched.Now()))
}

// transmit builds the common header + CLIENTID + ORO + ELAPSED_TIME
// options shared by every client message, appends extra (the
// message-specific options), and hands the result to the socket. Local
// transmit failures other than ENXIO/ENETDOWN are logged and swallowed;
// those two are not surfaced as failures at all.
func (c *Client) transmit(msgType MessageType, extra ...[]byte) {
	if c.try == 0 {
		c.startTime = c.sched.Now()
	}
	c.try++

	var b builder
	b.reset()
	if err := b.header(msgType, c.xid); err != nil {
		c.log.V(1).Info("failed to build outbound packet", "err", err)
		return
	}
	if err := b.option(OptionClientID, c.duid); err != nil {
		c.log.V(1).Info("failed to build outbound packet", "err", err)
		return
	}
	if err := b.option(OptionORO, c.oroValue()); err != nil {
		c.log.V(1).Info("failed to build outbound packet", "err", err)
		return
	}
	if err := b.option(OptionElapsedTime, c.elapsed()); err != nil {
		c.log.V(1).Info("failed to build outbound packet", "err", err)
		return
	}
	for _, opt := range extra {
		if err := b.write(opt); err != nil {
			c.log.V(1).Info("failed to build outbound packet", "err", err)
			return
		}
	}

	txLog := c.log.V(1)
	if c.try >= c.symptomThreshold() {
		txLog = c.log
	}
	txLog.Info("transmit", "type", msgType.String(), "xid", c.xid, "try", c.try,
		"dest", AllDHCPRelayAgentsAndServers.String(), "destPort", ServerPort)
	if err := c.socket.Transmit(b.bytes()); err != nil {
		if !isIgnoredTransmitError(err) {
			c.log.Error(err, "transmit failed", "type", msgType.String())
		}
	}
}

// isIgnoredTransmitError reports whether err is ENXIO or ENETDOWN: the
// interface is merely transiently down, not a real transmit failure.
func isIgnoredTransmitError(err error) bool {
	return isErrno(err, "ENXIO") || isErrno(err, "ENETDOWN")
}

// --- inbound message matching ---------------------------------------------

func (c *Client) onReceive(raw []byte) {
	msg, err := decodeMessage(raw)
	if err != nil {
		c.log.V(1).Info("dropping malformed message", "err", err)
		return
	}
	if !c.matches(msg) {
		return
	}
	c.onMessage(c.state, msg)
}

// matches checks the message-matching rules common to every inbound
// message in every state: transaction id, CLIENTID echo, a present and
// well-formed SERVERID. Message-type-to-state correspondence is checked by
// each state's onMessage handler, which onReceive calls only after matches
// succeeds; the two checks compose as one gate applied to every inbound
// message regardless of state.
func (c *Client) matches(msg *message) bool {
	if msg.XID != c.xid {
		return false
	}
	cid, ok := msg.Opts.get(OptionClientID)
	if !ok || !bytesEqual(cid, c.duid) {
		return false
	}
	sid, ok := msg.Opts.get(OptionServerID)
	if !ok || !wellFormedDUID(sid) {
		return false
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wellFormedDUID reports whether data parses as a DUID: at minimum a
// 2-byte type field must be present (RFC 3315 section 9).
func wellFormedDUID(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	_, err := duidFromBytes(data)
	return err == nil
}
