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

// onEnter dispatches to the per-state entry behavior installed by
// transitionTo. Several states fall straight through into their own timer
// handler, matching the original client's IFEventID_start_e-falls-into-
// IFEventID_timeout_e structure.
func (c *Client) onEnter(s State) {
	switch s {
	case StateSolicit:
		c.onEnterSolicit()
	case StateRequest:
		c.onEnterRequest()
	case StateBound:
		c.onEnterBound()
	case StateRenew:
		c.onEnterRenew()
	case StateRebind:
		c.onEnterRebind()
	case StateConfirm:
		c.onEnterConfirm()
	case StateRelease:
		c.onEnterRelease()
	case StateUnbound:
		c.onEnterUnbound()
	case StateDecline:
		c.onEnterDecline()
	case StateInform:
		c.onEnterInform()
	case StateInformComplete:
		// Terminal: installReceiveHandler already left the receive path
		// disabled and no timer is armed.
	}
}

// onMessage dispatches a matched inbound message to the current state's
// handler. States with no inbound message of interest simply drop it.
func (c *Client) onMessage(s State, msg *message) {
	switch s {
	case StateSolicit:
		c.onMessageSolicit(msg)
	case StateRequest:
		c.onMessageRequest(msg)
	case StateRenew, StateRebind:
		c.onMessageRenewRebind(msg)
	case StateConfirm:
		c.onMessageConfirm(msg)
	case StateDecline:
		c.onMessageDecline(msg)
	case StateInform:
		c.onMessageInform(msg)
	}
}

// --- Solicit --------------------------------------------------------------

func (c *Client) onEnterSolicit() {
	c.solicitBest = nil
	c.solicitBestPreference = 0
	c.saved = nil
	c.scheduleTimer(c.rng.jitteredDelay(solMaxDelay), c.onTimerSolicit)
}

func (c *Client) onTimerSolicit() {
	if c.try > 0 {
		ls := c.iface.GetLinkStatus()
		if ls.Valid && !ls.Active {
			c.enterInactive()
			return
		}
	}
	if c.solicitBest != nil {
		c.saved = c.solicitBest
		c.transitionTo(StateRequest)
		return
	}
	ia := encodeOption(OptionIANA, encodeIANA(c.iaid, 0, 0, nil))
	c.transmit(MessageTypeSolicit, ia)
	if c.try >= c.symptomThreshold() && c.onSymptom != nil {
		c.onSymptom()
	}
	c.scheduleTimer(c.nextRetransmit(solTimeout, solMaxRT), c.onTimerSolicit)
}

// onMessageSolicit implements the ADVERTISE handling rules: a
// NoAddrsAvail status or an IA_NA without a usable IAADDR is ignored; a
// "better" (higher-preference) ADVERTISE supersedes any saved one; the
// saved ADVERTISE is only acted on once the client has already waited
// through one retransmission, or immediately when the server signals
// maximum preference.
func (c *Client) onMessageSolicit(msg *message) {
	if msg.Type != MessageTypeAdvertise {
		return
	}
	sp := newSavedPacket(msg)
	if sp.haveTopLevelStatus && sp.status == StatusNoAddrsAvail {
		return
	}
	if !sp.usableIAAddr() {
		return
	}
	pref := sp.preference()
	if c.solicitBest != nil && c.solicitBestPreference >= pref {
		return
	}
	c.solicitBest = sp
	c.solicitBestPreference = pref
	if c.try > 1 || pref == 255 {
		c.saved = c.solicitBest
		c.transitionTo(StateRequest)
	}
}

// --- Request ----------------------------------------------------------

func (c *Client) onEnterRequest() {
	c.onTimerRequest()
}

func (c *Client) onTimerRequest() {
	if c.try >= reqMaxRC {
		c.transitionTo(StateSolicit)
		return
	}
	c.transmit(MessageTypeRequest, c.serverIDOption(), c.echoIANAOption())
	c.scheduleTimer(c.nextRetransmit(reqTimeout, reqMaxRT), c.onTimerRequest)
}

// onMessageRequest resolves the NotOnLink/NoAddrsAvail precedence question
// the way the reference implementation does: a
// top-level NoAddrsAvail is ignored outright (keep retrying); an IA_NA-scoped
// NotOnLink sends the client back to Solicit; anything else with no usable
// IA_NA binding is silently dropped (also keep retrying), and a usable
// binding commits the lease and moves to Bound.
func (c *Client) onMessageRequest(msg *message) {
	if msg.Type != MessageTypeReply {
		return
	}
	sp := newSavedPacket(msg)
	if sp.haveTopLevelStatus && sp.status == StatusNoAddrsAvail {
		return
	}
	if sp.iaStatus() == StatusNotOnLink {
		c.transitionTo(StateSolicit)
		return
	}
	if !sp.usableIAAddr() {
		return
	}
	c.saved = sp
	c.lse = newLeaseFromIANA(c.sched.Now(), sp.ia, sp.addr, c.currentSSID())
	c.transitionTo(StateBound)
}

// --- Bound --------------------------------------------------------------

// onEnterBound commits the just-saved lease to the kernel. If the assigned
// address is unchanged from before, the previous binding is simply
// refreshed and renewal scheduling proceeds immediately; a genuinely new
// address waits for a subsequent addresses-changed event to report it
// clear of DAD before notifying and scheduling T1.
func (c *Client) onEnterBound() {
	c.lse.Valid = true
	c.savedVerified = true
	now := c.sched.Now()
	if !c.lse.stillValid(now) {
		c.transitionTo(StateUnbound)
		return
	}
	changed := c.commitLease(now)
	if changed {
		c.addressTentative = true
		return
	}
	c.addressTentative = false
	c.notify.post()
	c.scheduleRenewal()
}

// commitLease adds the saved IAADDR to the kernel, removing any previously
// assigned address first if it differs. Returns whether the address
// actually changed (false for a refresh of the same address).
func (c *Client) commitLease(now time.Time) bool {
	addr := c.saved.addr.Address
	changed := c.assignedAddr == nil || !c.assignedAddr.Equal(addr)
	if changed && c.assignedAddr != nil {
		if err := c.kernelAPI.RemoveAddress(c.iface.Name(), c.assignedAddr); err != nil {
			c.log.Error(err, "failed to remove previous address")
		}
	}
	validRemaining := c.lse.remaining(now, c.lse.ValidLifetime)
	preferredRemaining := c.lse.remaining(now, c.lse.PreferredLifetime)
	const defaultPrefixLength = 128
	if err := c.kernelAPI.AddAddress(c.iface.Name(), addr, defaultPrefixLength, validRemaining, preferredRemaining); err != nil {
		c.log.Error(err, "failed to add address")
	}
	c.assignedAddr = addr
	c.assignedPrefixLen = defaultPrefixLength
	return changed
}

// scheduleRenewal arms the timer that enters Renew at T1 (or 10s, if T1 has
// already elapsed); an INFINITE valid lifetime suppresses renewal entirely.
func (c *Client) scheduleRenewal() {
	if c.lse.ValidLifetime == infiniteDuration {
		return
	}
	now := c.sched.Now()
	target := c.lse.t1Deadline()
	if !target.After(now) {
		target = now.Add(minRenewDelay)
	}
	c.nextRenewTime = target
	c.scheduleTimerAt(target, func() {
		c.transitionTo(StateRenew)
	})
}

func (c *Client) currentSSID() string {
	if !c.iface.IsWireless() {
		return ""
	}
	ssid, ok := c.service.GetSSID()
	if !ok {
		return ""
	}
	return ssid
}

// --- Renew / Rebind -----------------------------------------------------

func (c *Client) onEnterRenew() {
	c.savedVerified = true
	c.startTime = c.sched.Now()
	c.renewRebindTick()
}

func (c *Client) onEnterRebind() {
	c.savedVerified = true
	c.startTime = c.sched.Now()
	c.renewRebindTick()
}

// renewRebindTick implements the combined Renew/Rebind timeout logic
//: while less than T2 has elapsed since the lease
// started, retransmit as Renew, clamped so the next attempt cannot overrun
// T2; from T2 onward, switch to (or stay in) Rebind, clamped to the valid
// lifetime's expiry. The lease expiring or becoming invalid at any point
// sends the client to Unbound.
func (c *Client) renewRebindTick() {
	now := c.sched.Now()
	if !c.lse.stillValid(now) {
		c.transitionTo(StateUnbound)
		return
	}
	elapsed := now.Sub(c.lse.Start)
	if elapsed < c.lse.T2 {
		wait := c.nextRetransmit(renTimeout, renMaxRT)
		wait = clampToDeadline(wait, c.lse.T2-elapsed)
		c.nextRenewTime = now.Add(wait)
		c.scheduleTimer(wait, c.renewRebindTick)
		c.transmit(MessageTypeRenew, c.serverIDOption(), c.echoIANAOption())
		return
	}
	if c.state != StateRebind {
		c.transitionTo(StateRebind)
		return
	}
	wait := c.nextRetransmit(rebTimeout, rebMaxRT)
	if c.lse.ValidLifetime != infiniteDuration {
		wait = clampToDeadline(wait, c.lse.ValidLifetime-elapsed)
	}
	c.nextRenewTime = now.Add(wait)
	c.scheduleTimer(wait, c.renewRebindTick)
	c.transmit(MessageTypeRebind, c.echoIANAOption())
}

// onMessageRenewRebind handles a REPLY in either Renew or Rebind: any
// non-Success top-level status or a missing usable binding drops the
// client to Unbound (the server has withdrawn the lease); otherwise the
// refreshed lease is saved and the client moves to Bound.
func (c *Client) onMessageRenewRebind(msg *message) {
	if msg.Type != MessageTypeReply {
		return
	}
	sp := newSavedPacket(msg)
	if sp.haveTopLevelStatus && sp.status != StatusSuccess {
		c.transitionTo(StateUnbound)
		return
	}
	if !sp.usableIAAddr() {
		c.transitionTo(StateUnbound)
		return
	}
	c.saved = sp
	c.lse = newLeaseFromIANA(c.sched.Now(), sp.ia, sp.addr, c.currentSSID())
	c.transitionTo(StateBound)
}

// --- Confirm ------------------------------------------------------------

func (c *Client) onEnterConfirm() {
	c.savedVerified = false
	c.scheduleTimer(c.rng.jitteredDelay(cnfMaxDelay), c.onTimerConfirm)
}

func (c *Client) onTimerConfirm() {
	if c.try == 0 {
		c.startTime = c.sched.Now()
	} else {
		ls := c.iface.GetLinkStatus()
		if ls.Valid && !ls.Active {
			c.enterInactive()
			return
		}
		now := c.sched.Now()
		if !now.After(c.startTime) || now.Sub(c.startTime) >= cnfMaxRD {
			if c.lse.stillValid(now) {
				c.transitionTo(StateBound)
			} else {
				c.transitionTo(StateSolicit)
			}
			return
		}
	}
	c.transmit(MessageTypeConfirm, c.echoIANAOption())
	c.scheduleTimer(c.nextRetransmit(cnfTimeout, cnfMaxRT), c.onTimerConfirm)
}

// onMessageConfirm: a non-Success status means the server actively denies
// the binding (Unbound); any Success REPLY, regardless of content, confirms
// it (Bound).
func (c *Client) onMessageConfirm(msg *message) {
	if msg.Type != MessageTypeReply {
		return
	}
	sp := newSavedPacket(msg)
	if sp.haveTopLevelStatus && sp.status != StatusSuccess {
		c.transitionTo(StateUnbound)
		return
	}
	c.transitionTo(StateBound)
}

// --- Release --------------------------------------------------------

// onEnterRelease sends a single best-effort RELEASE and does not wait for a
// reply: the caller (Client.Release) transitions straight to Inactive right
// after transitionTo(StateRelease) returns.
func (c *Client) onEnterRelease() {
	addr := c.assignedAddr
	c.removeAssignedAddress()
	if addr == nil {
		return
	}
	ia := encodeOption(OptionIANA, encodeIANA(c.iaid, 0, 0, encodeOption(OptionIAAddr, encodeIAAddr(addr, 0, 0, nil))))
	c.transmit(MessageTypeRelease, c.serverIDOption(), ia)
}

// --- Decline --------------------------------------------------------

// onEnterDecline tears down the duplicated address immediately, discards
// the lease, and retransmits a DECLINE echoing that address up to
// DEC_MAX_RC times before giving up back to Solicit.
func (c *Client) onEnterDecline() {
	c.declinedAddr = c.assignedAddr
	c.removeAssignedAddress()
	c.lse = lease{}
	c.savedVerified = false
	c.notify.post()
	c.onTimerDecline()
}

func (c *Client) onTimerDecline() {
	if c.try >= decMaxRC {
		c.transitionTo(StateSolicit)
		return
	}
	if c.declinedAddr != nil {
		ia := encodeOption(OptionIANA, encodeIANA(c.iaid, 0, 0, encodeOption(OptionIAAddr, encodeIAAddr(c.declinedAddr, 0, 0, nil))))
		c.transmit(MessageTypeDecline, c.serverIDOption(), ia)
	}
	c.scheduleTimer(c.nextRetransmit(decTimeout, 0), c.onTimerDecline)
}

func (c *Client) onMessageDecline(msg *message) {
	if msg.Type != MessageTypeReply {
		return
	}
	c.transitionTo(StateSolicit)
}

// --- Unbound --------------------------------------------------------

// onEnterUnbound tears down the stale binding and immediately re-solicits
//: there is nothing to wait for, so this is a
// synchronous fall-through rather than a timer.
func (c *Client) onEnterUnbound() {
	c.removeAssignedAddress()
	c.saved = nil
	c.savedVerified = false
	c.lse = lease{}
	c.notify.post()
	c.transitionTo(StateSolicit)
}

// --- Inform / InformComplete --------------------------------------------

func (c *Client) onEnterInform() {
	if c.iface.LinkLayerType() != LinkLayerCellular {
		c.scheduleTimer(c.rng.jitteredDelay(infMaxDelay), c.onTimerInform)
		return
	}
	c.onTimerInform()
}

func (c *Client) onTimerInform() {
	if c.try > 0 {
		ls := c.iface.GetLinkStatus()
		if ls.Valid && !ls.Active {
			c.enterInactive()
			return
		}
	}
	c.transmit(MessageTypeInformationRequest)
	c.scheduleTimer(c.nextRetransmit(infTimeout, infMaxRT), c.onTimerInform)
}

func (c *Client) onMessageInform(msg *message) {
	if msg.Type != MessageTypeReply {
		return
	}
	sp := newSavedPacket(msg)
	c.saved = sp
	c.savedVerified = true
	c.notify.post()
	c.transitionTo(StateInformComplete)
}

// --- shared helpers -----------------------------------------------------

// nextRetransmit lazily creates this phase's retransmitTimer on first use
// and returns its next interval.
func (c *Client) nextRetransmit(irt, mrt time.Duration) time.Duration {
	if c.rt == nil {
		c.rt = newRetransmitTimer(c.rng, irt, mrt)
	}
	return c.rt.next()
}

// serverIDOption encodes the SERVERID option from the currently saved
// packet's server id, used by Request, Renew, Release and Decline (Solicit,
// Rebind, Confirm and Inform carry no SERVERID).
func (c *Client) serverIDOption() []byte {
	var id []byte
	if c.saved != nil {
		id = c.saved.serverID
	}
	return encodeOption(OptionServerID, id)
}

// echoIANAOption builds an IA_NA{T1=0,T2=0} carrying a single IAADDR that
// echoes the currently assigned address with zero lifetimes, the uniform
// shape Request/Renew/Rebind/Confirm/Decline/Release all send.
func (c *Client) echoIANAOption() []byte {
	addr := c.assignedAddr
	if addr == nil && c.saved != nil {
		addr = c.saved.addr.Address
	}
	nested := encodeOption(OptionIAAddr, encodeIAAddr(addr, 0, 0, nil))
	return encodeOption(OptionIANA, encodeIANA(c.iaid, 0, 0, nested))
}

func (c *Client) removeAssignedAddress() {
	if c.assignedAddr == nil {
		return
	}
	if err := c.kernelAPI.RemoveAddress(c.iface.Name(), c.assignedAddr); err != nil {
		c.log.Error(err, "failed to remove address")
	}
	c.assignedAddr = nil
	c.assignedPrefixLen = 0
}

// --- external events ------

// handleLinkStatusChanged applies the same link-transition reasoning wake
// handling uses to a standalone link-status event: an
// inactive link tears down the address and waits, an active link while
// bound/renewing/rebinding is treated as a possible network change and
// re-verified via Confirm.
func (c *Client) handleLinkStatusChanged(status LinkStatus) {
	if !status.Active {
		c.removeAssignedAddress()
		return
	}
	if c.state == StateBound || c.state == StateRenew || c.state == StateRebind {
		c.transitionTo(StateConfirm)
	}
}

// handleAddressesChanged is only meaningful while Bound and only for the
// currently assigned address. A duplicated
// address is declined; a still-tentative one is silently waited on; a
// usable one (whether newly verified or simply re-reported) posts the
// coalesced notification and (re)schedules the T1 renewal.
func (c *Client) handleAddressesChanged(addrs []InterfaceAddress) {
	if c.state != StateBound || c.assignedAddr == nil {
		return
	}
	var found *InterfaceAddress
	for i := range addrs {
		if addrs[i].IP.Equal(c.assignedAddr) {
			found = &addrs[i]
			break
		}
	}
	if found == nil {
		return
	}
	if found.Flags&AddressFlagDuplicated != 0 {
		c.transitionTo(StateDecline)
		return
	}
	if found.Flags&AddressFlagTentative != 0 {
		return
	}
	c.addressTentative = false
	c.notify.post()
	c.cancelPendingTimer()
	c.scheduleRenewal()
}

// handleBSSIDChanged treats a roaming event while awake the same as wake
// handling's own BSSID-changed hint: re-verify the
// binding via Confirm.
func (c *Client) handleBSSIDChanged() {
	if c.state == StateBound || c.state == StateRenew || c.state == StateRebind {
		c.transitionTo(StateConfirm)
	}
}

// handleWake implements the wake-handling decision tree, in the order the
// reference implementation evaluates it.
func (c *Client) handleWake(w WakeEvent) {
	wireless := c.iface.IsWireless()
	mustRemove := !w.LinkStatus.Active ||
		(wireless && w.NetworkChanged) ||
		(!wireless && !w.LinkStatus.WakeOnSameNetwork)
	if mustRemove {
		c.removeAssignedAddress()
		if !w.LinkStatus.Active {
			return
		}
		if c.state != StateSolicit {
			c.transitionTo(StateSolicit)
		}
		return
	}

	now := c.sched.Now()
	if !c.lse.stillValid(now) {
		if c.state != StateSolicit {
			c.transitionTo(StateUnbound)
		}
		return
	}
	boundRenewRebind := c.state == StateBound || c.state == StateRenew || c.state == StateRebind
	if !boundRenewRebind || w.BSSIDChanged {
		c.transitionTo(StateConfirm)
		return
	}
	if c.lse.ValidLifetime == infiniteDuration {
		return
	}
	if c.nextRenewTime.Sub(now) >= c.wakeSkew() {
		c.scheduleTimerAt(c.nextRenewTime, c.renewRebindTick)
		return
	}
	c.renewRebindTick()
}

// wakeSkew returns the configured wake-skew window, defaulting to 30s when
// unset.
func (c *Client) wakeSkew() time.Duration {
	if c.wakeSkewSecs <= 0 {
		return 30 * time.Second
	}
	return c.wakeSkewSecs
}

// sameNetwork reports whether the interface is still attached to the same
// network as when the lease was acquired: a wired interface is always
// considered the same network; a wireless one matches iff the current SSID
// equals the one recorded on the lease, and both absent counts as
// different.
func (c *Client) sameNetwork() bool {
	if !c.iface.IsWireless() {
		return true
	}
	ssid, ok := c.service.GetSSID()
	if !ok {
		ssid = ""
	}
	if ssid == "" && c.lse.SSID == "" {
		return false
	}
	return ssid == c.lse.SSID
}
