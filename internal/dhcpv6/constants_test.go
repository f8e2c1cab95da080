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

import "testing"

// TestWellKnownTransportConstants pins the values a Socket implementation
// must bind/send to (RFC 3315 section 5.2), since collaborators.go's
// Socket contract and client.go's transmit log rely on them.
func TestWellKnownTransportConstants(t *testing.T) {
	if ServerPort != 547 {
		t.Errorf("ServerPort = %d, want 547", ServerPort)
	}
	if ClientPort != 546 {
		t.Errorf("ClientPort = %d, want 546", ClientPort)
	}
	if AllDHCPRelayAgentsAndServers.String() != "ff02::1:2" {
		t.Errorf("AllDHCPRelayAgentsAndServers = %v, want ff02::1:2", AllDHCPRelayAgentsAndServers)
	}
}
