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
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// gT is the *testing.T shared by every property spec below: Ginkgo's own
// Spec closures don't receive one, but the harness helpers built for the
// plain-testing.T suite (newHarness, bindHarness, testServerID, ...) need
// one for t.Helper()/t.Fatalf.
var gT *testing.T

func TestDhcpv6Properties(t *testing.T) {
	gT = t
	RegisterFailHandler(Fail)
	RunSpecs(t, "dhcpv6 property suite")
}
