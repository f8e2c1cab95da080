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

import "github.com/go-logr/logr"

// withDefaultLogger returns log unchanged, unless it is the zero value (the
// embedding service passed none), in which case it returns a discarding
// logger. Production callers always receive a ready-made logr.Logger from
// controller-runtime and never construct one by hand; this package is the
// one place in the module that does, since the embedding service is
// allowed to omit a logger entirely.
func withDefaultLogger(log logr.Logger) logr.Logger {
	if log.GetSink() == nil {
		return logr.Discard()
	}
	return log
}
