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
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsIgnoredTransmitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ENXIO direct", syscall.ENXIO, true},
		{"ENETDOWN direct", syscall.ENETDOWN, true},
		{"wrapped ENXIO", fmt.Errorf("transmit: %w", syscall.ENXIO), true},
		{"unrelated errno", syscall.EINVAL, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isIgnoredTransmitError(tt.err); got != tt.want {
				t.Errorf("isIgnoredTransmitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
