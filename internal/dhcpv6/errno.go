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
	"syscall"
)

// isErrno reports whether err ultimately wraps the named syscall errno.
// Only ENXIO and ENETDOWN are ever queried, so the small name
// switch below is all this needs; a generic string-keyed map would not be
// any more general and would hide the two names this package actually
// cares about.
func isErrno(err error, name string) bool {
	var target syscall.Errno
	switch name {
	case "ENXIO":
		target = syscall.ENXIO
	case "ENETDOWN":
		target = syscall.ENETDOWN
	default:
		return false
	}
	return errors.Is(err, target)
}
