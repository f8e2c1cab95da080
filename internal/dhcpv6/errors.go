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
)

// The three error classes recognized by the state machine. Call sites use
// errors.As to tell them apart rather than string matching, wrapping
// collaborator errors with %w instead of inspecting error strings.

// wireError marks a wire/parse failure: the message is silently dropped,
// never logged above informational.
type wireError struct{ reason string }

func (e *wireError) Error() string { return "dhcpv6: malformed message: " + e.reason }

var (
	errWireShortHeader   = &wireError{reason: "option header truncated"}
	errWireOptionOverrun = &wireError{reason: "option length exceeds buffer"}
)

// localError marks a local collaborator failure (transmit, kernel address
// add/remove) that is logged and swallowed; the state machine proceeds.
type localError struct {
	op  string
	err error
}

func (e *localError) Error() string { return fmt.Sprintf("dhcpv6: %s: %v", e.op, e.err) }
func (e *localError) Unwrap() error { return e.err }

func wrapLocal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &localError{op: op, err: err}
}

// isWireError reports whether err is a wire/parse error (class 1).
func isWireError(err error) bool {
	var w *wireError
	return errors.As(err, &w)
}
