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

// Package config loads the tunables that sit outside the DHCPv6 state
// machine itself: which extra options to request, whether to use a
// privacy-preserving DUID, the wake-skew window, and the try count at which
// a diagnostic symptom is raised.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dhcpv6lab/dhcpv6client/internal/dhcpv6"
)

// Config is the embedding service's DHCPv6 client configuration.
type Config struct {
	// RequestedOptions is an override list of additionally-requested
	// option codes, merged with the package's static defaults.
	RequestedOptions []uint16 `yaml:"requested_options,omitempty"`

	// PrivacyRequired selects a private (randomized) DUID over the
	// system-wide persistent one.
	PrivacyRequired bool `yaml:"privacy_required,omitempty"`

	// WakeSkewSeconds overrides the default wake-handling skew window.
	// Zero means "use the package default".
	WakeSkewSeconds int `yaml:"wake_skew_seconds,omitempty"`

	// SymptomAtTry overrides the Solicit try count at which a diagnostic
	// symptom notification is raised. Zero means "use the package
	// default".
	SymptomAtTry int `yaml:"symptom_at_try,omitempty"`
}

// WakeSkew returns WakeSkewSeconds as a time.Duration, or 0 if unset.
func (c Config) WakeSkew() time.Duration {
	if c.WakeSkewSeconds <= 0 {
		return 0
	}
	return time.Duration(c.WakeSkewSeconds) * time.Second
}

// Apply installs this configuration's tunables on client: the
// requested-options override (when non-empty, via SetRequestedOptions), the
// wake skew and the symptom-try threshold. PrivacyRequired is not applied
// here; it is passed to Client.Start directly.
func (c Config) Apply(client *dhcpv6.Client) {
	if len(c.RequestedOptions) > 0 {
		codes := make([]dhcpv6.OptionCode, len(c.RequestedOptions))
		for i, v := range c.RequestedOptions {
			codes[i] = dhcpv6.OptionCode(v)
		}
		client.SetRequestedOptions(codes)
	}
	client.SetWakeSkew(c.WakeSkew())
	client.SetSymptomTryThreshold(c.SymptomAtTry)
}

// Load reads and parses a YAML configuration file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filename, err)
	}
	return &cfg, nil
}
