/*
Copyright 2025 The Analytics Weaver Authors.

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

package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
)

// Config controls which classes are woven and how. It is populated either
// from command line flags or from a JSON config file, and is read-only once
// the driver starts transforming.
type Config struct {
	// Enabled is the master switch. When false every class passes through
	// byte-identical.
	Enabled bool `json:"enabled"`

	// DebugMode raises log verbosity for weaving decisions. It has no
	// behavioral effect on the emitted bytecode.
	DebugMode bool `json:"debugMode"`

	// IncludePackages restricts weaving to classes whose dotted name
	// starts with any listed prefix. Empty means no restriction.
	IncludePackages []string `json:"includePackages"`

	// ExcludePackages skips classes whose dotted name starts with any
	// listed prefix.
	ExcludePackages []string `json:"excludePackages"`

	// MethodTrackingEnabled is the master switch for @Track weaving.
	MethodTrackingEnabled bool `json:"methodTrackingEnabled"`

	// MaxParametersPerMethod caps how many @Param values are captured per
	// @Track method.
	MaxParametersPerMethod int `json:"maxParametersPerMethod"`

	// ExcludeMethods lists method names for which @Track is ignored.
	ExcludeMethods []string `json:"excludeMethods"`
}

// NewDefaultConfig returns a config with weaving on and the default
// parameter cap.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:                true,
		MethodTrackingEnabled:  true,
		MaxParametersPerMethod: 10,
	}
}

// Validate returns whether or not the configuration is valid.
func (config *Config) Validate() error {
	if config.MaxParametersPerMethod < 0 {
		return fmt.Errorf("maxParametersPerMethod must be >= 0, got %d", config.MaxParametersPerMethod)
	}
	for _, p := range append(append([]string{}, config.IncludePackages...), config.ExcludePackages...) {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("package prefix cannot be empty")
		}
		if strings.ContainsAny(p, "/\\") {
			return fmt.Errorf("package prefix %q must be in dotted form", p)
		}
	}
	for _, m := range config.ExcludeMethods {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("excluded method name cannot be empty")
		}
	}
	return nil
}

// ExcludeMethodSet returns the excluded method names as a set.
func (config *Config) ExcludeMethodSet() sets.Set[string] {
	return sets.New(config.ExcludeMethods...)
}

// FromFile loads a config from a JSON file, applied on top of the defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := NewDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %v", path, err)
	}
	klog.V(2).Infof("Loaded config from %s (sha256 %x)", path, sha256.Sum256(data))
	return config, nil
}
