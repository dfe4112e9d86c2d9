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

package options

import (
	"fmt"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/sh3lan93/analytics-weaver/pkg/weaver/config"
)

// WeaverConfig holds the driver options plus the weaving configuration
// surface, populated from command line flags or a JSON config file.
type WeaverConfig struct {
	ClassesDirs []string
	OutputDir   string
	ConfigFile  string
	Workers     int
	DryRun      bool
	Validate    bool
	FailOnError bool
	MetricsAddr string

	Enabled                bool
	DebugMode              bool
	IncludePackages        []string
	ExcludePackages        []string
	MethodTrackingEnabled  bool
	MaxParametersPerMethod int
	ExcludeMethods         []string
}

// NewWeaverConfig returns the default options.
func NewWeaverConfig() *WeaverConfig {
	defaults := config.NewDefaultConfig()
	return &WeaverConfig{
		Workers:                runtime.NumCPU(),
		Enabled:                defaults.Enabled,
		MethodTrackingEnabled:  defaults.MethodTrackingEnabled,
		MaxParametersPerMethod: defaults.MaxParametersPerMethod,
	}
}

func (c *WeaverConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringArrayVar(&c.ClassesDirs, "classes-dir", c.ClassesDirs,
		"directory of compiled .class files to weave (repeatable)")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir,
		"write woven classes under this directory instead of in place")
	fs.StringVar(&c.ConfigFile, "config-file", c.ConfigFile,
		"JSON file with the weaving configuration; overrides the weaving flags")
	fs.IntVar(&c.Workers, "workers", c.Workers,
		"number of classes transformed concurrently")
	fs.BoolVar(&c.DryRun, "dry-run", c.DryRun,
		"report what would change without writing any file")
	fs.BoolVar(&c.Validate, "validate", c.Validate,
		"re-parse every emitted class and record structural inconsistencies")
	fs.BoolVar(&c.FailOnError, "fail-on-error", c.FailOnError,
		"exit non-zero if any weaving error was recorded")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr,
		"address to serve prometheus metrics on; empty disables the endpoint")

	fs.BoolVar(&c.Enabled, "enabled", c.Enabled,
		"master switch; false passes every class through untouched")
	fs.BoolVar(&c.DebugMode, "debug-mode", c.DebugMode,
		"verbose logging of weaving decisions")
	fs.StringSliceVar(&c.IncludePackages, "include-packages", c.IncludePackages,
		"restrict weaving to classes under these dotted package prefixes")
	fs.StringSliceVar(&c.ExcludePackages, "exclude-packages", c.ExcludePackages,
		"skip classes under these dotted package prefixes")
	fs.BoolVar(&c.MethodTrackingEnabled, "method-tracking", c.MethodTrackingEnabled,
		"master switch for @Track weaving")
	fs.IntVar(&c.MaxParametersPerMethod, "max-parameters-per-method", c.MaxParametersPerMethod,
		"cap on @Param values captured per @Track method")
	fs.StringSliceVar(&c.ExcludeMethods, "exclude-methods", c.ExcludeMethods,
		"method names for which @Track is ignored")
}

// WeavingConfig builds the validated weaving configuration, preferring the
// config file when one was given.
func (c *WeaverConfig) WeavingConfig() (*config.Config, error) {
	if c.ConfigFile != "" {
		return config.FromFile(c.ConfigFile)
	}
	cfg := &config.Config{
		Enabled:                c.Enabled,
		DebugMode:              c.DebugMode,
		IncludePackages:        c.IncludePackages,
		ExcludePackages:        c.ExcludePackages,
		MethodTrackingEnabled:  c.MethodTrackingEnabled,
		MaxParametersPerMethod: c.MaxParametersPerMethod,
		ExcludeMethods:         c.ExcludeMethods,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateDriver checks the driver-side options.
func (c *WeaverConfig) ValidateDriver() error {
	if len(c.ClassesDirs) == 0 {
		return fmt.Errorf("at least one --classes-dir is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be >= 1, got %d", c.Workers)
	}
	return nil
}
