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
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagParsing(t *testing.T) {
	config := NewWeaverConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--classes-dir", "/tmp/classes",
		"--classes-dir", "/tmp/more",
		"--exclude-packages", "com.x.debug.,com.x.gen.",
		"--max-parameters-per-method", "5",
		"--method-tracking=false",
		"--workers", "4",
	}))

	assert.Equal(t, []string{"/tmp/classes", "/tmp/more"}, config.ClassesDirs)
	assert.Equal(t, []string{"com.x.debug.", "com.x.gen."}, config.ExcludePackages)
	assert.Equal(t, 5, config.MaxParametersPerMethod)
	assert.False(t, config.MethodTrackingEnabled)
	assert.Equal(t, 4, config.Workers)
	assert.NoError(t, config.ValidateDriver())

	cfg, err := config.WeavingConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.False(t, cfg.MethodTrackingEnabled)
	assert.Equal(t, 5, cfg.MaxParametersPerMethod)
}

func TestValidateDriver(t *testing.T) {
	config := NewWeaverConfig()
	assert.Error(t, config.ValidateDriver(), "classes-dir is required")

	config.ClassesDirs = []string{"/tmp/classes"}
	config.Workers = 0
	assert.Error(t, config.ValidateDriver())

	config.Workers = 2
	assert.NoError(t, config.ValidateDriver())
}
