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

package weaver

import (
	"testing"

	"github.com/sh3lan93/analytics-weaver/pkg/weaver/config"
)

func TestInstrumentable(t *testing.T) {
	for _, tc := range []struct {
		name     string
		class    string
		mutate   func(*config.Config)
		expected bool
	}{
		{name: "plain user class", class: "com.x.MainActivity", expected: true},
		{name: "disabled", class: "com.x.MainActivity",
			mutate: func(c *config.Config) { c.Enabled = false }},
		{name: "android system class", class: "android.app.Activity"},
		{name: "androidx system class", class: "androidx.appcompat.app.AppCompatActivity"},
		{name: "java system class", class: "java.util.HashMap"},
		{name: "kotlin system class", class: "kotlin.Unit"},
		{name: "include match", class: "com.x.feature.Foo", expected: true,
			mutate: func(c *config.Config) { c.IncludePackages = []string{"com.x."} }},
		{name: "include miss", class: "org.other.Foo",
			mutate: func(c *config.Config) { c.IncludePackages = []string{"com.x."} }},
		{name: "exclude match", class: "com.x.debug.Foo",
			mutate: func(c *config.Config) { c.ExcludePackages = []string{"com.x.debug."} }},
		// The prefix com.x.debug. does not match the class com.x.Debug.
		{name: "exclude prefix is not a substring match", class: "com.x.Debug", expected: true,
			mutate: func(c *config.Config) { c.ExcludePackages = []string{"com.x.debug."} }},
		{name: "exclude wins over include", class: "com.x.debug.Foo",
			mutate: func(c *config.Config) {
				c.IncludePackages = []string{"com.x."}
				c.ExcludePackages = []string{"com.x.debug."}
			}},
	} {
		cfg := config.NewDefaultConfig()
		if tc.mutate != nil {
			tc.mutate(cfg)
		}
		if got := Instrumentable(tc.class, cfg); got != tc.expected {
			t.Errorf("%s: Instrumentable(%q) = %t, want %t", tc.name, tc.class, got, tc.expected)
		}
	}
}
