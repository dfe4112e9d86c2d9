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
	"strings"

	"github.com/sh3lan93/analytics-weaver/pkg/weaver/config"
)

// Instrumentable decides whether a class is a weaving candidate. dottedName
// is the fully-qualified class name in dotted form. The rules apply in
// order: master switch, system packages, include list, exclude list.
func Instrumentable(dottedName string, cfg *config.Config) bool {
	if !cfg.Enabled {
		return false
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(dottedName, prefix) {
			return false
		}
	}
	if len(cfg.IncludePackages) > 0 {
		included := false
		for _, prefix := range cfg.IncludePackages {
			if strings.HasPrefix(dottedName, prefix) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, prefix := range cfg.ExcludePackages {
		if strings.HasPrefix(dottedName, prefix) {
			return false
		}
	}
	return true
}
