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

package version

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// VERSION is overridden at build time via -ldflags.
var VERSION = "0.1.0-dev"

var versionFlag = pflag.Bool("version", false, "print version information and quit")

// PrintAndExitIfRequested will check if the --version flag was passed and,
// if so, print the version and exit.
func PrintAndExitIfRequested() {
	if *versionFlag {
		fmt.Printf("analytics-weaver %s\n", VERSION)
		os.Exit(0)
	}
}
