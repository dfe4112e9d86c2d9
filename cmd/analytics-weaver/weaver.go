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

package main

import (
	goflag "flag"

	"github.com/spf13/pflag"
	"k8s.io/component-base/cli/flag"
	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/sh3lan93/analytics-weaver/cmd/analytics-weaver/app"
	"github.com/sh3lan93/analytics-weaver/cmd/analytics-weaver/app/options"
	"github.com/sh3lan93/analytics-weaver/pkg/version"
)

func main() {
	config := options.NewWeaverConfig()
	config.AddFlags(pflag.CommandLine)

	flag.InitFlags()
	// Convinces goflags that we have called Parse() to avoid noisy logs.
	goflag.CommandLine.Parse([]string{})
	logs.InitLogs()
	defer logs.FlushLogs()

	version.PrintAndExitIfRequested()

	klog.V(0).Infof("version: %v", version.VERSION)

	server := app.NewWeaverServerDefault(config)
	if err := server.Run(); err != nil {
		klog.Fatalf("Weaving failed: %v", err)
	}
}
