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
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	om "github.com/onsi/gomega"

	"github.com/sh3lan93/analytics-weaver/cmd/analytics-weaver/app"
	"github.com/sh3lan93/analytics-weaver/cmd/analytics-weaver/app/options"
	"github.com/sh3lan93/analytics-weaver/pkg/e2e"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/validate"
)

var _ = Describe("analytics-weaver", func() {
	var classesDir string

	write := func(rel string, b []byte) string {
		path := filepath.Join(classesDir, rel)
		om.Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(om.Succeed())
		om.Expect(os.WriteFile(path, b, 0o644)).To(om.Succeed())
		return path
	}

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "weaver-e2e")
		om.Expect(err).NotTo(om.HaveOccurred())
		classesDir = dir
	})

	AfterEach(func() {
		os.RemoveAll(classesDir)
	})

	It("weaves a class tree in place", func() {
		activity, err := e2e.TrackScreenActivity("com/x/MainActivity", "Home")
		om.Expect(err).NotTo(om.HaveOccurred())
		service, err := e2e.TrackedService("com/x/Service", "e1")
		om.Expect(err).NotTo(om.HaveOccurred())
		plain, err := e2e.PlainClass("com/x/Plain")
		om.Expect(err).NotTo(om.HaveOccurred())

		activityPath := write("com/x/MainActivity.class", activity)
		servicePath := write("com/x/Service.class", service)
		plainPath := write("com/x/Plain.class", plain)

		config := options.NewWeaverConfig()
		config.ClassesDirs = []string{classesDir}
		config.Workers = 2
		config.Validate = true
		server := app.NewWeaverServerDefault(config)
		om.Expect(server.Run()).To(om.Succeed())

		woven, err := os.ReadFile(activityPath)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(bytes.Equal(woven, activity)).To(om.BeFalse(), "activity must be rewritten")
		report, err := validate.Check(activity, woven)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(report.HelperMethods).To(om.Equal(1))
		om.Expect(report.ScreenHelperRefs).To(om.Equal(1))

		tracked, err := os.ReadFile(servicePath)
		om.Expect(err).NotTo(om.HaveOccurred())
		report, err = validate.Check(service, tracked)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(report.TrackManagerRefs).To(om.Equal(1))

		untouched, err := os.ReadFile(plainPath)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(bytes.Equal(untouched, plain)).To(om.BeTrue(), "plain class must pass through")
	})

	It("mirrors output under --output-dir without touching the input", func() {
		activity, err := e2e.TrackScreenActivity("com/x/OtherActivity", "Other")
		om.Expect(err).NotTo(om.HaveOccurred())
		activityPath := write("com/x/OtherActivity.class", activity)

		outDir, err := os.MkdirTemp("", "weaver-e2e-out")
		om.Expect(err).NotTo(om.HaveOccurred())
		defer os.RemoveAll(outDir)

		config := options.NewWeaverConfig()
		config.ClassesDirs = []string{classesDir}
		config.OutputDir = outDir
		config.Workers = 1
		server := app.NewWeaverServerDefault(config)
		om.Expect(server.Run()).To(om.Succeed())

		original, err := os.ReadFile(activityPath)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(bytes.Equal(original, activity)).To(om.BeTrue(), "input must stay untouched")

		mirrored, err := os.ReadFile(filepath.Join(outDir, "com/x/OtherActivity.class"))
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(bytes.Equal(mirrored, activity)).To(om.BeFalse(), "mirror must be the woven class")
	})

	It("passes everything through when disabled", func() {
		activity, err := e2e.TrackScreenActivity("com/x/MainActivity", "Home")
		om.Expect(err).NotTo(om.HaveOccurred())
		activityPath := write("com/x/MainActivity.class", activity)

		config := options.NewWeaverConfig()
		config.ClassesDirs = []string{classesDir}
		config.Workers = 1
		config.Enabled = false
		server := app.NewWeaverServerDefault(config)
		om.Expect(server.Run()).To(om.Succeed())

		after, err := os.ReadFile(activityPath)
		om.Expect(err).NotTo(om.HaveOccurred())
		om.Expect(bytes.Equal(after, activity)).To(om.BeTrue())
	})
})
