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

package app

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/sh3lan93/analytics-weaver/cmd/analytics-weaver/app/options"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/config"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/report"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/validate"
)

// WeaverServer drives the transformer over the configured class roots.
type WeaverServer struct {
	opts        *options.WeaverConfig
	cfg         *config.Config
	reporter    *report.Reporter
	transformer *weaver.Transformer
}

// NewWeaverServerDefault builds a server from the parsed options.
func NewWeaverServerDefault(opts *options.WeaverConfig) *WeaverServer {
	if err := opts.ValidateDriver(); err != nil {
		klog.Fatalf("Invalid options: %v", err)
	}
	cfg, err := opts.WeavingConfig()
	if err != nil {
		klog.Fatalf("Invalid weaving configuration: %v", err)
	}
	reporter := report.NewReporter()
	weaver.RegisterMetrics()
	return &WeaverServer{
		opts:        opts,
		cfg:         cfg,
		reporter:    reporter,
		transformer: weaver.New(cfg, reporter),
	}
}

type classTask struct {
	root string
	path string
}

type tally struct {
	mu      sync.Mutex
	scanned int
	woven   int
	tracked int
}

// Run transforms every class file under the configured roots. It returns an
// error when a class root cannot be walked, or when --fail-on-error is set
// and failures were recorded.
func (server *WeaverServer) Run() error {
	pflag.VisitAll(func(flag *pflag.Flag) {
		klog.V(0).Infof("FLAG: --%s=%q", flag.Name, flag.Value)
	})
	if server.opts.MetricsAddr != "" {
		server.serveMetrics()
	}

	tasks, err := server.collectTasks()
	if err != nil {
		return err
	}
	if !server.cfg.Enabled {
		klog.V(0).Infof("Weaving disabled; %d classes pass through", len(tasks))
	}
	klog.V(0).Infof("Weaving %d classes across %d workers", len(tasks), server.opts.Workers)

	var counts tally
	queue := make(chan classTask)
	var wg sync.WaitGroup
	for i := 0; i < server.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				server.processClass(task, &counts)
			}
		}()
	}
	for _, task := range tasks {
		queue <- task
	}
	close(queue)
	wg.Wait()

	errCounts := server.reporter.CountByType()
	klog.V(0).Infof("Done: %d scanned, %d woven, %d methods tracked, %d errors",
		counts.scanned, counts.woven, counts.tracked, server.reporter.Len())
	for errType, n := range errCounts {
		klog.V(0).Infof("  errors[%s] = %d", errType, n)
	}
	if server.opts.FailOnError {
		return server.reporter.Aggregate()
	}
	return nil
}

func (server *WeaverServer) collectTasks() ([]classTask, error) {
	var tasks []classTask
	for _, root := range server.opts.ClassesDirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".class") {
				tasks = append(tasks, classTask{root: root, path: path})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %v", root, err)
		}
	}
	return tasks, nil
}

func (server *WeaverServer) processClass(task classTask, counts *tally) {
	src, err := os.ReadFile(task.path)
	if err != nil {
		server.reporter.Report(report.TransformError{
			ClassName: task.path,
			Type:      report.IO,
			Message:   "cannot read class file",
			Cause:     err,
		})
		return
	}

	result := server.transformer.TransformClass(src)
	counts.mu.Lock()
	counts.scanned++
	if result.Changed {
		counts.woven++
	}
	counts.tracked += result.TrackedMethods
	counts.mu.Unlock()

	if result.Changed && server.opts.Validate {
		if _, err := validate.Check(src, result.Bytes); err != nil {
			server.reporter.Report(report.TransformError{
				ClassName: task.path,
				Type:      report.Validation,
				Message:   "post-weave validation failed",
				Cause:     err,
			})
			return
		}
	}
	if server.opts.DryRun {
		if result.Changed {
			klog.V(0).Infof("Would weave %s", task.path)
		}
		return
	}

	dest := task.path
	if server.opts.OutputDir != "" {
		rel, err := filepath.Rel(task.root, task.path)
		if err != nil {
			rel = filepath.Base(task.path)
		}
		dest = filepath.Join(server.opts.OutputDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			server.reporter.Report(report.TransformError{
				ClassName: task.path,
				Type:      report.IO,
				Message:   "cannot create output directory",
				Cause:     err,
			})
			return
		}
	} else if !result.Changed {
		// In-place mode only rewrites what changed.
		return
	}
	if err := os.WriteFile(dest, result.Bytes, 0o644); err != nil {
		server.reporter.Report(report.TransformError{
			ClassName: task.path,
			Type:      report.IO,
			Message:   "cannot write class file",
			Cause:     err,
		})
	}
}

func (server *WeaverServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintf(w, "ok\n")
	})
	go func() {
		err := http.ListenAndServe(server.opts.MetricsAddr, mux)
		if err != nil {
			klog.Errorf("Error starting metrics server: %v", err)
		}
	}()
}
