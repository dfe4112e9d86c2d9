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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "weaver"

var (
	classesScanned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Subsystem: metricsSubsystem,
			Name:      "classes_scanned",
			Help:      "Number of classes fed to the transformer",
		})
	classesWoven = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Subsystem: metricsSubsystem,
			Name:      "classes_woven",
			Help:      "Number of classes that were modified",
		})
	methodsTracked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Subsystem: metricsSubsystem,
			Name:      "methods_tracked",
			Help:      "Number of @Track preludes injected",
		})
	transformErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Subsystem: metricsSubsystem,
			Name:      "errors",
			Help:      "Number of per-class weaving failures by type",
		}, []string{"type"})
	transformDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "analytics",
			Subsystem: metricsSubsystem,
			Name:      "transform_duration_seconds",
			Help:      "Per-class transformation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		})

	registerMetricsOnce sync.Once
)

// RegisterMetrics registers the weaver metrics with the default prometheus
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerMetricsOnce.Do(func() {
		prometheus.MustRegister(classesScanned, classesWoven, methodsTracked,
			transformErrors, transformDuration)
	})
}
