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

// Package report collects per-class weaving failures. Failures never abort
// the build; the driver drains the reporter for the end-of-build summary.
package report

import (
	"fmt"
	"sync"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

// ErrorType classifies a weaving failure.
type ErrorType string

const (
	BytecodeRead   ErrorType = "BytecodeRead"
	BytecodeWrite  ErrorType = "BytecodeWrite"
	AnnotationScan ErrorType = "AnnotationScan"
	Transformation ErrorType = "Transformation"
	Validation     ErrorType = "Validation"
	IO             ErrorType = "IO"
)

// TransformError is one recorded failure with its context.
type TransformError struct {
	ClassName string
	Type      ErrorType
	Message   string
	Cause     error
	Context   map[string]string
}

func (e TransformError) Error() string {
	s := fmt.Sprintf("[%s] %s: %s", e.Type, e.ClassName, e.Message)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Reporter is a thread-safe append-only collector. Concurrent class
// transformations append to it; readers observe a monotonically growing
// sequence.
type Reporter struct {
	mu     sync.Mutex
	errors []TransformError
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a failure and logs it as a single line.
func (r *Reporter) Report(e TransformError) {
	klog.Errorf("%s", e.Error())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, e)
}

// Len returns the number of recorded failures.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// Snapshot returns a copy of the recorded failures in report order.
func (r *Reporter) Snapshot() []TransformError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TransformError(nil), r.errors...)
}

// CountByType returns how many failures of each type were recorded.
func (r *Reporter) CountByType() map[ErrorType]int {
	counts := map[ErrorType]int{}
	for _, e := range r.Snapshot() {
		counts[e.Type]++
	}
	return counts
}

// Aggregate returns all recorded failures as a single error, or nil when
// none were recorded.
func (r *Reporter) Aggregate() error {
	var errs []error
	for _, e := range r.Snapshot() {
		errs = append(errs, e)
	}
	return utilerrors.NewAggregate(errs)
}
