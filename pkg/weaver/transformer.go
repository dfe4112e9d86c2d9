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

// Package weaver rewrites compiled JVM classes, injecting analytics calls
// driven by the @TrackScreen and @Track annotations. Each class is an
// independent transformation unit; a class that cannot be woven passes
// through byte-identical with the failure recorded on the reporter.
package weaver

import (
	"strings"
	"time"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/config"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver/report"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
)

// Transformer weaves one class at a time. It is safe for concurrent use:
// all per-class state lives on the stack, and the reporter is the only
// shared sink.
type Transformer struct {
	cfg            *config.Config
	reporter       *report.Reporter
	excludeMethods sets.Set[string]
}

// Result describes what happened to one class.
type Result struct {
	// Bytes is the output class file. It aliases the input when nothing
	// changed, so pass-through classes stay byte-identical.
	Bytes   []byte
	Changed bool

	ScreenWoven      bool
	LifecycleTargets []string
	TrackedMethods   int
}

// New returns a transformer over the given read-only config.
func New(cfg *config.Config, reporter *report.Reporter) *Transformer {
	return &Transformer{
		cfg:            cfg,
		reporter:       reporter,
		excludeMethods: cfg.ExcludeMethodSet(),
	}
}

func (t *Transformer) reportError(className string, errType report.ErrorType, message string, cause error, context map[string]string) {
	transformErrors.WithLabelValues(string(errType)).Inc()
	t.reporter.Report(report.TransformError{
		ClassName: className,
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Context:   context,
	})
}

// TransformClass rewrites one class. It never fails: on any error the
// original bytes are returned and the failure lands on the reporter.
func (t *Transformer) TransformClass(src []byte) Result {
	classesScanned.Inc()
	start := time.Now()
	defer func() { transformDuration.Observe(time.Since(start).Seconds()) }()

	passThrough := Result{Bytes: src}
	if !t.cfg.Enabled {
		return passThrough
	}

	cf, err := classfile.Parse(src)
	if err != nil {
		t.reportError("<unparsed>", report.BytecodeRead, "cannot parse class file", err, nil)
		return passThrough
	}
	dotted := strings.ReplaceAll(cf.ThisName, "/", ".")
	if !Instrumentable(dotted, t.cfg) {
		if t.cfg.DebugMode {
			klog.V(2).Infof("Skipping %s: filtered out", dotted)
		}
		return passThrough
	}

	ctx := &classContext{
		internalName:     cf.ThisName,
		superName:        cf.SuperName,
		classType:        ClassifySuper(cf.SuperName),
		lifecycleTargets: sets.New[string](),
	}

	ctx.trackScreen, ctx.trackable, err = extractClassMetadata(cf)
	if err != nil {
		t.reportError(dotted, report.AnnotationScan, "malformed class annotations", err, nil)
		return passThrough
	}
	if t.cfg.DebugMode {
		klog.V(2).Infof("Visiting %s (type=%s trackScreen=%v trackable=%v)",
			dotted, ctx.classType, ctx.trackScreen != nil, ctx.trackable)
	}

	// A class that already carries the helper method was woven by an
	// earlier pass; screen tracking must not be applied twice.
	alreadyWoven := cf.HasMethodNamed(HelperMethodName)

	result := Result{}
	var annotationErr, transformErr bool
	for _, m := range cf.Methods {
		if ctx.trackScreen != nil && !alreadyWoven {
			if d := DecideLifecycle(ctx.classType, m.Name, m.Desc); d.Instrument {
				injected, err := injectLifecycleCall(cf, m)
				if err != nil {
					if !transformErr {
						transformErr = true
						t.reportError(dotted, report.Transformation, "lifecycle injection failed", err,
							map[string]string{"method": m.Name + m.Desc, "reason": d.Reason})
					}
					continue
				}
				if injected {
					ctx.lifecycleTargets.Insert(m.Name)
					result.LifecycleTargets = append(result.LifecycleTargets, m.Name)
					result.Changed = true
				} else if t.cfg.DebugMode {
					klog.V(2).Infof("%s.%s has no super call; not injecting", dotted, m.Name)
				}
			}
		}

		if !t.cfg.MethodTrackingEnabled || t.excludeMethods.Has(m.Name) {
			continue
		}
		meta, err := extractTrackMetadata(m, cf.CP)
		if err != nil {
			if !annotationErr {
				annotationErr = true
				t.reportError(dotted, report.AnnotationScan, "malformed method annotations", err,
					map[string]string{"method": m.Name + m.Desc})
			}
			continue
		}
		if meta == nil {
			continue
		}
		injected, err := injectTrackCall(cf, m, meta, t.cfg.MaxParametersPerMethod)
		if err != nil {
			if !transformErr {
				transformErr = true
				t.reportError(dotted, report.Transformation, "@Track injection failed", err,
					map[string]string{"method": m.Name + m.Desc, "event": meta.EventName})
			}
			continue
		}
		if injected {
			result.TrackedMethods++
			result.Changed = true
			methodsTracked.Inc()
		}
	}

	// Helper synthesis is coupled to lifecycle injection: without a
	// rewritten caller the helper would be dead weight, and without the
	// helper the rewritten call would not link.
	if ctx.trackScreen != nil && ctx.lifecycleTargets.Len() > 0 {
		if err := synthesizeHelper(cf, ctx.trackScreen); err != nil {
			t.reportError(dotted, report.BytecodeWrite, "helper synthesis failed", err, nil)
			return passThrough
		}
		result.ScreenWoven = true
	} else if ctx.trackScreen != nil && !alreadyWoven {
		klog.V(2).Infof("%s has @TrackScreen but no instrumented lifecycle method", dotted)
	}

	if !result.Changed {
		return passThrough
	}
	out, err := cf.Write()
	if err != nil {
		t.reportError(dotted, report.BytecodeWrite, "cannot emit class file", err, nil)
		return passThrough
	}
	classesWoven.Inc()
	result.Bytes = out
	return result
}
