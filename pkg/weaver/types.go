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

	"k8s.io/apimachinery/pkg/util/sets"
)

// ClassType classifies a class by its immediate superclass.
type ClassType int

const (
	ClassOther ClassType = iota
	ClassActivity
	ClassFragment
)

func (t ClassType) String() string {
	switch t {
	case ClassActivity:
		return "Activity"
	case ClassFragment:
		return "Fragment"
	default:
		return "Other"
	}
}

// TrackScreenMetadata holds the members captured from a class-level
// @TrackScreen annotation. Empty values fall back to names derived from the
// class's simple name at emission time.
type TrackScreenMetadata struct {
	ScreenName  string
	ScreenClass string
}

// ParamEntry is one @Param-annotated parameter. Index is the zero-based
// source parameter index, not a local-variable slot.
type ParamEntry struct {
	Index int
	Name  string
}

// TrackMetadata holds the members captured from a method-level @Track
// annotation plus its @Param parameters in discovery order.
type TrackMetadata struct {
	EventName           string
	IncludeGlobalParams bool
	Params              []ParamEntry
}

// classContext is the per-class transformation state. It is created when a
// class visit starts and discarded at class end; nothing survives across
// classes except the error reporter and the read-only config.
type classContext struct {
	internalName     string
	superName        string
	classType        ClassType
	trackScreen      *TrackScreenMetadata
	trackable        bool
	lifecycleTargets sets.Set[string]
}

// simpleName returns the class's simple name: the internal name with the
// package and any enclosing class prefix removed.
func simpleName(internalName string) string {
	s := internalName
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '$'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// defaultScreenName strips one trailing Activity/Fragment/Screen suffix from
// the class's simple name.
func defaultScreenName(internalName string) string {
	name := simpleName(internalName)
	for _, suffix := range []string{"Activity", "Fragment", "Screen"} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
