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

// Package validate re-parses emitted classes and checks the structural
// invariants the weaver must preserve. It backs the test suite and the
// driver's --validate mode.
package validate

import (
	"bytes"
	"fmt"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver"
)

// Report summarizes the structural comparison of an original class and its
// transformed output.
type Report struct {
	// ScreenHelperRefs counts constant-pool references to
	// TrackScreenHelper.trackScreen in the output.
	ScreenHelperRefs int
	// TrackManagerRefs counts constant-pool references to
	// MethodTrackingManager.track in the output.
	TrackManagerRefs int
	// HelperMethods counts __injectAnalyticsTracking methods in the
	// output.
	HelperMethods int
}

// Check re-parses the transformed bytes and verifies that the class-level
// shape of the original survived: same name, same super, same interfaces,
// and no method-body limits blown.
func Check(original, transformed []byte) (*Report, error) {
	origCF, err := classfile.Parse(original)
	if err != nil {
		return nil, fmt.Errorf("original does not parse: %v", err)
	}
	cf, err := classfile.Parse(transformed)
	if err != nil {
		return nil, fmt.Errorf("output does not re-parse: %v", err)
	}

	if cf.ThisName != origCF.ThisName {
		return nil, fmt.Errorf("class name changed: %s -> %s", origCF.ThisName, cf.ThisName)
	}
	if cf.SuperName != origCF.SuperName {
		return nil, fmt.Errorf("superclass changed: %s -> %s", origCF.SuperName, cf.SuperName)
	}
	origIfaces, err := origCF.InterfaceNames()
	if err != nil {
		return nil, err
	}
	ifaces, err := cf.InterfaceNames()
	if err != nil {
		return nil, err
	}
	if len(ifaces) != len(origIfaces) {
		return nil, fmt.Errorf("interface count changed: %d -> %d", len(origIfaces), len(ifaces))
	}
	for i := range ifaces {
		if ifaces[i] != origIfaces[i] {
			return nil, fmt.Errorf("interface %d changed: %s -> %s", i, origIfaces[i], ifaces[i])
		}
	}

	r := &Report{}
	for i := 1; i < cf.CP.Count(); i++ {
		if cf.CP.Entries[i].Tag != classfile.TagMethodref {
			continue
		}
		owner, name, _, err := cf.CP.RefAt(uint16(i))
		if err != nil {
			return nil, err
		}
		switch {
		case owner == weaver.ScreenHelperOwner && name == weaver.ScreenHelperMethod:
			r.ScreenHelperRefs++
		case owner == weaver.TrackManagerOwner && name == weaver.TrackManagerMethod:
			r.TrackManagerRefs++
		}
	}
	for _, m := range cf.Methods {
		if m.Name == weaver.HelperMethodName {
			r.HelperMethods++
		}
		if err := checkMethodLimits(cf, m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func checkMethodLimits(cf *classfile.ClassFile, m *classfile.Member) error {
	attr := m.Attr("Code")
	if attr == nil {
		return nil
	}
	code, err := classfile.ParseCode(attr.Data, cf.CP)
	if err != nil {
		return fmt.Errorf("method %s%s code does not parse: %v", m.Name, m.Desc, err)
	}
	if code.MaxStack > 0xffff || code.MaxLocals > 0xffff {
		return fmt.Errorf("method %s%s exceeds JVM frame limits (stack %d, locals %d)",
			m.Name, m.Desc, code.MaxStack, code.MaxLocals)
	}
	return nil
}

// Unchanged reports whether the transformation left the bytes untouched.
func Unchanged(original, transformed []byte) bool {
	return bytes.Equal(original, transformed)
}
