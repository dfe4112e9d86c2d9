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
	"fmt"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
)

// injectLifecycleCall rewrites a lifecycle method body, inserting
//
//	aload_0
//	invokespecial this.__injectAnalyticsTracking()V
//
// immediately after the super call the method makes to its own name and
// descriptor. The injection is one-shot; without a super call the method is
// left untouched.
func injectLifecycleCall(cf *classfile.ClassFile, m *classfile.Member) (bool, error) {
	codeAttr := m.Attr(codeAttributeName)
	if codeAttr == nil {
		return false, nil
	}
	code, err := classfile.ParseCode(codeAttr.Data, cf.CP)
	if err != nil {
		return false, fmt.Errorf("parsing %s%s code: %v", m.Name, m.Desc, err)
	}

	at := -1
	for i, in := range code.Insns {
		if in.Op != classfile.OpInvokespecial {
			continue
		}
		if len(in.Operands) != 2 {
			return false, fmt.Errorf("malformed invokespecial in %s%s", m.Name, m.Desc)
		}
		ref := uint16(in.Operands[0])<<8 | uint16(in.Operands[1])
		_, name, desc, err := cf.CP.RefAt(ref)
		if err != nil {
			return false, err
		}
		if name == m.Name && desc == m.Desc {
			at = i
			break
		}
	}
	if at < 0 {
		// The user did not call super; deliberately conservative.
		return false, nil
	}

	helper := cf.CP.PutMethodref(cf.ThisName, HelperMethodName, HelperMethodDesc)
	code.Insert(at+1,
		classfile.NewInsn(classfile.OpAload0),
		classfile.NewInsnU16(classfile.OpInvokespecial, helper),
	)
	// The operand stack is not tracked at the insertion point, so the
	// extra this reference is budgeted on top of the existing maximum.
	code.MaxStack++

	data, err := code.Encode(cf.CP)
	if err != nil {
		return false, fmt.Errorf("encoding %s%s code: %v", m.Name, m.Desc, err)
	}
	codeAttr.Data = data
	return true, nil
}
