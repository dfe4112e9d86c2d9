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

// injectTrackCall weaves the @Track entry prelude into a method:
//
//	ldc <eventName>
//	<parameters map>                     emptyMap or sized HashMap + puts
//	iconst_0 / iconst_1                  includeGlobalParams
//	invokestatic MethodTrackingManager.track(String,Map,Z)V
//
// before any original instruction. maxParams caps how many @Param values are
// captured.
func injectTrackCall(cf *classfile.ClassFile, m *classfile.Member, meta *TrackMetadata, maxParams int) (bool, error) {
	codeAttr := m.Attr(codeAttributeName)
	if codeAttr == nil {
		// Abstract or native; nothing to weave.
		return false, nil
	}
	code, err := classfile.ParseCode(codeAttr.Data, cf.CP)
	if err != nil {
		return false, fmt.Errorf("parsing %s%s code: %v", m.Name, m.Desc, err)
	}
	woven, err := hasTrackPrelude(code, cf.CP)
	if err != nil {
		return false, err
	}
	if woven {
		return false, nil
	}

	params, err := parseMethodParams(m.Desc)
	if err != nil {
		return false, err
	}
	static := m.AccessFlags&classfile.AccStatic != 0

	captured := meta.Params
	if len(captured) > maxParams {
		captured = captured[:maxParams]
	}
	for _, p := range captured {
		if p.Index < 0 || p.Index >= len(params) {
			return false, fmt.Errorf("@Param index %d out of range for %s%s", p.Index, m.Name, m.Desc)
		}
	}

	cp := cf.CP
	prelude := []*classfile.Insn{ldcString(cp, meta.EventName)}
	anyWide := false
	if len(captured) == 0 {
		emptyMap := cp.PutMethodref(collectionsClass, "emptyMap", emptyMapDesc)
		prelude = append(prelude, classfile.NewInsnU16(classfile.OpInvokestatic, emptyMap))
	} else {
		hashMap := cp.PutClass(hashMapClass)
		hashMapInit := cp.PutMethodref(hashMapClass, constructorName, hashMapInitDesc)
		mapPut := cp.PutInterfaceMethodref(mapClass, "put", mapPutDesc)
		prelude = append(prelude,
			classfile.NewInsnU16(classfile.OpNew, hashMap),
			classfile.NewInsn(classfile.OpDup),
			ldcInt(cp, int32(len(captured))),
			classfile.NewInsnU16(classfile.OpInvokespecial, hashMapInit),
		)
		for _, p := range captured {
			typeDesc := params[p.Index]
			if slotWidth(typeDesc) == 2 {
				anyWide = true
			}
			prelude = append(prelude,
				classfile.NewInsn(classfile.OpDup),
				ldcString(cp, p.Name),
				loadInsn(loadOp(typeDesc), paramSlot(params, p.Index, static)),
			)
			if owner, desc, ok := boxFor(typeDesc); ok {
				box := cp.PutMethodref(owner, "valueOf", desc)
				prelude = append(prelude, classfile.NewInsnU16(classfile.OpInvokestatic, box))
			}
			prelude = append(prelude,
				classfile.NewInsnOperands(classfile.OpInvokeinterface, byte(mapPut>>8), byte(mapPut), 3, 0),
				classfile.NewInsn(classfile.OpPop),
			)
		}
	}
	flag := classfile.NewInsn(classfile.OpIconst0)
	if meta.IncludeGlobalParams {
		flag = classfile.NewInsn(classfile.OpIconst1)
	}
	track := cp.PutMethodref(TrackManagerOwner, TrackManagerMethod, TrackManagerDesc)
	prelude = append(prelude, flag, classfile.NewInsnU16(classfile.OpInvokestatic, track))

	// Peak prelude stack: event name, two map refs, key, value (two slots
	// for long/double). The prelude runs on an empty operand stack.
	need := 3
	if len(captured) > 0 {
		need = 5
		if anyWide {
			need = 6
		}
	}
	if code.MaxStack < need {
		code.MaxStack = need
	}

	code.Insert(0, prelude...)
	data, err := code.Encode(cf.CP)
	if err != nil {
		return false, fmt.Errorf("encoding %s%s code: %v", m.Name, m.Desc, err)
	}
	codeAttr.Data = data
	return true, nil
}

// hasTrackPrelude reports whether the method entry already carries a woven
// track call, making re-transformation a no-op. The scan walks the leading
// instructions and stops at the first instruction that cannot belong to a
// woven prelude.
func hasTrackPrelude(code *classfile.Code, cp *classfile.ConstantPool) (bool, error) {
	for _, in := range code.Insns {
		switch in.Op {
		case classfile.OpLdc, classfile.OpLdcW, classfile.OpNew, classfile.OpDup,
			classfile.OpPop, classfile.OpIconst0, classfile.OpIconst1:
			continue
		case classfile.OpInvokestatic, classfile.OpInvokespecial, classfile.OpInvokeinterface:
			ref := uint16(in.Operands[0])<<8 | uint16(in.Operands[1])
			owner, name, _, err := cp.RefAt(ref)
			if err != nil {
				return false, err
			}
			if in.Op == classfile.OpInvokestatic && owner == TrackManagerOwner && name == TrackManagerMethod {
				return true, nil
			}
			switch {
			case in.Op == classfile.OpInvokespecial && owner == hashMapClass && name == constructorName:
			case in.Op == classfile.OpInvokeinterface && owner == mapClass && name == "put":
			case in.Op == classfile.OpInvokestatic && owner == collectionsClass && name == "emptyMap":
			case in.Op == classfile.OpInvokestatic && name == "valueOf":
			default:
				return false, nil
			}
		default:
			// Parameter loads appear mid-prelude; anything else means
			// the original body has begun.
			if in.Op >= classfile.OpIload && in.Op <= 45 {
				continue
			}
			return false, nil
		}
	}
	return false, nil
}
