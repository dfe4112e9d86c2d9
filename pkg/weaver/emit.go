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

import "github.com/sh3lan93/analytics-weaver/pkg/classfile"

// ldcInsn pushes the constant at the given pool index, widening to ldc_w
// when the index does not fit the one-byte form.
func ldcInsn(index uint16) *classfile.Insn {
	if index <= 0xff {
		return classfile.NewInsnU8(classfile.OpLdc, byte(index))
	}
	return classfile.NewInsnU16(classfile.OpLdcW, index)
}

// ldcString pushes a string constant.
func ldcString(cp *classfile.ConstantPool, s string) *classfile.Insn {
	return ldcInsn(cp.PutString(s))
}

// ldcInt pushes an int constant via the pool.
func ldcInt(cp *classfile.ConstantPool, v int32) *classfile.Insn {
	return ldcInsn(cp.PutInteger(v))
}

// loadInsn loads a local variable, using the compact zero-operand form for
// slots 0-3 and the wide form for slots beyond one byte.
func loadInsn(op byte, slot int) *classfile.Insn {
	if slot <= 3 {
		return classfile.NewInsn((op-classfile.OpIload)*4 + classfile.OpIload0 + byte(slot))
	}
	if slot <= 0xff {
		return classfile.NewInsnU8(op, byte(slot))
	}
	return classfile.NewInsnOperands(classfile.OpWide, op, byte(slot>>8), byte(slot))
}
