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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
)

// annSpec assembles one annotation for a fixture class. Members keep their
// declaration order.
type annSpec struct {
	desc    string
	members []annMember
}

type annMember struct {
	name string
	str  *string
	b    *bool
}

func strMember(name, v string) annMember { return annMember{name: name, str: &v} }
func boolMember(name string, v bool) annMember {
	return annMember{name: name, b: &v}
}

func encodeAnnotations(cp *classfile.ConstantPool, specs []annSpec) []byte {
	var buf bytes.Buffer
	u2 := func(v uint16) { buf.WriteByte(byte(v >> 8)); buf.WriteByte(byte(v)) }
	u2(uint16(len(specs)))
	for _, s := range specs {
		u2(cp.PutUtf8(s.desc))
		u2(uint16(len(s.members)))
		for _, m := range s.members {
			u2(cp.PutUtf8(m.name))
			switch {
			case m.str != nil:
				buf.WriteByte('s')
				u2(cp.PutUtf8(*m.str))
			case m.b != nil:
				buf.WriteByte('Z')
				v := int32(0)
				if *m.b {
					v = 1
				}
				u2(cp.PutInteger(v))
			}
		}
	}
	return buf.Bytes()
}

func encodeParamAnnotations(cp *classfile.ConstantPool, perParam [][]annSpec) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(perParam)))
	for _, specs := range perParam {
		buf.Write(encodeAnnotations(cp, specs))
	}
	return buf.Bytes()
}

// methodSpec describes one fixture method. A nil body means no Code
// attribute (abstract/native). The body builder runs against the fixture's
// constant pool.
type methodSpec struct {
	access    uint16
	name      string
	desc      string
	maxStack  int
	maxLocals int
	body      func(cp *classfile.ConstantPool) []*classfile.Insn
	anns      []annSpec
	paramAnns [][]annSpec
	invisible bool // emit annotations into the Invisible tables
}

// buildClass assembles a fixture class file.
func buildClass(t *testing.T, thisName, superName string, classAnns []annSpec, methods ...methodSpec) []byte {
	t.Helper()
	cf := classfile.NewClassFile(52, 0x0021, thisName, superName)
	if classAnns != nil {
		cf.Attributes = append(cf.Attributes, newAttr(cf.CP, "RuntimeVisibleAnnotations", encodeAnnotations(cf.CP, classAnns)))
	}
	for _, spec := range methods {
		m := &classfile.Member{
			AccessFlags: spec.access,
			NameIndex:   cf.CP.PutUtf8(spec.name),
			DescIndex:   cf.CP.PutUtf8(spec.desc),
			Name:        spec.name,
			Desc:        spec.desc,
		}
		if spec.body != nil {
			code := &classfile.Code{
				MaxStack:  spec.maxStack,
				MaxLocals: spec.maxLocals,
				Insns:     spec.body(cf.CP),
			}
			data, err := code.Encode(cf.CP)
			require.NoError(t, err)
			m.Attributes = append(m.Attributes, newAttr(cf.CP, "Code", data))
		}
		annName, paramAnnName := "RuntimeVisibleAnnotations", "RuntimeVisibleParameterAnnotations"
		if spec.invisible {
			annName, paramAnnName = "RuntimeInvisibleAnnotations", "RuntimeInvisibleParameterAnnotations"
		}
		if spec.anns != nil {
			m.Attributes = append(m.Attributes, newAttr(cf.CP, annName, encodeAnnotations(cf.CP, spec.anns)))
		}
		if spec.paramAnns != nil {
			m.Attributes = append(m.Attributes, newAttr(cf.CP, paramAnnName, encodeParamAnnotations(cf.CP, spec.paramAnns)))
		}
		cf.AddMethod(m)
	}
	b, err := cf.Write()
	require.NoError(t, err)
	return b
}

func newAttr(cp *classfile.ConstantPool, name string, data []byte) classfile.Attribute {
	return classfile.Attribute{NameIndex: cp.PutUtf8(name), Name: name, Data: data}
}

// lifecycleBody builds the canonical super-calling lifecycle body: load this
// and the parameters, call super, return.
func lifecycleBody(superName, name, desc string, paramLoads ...byte) func(cp *classfile.ConstantPool) []*classfile.Insn {
	return func(cp *classfile.ConstantPool) []*classfile.Insn {
		insns := []*classfile.Insn{classfile.NewInsn(classfile.OpAload0)}
		for _, op := range paramLoads {
			insns = append(insns, classfile.NewInsn(op))
		}
		return append(insns,
			classfile.NewInsnU16(classfile.OpInvokespecial, cp.PutMethodref(superName, name, desc)),
			classfile.NewInsn(classfile.OpReturn),
		)
	}
}

func returnOnly(cp *classfile.ConstantPool) []*classfile.Insn {
	return []*classfile.Insn{classfile.NewInsn(classfile.OpReturn)}
}

// buildActivity assembles a @TrackScreen activity with a super-calling
// onCreate, mirroring what kotlinc emits for the common case.
func buildActivity(t *testing.T, thisName, superName string, anns []annSpec) []byte {
	t.Helper()
	return buildClass(t, thisName, superName, anns, methodSpec{
		access:    0x0004, // protected
		name:      ActivityOnCreateName,
		desc:      ActivityOnCreateDesc,
		maxStack:  2,
		maxLocals: 2,
		body:      lifecycleBody(superName, ActivityOnCreateName, ActivityOnCreateDesc, 43 /* aload_1 */),
	})
}

// disassemble parses a method body back into instructions for assertions.
func disassemble(t *testing.T, classBytes []byte, name, desc string) (*classfile.ClassFile, *classfile.Code) {
	t.Helper()
	cf, err := classfile.Parse(classBytes)
	require.NoError(t, err)
	m := cf.MethodByNameDesc(name, desc)
	require.NotNil(t, m, "method %s%s not found", name, desc)
	attr := m.Attr("Code")
	require.NotNil(t, attr)
	code, err := classfile.ParseCode(attr.Data, cf.CP)
	require.NoError(t, err)
	return cf, code
}

func opcodes(code *classfile.Code) []byte {
	ops := make([]byte, len(code.Insns))
	for i, in := range code.Insns {
		ops[i] = in.Op
	}
	return ops
}

func refOperand(t *testing.T, cf *classfile.ClassFile, in *classfile.Insn) (owner, name, desc string) {
	t.Helper()
	require.GreaterOrEqual(t, len(in.Operands), 2)
	idx := uint16(in.Operands[0])<<8 | uint16(in.Operands[1])
	owner, name, desc, err := cf.CP.RefAt(idx)
	require.NoError(t, err)
	return owner, name, desc
}

func ldcIndex(t *testing.T, in *classfile.Insn) uint16 {
	t.Helper()
	switch in.Op {
	case classfile.OpLdc:
		return uint16(in.Operands[0])
	case classfile.OpLdcW:
		return uint16(in.Operands[0])<<8 | uint16(in.Operands[1])
	default:
		t.Fatalf("instruction %d is not an ldc", in.Op)
		return 0
	}
}

func constString(t *testing.T, cf *classfile.ClassFile, in *classfile.Insn) string {
	t.Helper()
	s, err := cf.CP.StringAt(ldcIndex(t, in))
	require.NoError(t, err)
	return s
}

func constInt(t *testing.T, cf *classfile.ClassFile, in *classfile.Insn) int32 {
	t.Helper()
	v, err := cf.CP.IntAt(ldcIndex(t, in))
	require.NoError(t, err)
	return v
}
