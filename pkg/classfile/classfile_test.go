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

package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) []byte {
	cf := NewClassFile(52, 0x0021, "com/x/Sample", "java/lang/Object")
	code := &Code{
		MaxStack:  1,
		MaxLocals: 1,
		Insns: []*Insn{
			NewInsn(OpAload0),
			NewInsnU16(OpInvokespecial, cf.CP.PutMethodref("java/lang/Object", "<init>", "()V")),
			NewInsn(OpReturn),
		},
	}
	data, err := code.Encode(cf.CP)
	require.NoError(t, err)
	cf.AddMethod(&Member{
		AccessFlags: 0x0001,
		NameIndex:   cf.CP.PutUtf8("<init>"),
		DescIndex:   cf.CP.PutUtf8("()V"),
		Name:        "<init>",
		Desc:        "()V",
		Attributes: []Attribute{{
			NameIndex: cf.CP.PutUtf8("Code"),
			Name:      "Code",
			Data:      data,
		}},
	})
	b, err := cf.Write()
	require.NoError(t, err)
	return b
}

func TestParseWriteRoundTrip(t *testing.T) {
	src := buildSample(t)

	cf, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, "com/x/Sample", cf.ThisName)
	assert.Equal(t, "java/lang/Object", cf.SuperName)
	require.Len(t, cf.Methods, 1)
	assert.Equal(t, "<init>", cf.Methods[0].Name)
	assert.Equal(t, "()V", cf.Methods[0].Desc)

	out, err := cf.Write()
	require.NoError(t, err)
	assert.Equal(t, src, out, "untouched parse/write must be byte-identical")
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, tc := range []struct {
		name string
		b    []byte
	}{
		{name: "empty", b: nil},
		{name: "bad magic", b: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52}},
		{name: "truncated", b: []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0}},
	} {
		_, err := Parse(tc.b)
		assert.Error(t, err, tc.name)
	}
}

func TestParseRejectsTrailingBytes(t *testing.T) {
	src := buildSample(t)
	_, err := Parse(append(src, 0x00))
	assert.Error(t, err)
}

func TestConstantPoolInterning(t *testing.T) {
	cp := NewConstantPool()
	a := cp.PutUtf8("hello")
	b := cp.PutUtf8("hello")
	assert.Equal(t, a, b)

	s1 := cp.PutString("hello")
	s2 := cp.PutString("hello")
	assert.Equal(t, s1, s2)

	m1 := cp.PutMethodref("java/util/Map", "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
	m2 := cp.PutMethodref("java/util/Map", "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
	assert.Equal(t, m1, m2)

	owner, name, desc, err := cp.RefAt(m1)
	require.NoError(t, err)
	assert.Equal(t, "java/util/Map", owner)
	assert.Equal(t, "put", name)
	assert.Equal(t, "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;", desc)

	i1 := cp.PutInteger(7)
	i2 := cp.PutInteger(7)
	assert.Equal(t, i1, i2)
	v, err := cp.IntAt(i1)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestConstantPoolTypeMismatch(t *testing.T) {
	cp := NewConstantPool()
	idx := cp.PutUtf8("x")
	_, err := cp.ClassNameAt(idx)
	assert.Error(t, err)
	_, err = cp.Utf8At(0)
	assert.Error(t, err)
	_, err = cp.Utf8At(9999)
	assert.Error(t, err)
}
