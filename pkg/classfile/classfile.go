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

// Package classfile parses and emits JVM class files. It models the file
// closely enough to rewrite method bodies and append constants and methods
// while leaving everything untouched byte-identical on the way out.
package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const magic = 0xCAFEBABE

// Method access flags used during weaving.
const (
	AccPrivate  = 0x0002
	AccStatic   = 0x0008
	AccNative   = 0x0100
	AccAbstract = 0x0400
)

// Attribute is a raw class, field, method or code attribute. Name is
// resolved from the constant pool at parse time for convenience; Data is the
// attribute body, untouched unless the weaver rewrites it.
type Attribute struct {
	NameIndex uint16
	Name      string
	Data      []byte
}

// Member is one field or method.
type Member struct {
	AccessFlags uint16
	NameIndex   uint16
	DescIndex   uint16
	Name        string
	Desc        string
	Attributes  []Attribute
}

// Attr returns the member's attribute with the given name, or nil.
func (m *Member) Attr(name string) *Attribute {
	for i := range m.Attributes {
		if m.Attributes[i].Name == name {
			return &m.Attributes[i]
		}
	}
	return nil
}

// ClassFile is a parsed class file.
type ClassFile struct {
	Minor, Major uint16
	CP           *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	ThisName     string
	SuperName    string // "" when the class is java/lang/Object
	Interfaces   []uint16
	Fields       []*Member
	Methods      []*Member
	Attributes   []Attribute
}

type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

func (r *reader) u1() byte {
	if r.err != nil {
		return 0
	}
	if r.off+1 > len(r.b) {
		r.fail("truncated class file at offset %d", r.off)
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if r.err != nil {
		return 0
	}
	if r.off+2 > len(r.b) {
		r.fail("truncated class file at offset %d", r.off)
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.b) {
		r.fail("truncated class file at offset %d", r.off)
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.b) {
		r.fail("truncated class file at offset %d (want %d bytes)", r.off, n)
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

// NewConstantPool returns an empty pool.
func NewConstantPool() *ConstantPool { return newConstantPool() }

// NewClassFile builds a class from scratch, for synthesizing fixtures and
// helper classes. superName may be empty for java/lang/Object itself.
func NewClassFile(major uint16, accessFlags uint16, thisName, superName string) *ClassFile {
	cf := &ClassFile{
		Major:       major,
		CP:          newConstantPool(),
		AccessFlags: accessFlags,
		ThisName:    thisName,
		SuperName:   superName,
	}
	cf.ThisClass = cf.CP.PutClass(thisName)
	if superName != "" {
		cf.SuperClass = cf.CP.PutClass(superName)
	}
	return cf
}

// Parse decodes a class file.
func Parse(b []byte) (*ClassFile, error) {
	r := &reader{b: b}
	if m := r.u4(); r.err == nil && m != magic {
		return nil, fmt.Errorf("bad magic 0x%08X", m)
	}
	cf := &ClassFile{CP: newConstantPool()}
	cf.Minor = r.u2()
	cf.Major = r.u2()

	cpCount := int(r.u2())
	for i := 1; i < cpCount && r.err == nil; i++ {
		tag := r.u1()
		c := Constant{Tag: tag}
		switch tag {
		case TagUtf8:
			n := int(r.u2())
			c.Utf8 = append([]byte(nil), r.take(n)...)
		case TagInteger, TagFloat:
			c.Bits = uint64(r.u4())
		case TagLong, TagDouble:
			c.Bits = uint64(r.u4())<<32 | uint64(r.u4())
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			c.A = r.u2()
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType,
			TagDynamic, TagInvokeDynamic:
			c.A = r.u2()
			c.B = r.u2()
		case TagMethodHandle:
			c.A = uint16(r.u1())
			c.B = r.u2()
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at entry %d", tag, i)
		}
		cf.CP.Entries = append(cf.CP.Entries, c)
		if tag == TagLong || tag == TagDouble {
			cf.CP.Entries = append(cf.CP.Entries, Constant{})
			i++
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	cf.AccessFlags = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()
	ifCount := int(r.u2())
	for i := 0; i < ifCount; i++ {
		cf.Interfaces = append(cf.Interfaces, r.u2())
	}

	var err error
	if cf.Fields, err = readMembers(r, cf.CP); err != nil {
		return nil, err
	}
	if cf.Methods, err = readMembers(r, cf.CP); err != nil {
		return nil, err
	}
	if cf.Attributes, err = readAttributes(r, cf.CP); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(b) {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(b)-r.off)
	}

	if cf.ThisName, err = cf.CP.ClassNameAt(cf.ThisClass); err != nil {
		return nil, fmt.Errorf("resolving this_class: %v", err)
	}
	if cf.SuperClass != 0 {
		if cf.SuperName, err = cf.CP.ClassNameAt(cf.SuperClass); err != nil {
			return nil, fmt.Errorf("resolving super_class: %v", err)
		}
	}
	return cf, nil
}

func readMembers(r *reader, cp *ConstantPool) ([]*Member, error) {
	count := int(r.u2())
	members := make([]*Member, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		m := &Member{
			AccessFlags: r.u2(),
			NameIndex:   r.u2(),
			DescIndex:   r.u2(),
		}
		var err error
		if m.Attributes, err = readAttributes(r, cp); err != nil {
			return nil, err
		}
		if m.Name, err = cp.Utf8At(m.NameIndex); err != nil {
			return nil, fmt.Errorf("resolving member name: %v", err)
		}
		if m.Desc, err = cp.Utf8At(m.DescIndex); err != nil {
			return nil, fmt.Errorf("resolving member descriptor: %v", err)
		}
		members = append(members, m)
	}
	return members, r.err
}

func readAttributes(r *reader, cp *ConstantPool) ([]Attribute, error) {
	count := int(r.u2())
	attrs := make([]Attribute, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		a := Attribute{NameIndex: r.u2()}
		n := int(r.u4())
		a.Data = append([]byte(nil), r.take(n)...)
		var err error
		if a.Name, err = cp.Utf8At(a.NameIndex); err != nil {
			return nil, fmt.Errorf("resolving attribute name: %v", err)
		}
		attrs = append(attrs, a)
	}
	return attrs, r.err
}

// MethodByNameDesc returns the method with the given name and descriptor, or
// nil.
func (cf *ClassFile) MethodByNameDesc(name, desc string) *Member {
	for _, m := range cf.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}
	return nil
}

// HasMethodNamed reports whether any method has the given name.
func (cf *ClassFile) HasMethodNamed(name string) bool {
	for _, m := range cf.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// InterfaceNames resolves the direct interfaces to internal names.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		n, err := cf.CP.ClassNameAt(idx)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

// AddMethod appends a method to the class.
func (cf *ClassFile) AddMethod(m *Member) {
	cf.Methods = append(cf.Methods, m)
}

// Write serializes the class file.
func (cf *ClassFile) Write() ([]byte, error) {
	if err := cf.CP.Err(); err != nil {
		return nil, err
	}
	var w bytes.Buffer
	wu2 := func(v uint16) {
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], v)
		w.Write(b[:])
	}
	wu4 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		w.Write(b[:])
	}

	wu4(magic)
	wu2(cf.Minor)
	wu2(cf.Major)

	wu2(uint16(cf.CP.Count()))
	for i := 1; i < cf.CP.Count(); i++ {
		c := cf.CP.Entries[i]
		w.WriteByte(c.Tag)
		switch c.Tag {
		case TagUtf8:
			if len(c.Utf8) > 0xffff {
				return nil, fmt.Errorf("utf8 constant too long (%d bytes)", len(c.Utf8))
			}
			wu2(uint16(len(c.Utf8)))
			w.Write(c.Utf8)
		case TagInteger, TagFloat:
			wu4(uint32(c.Bits))
		case TagLong, TagDouble:
			wu4(uint32(c.Bits >> 32))
			wu4(uint32(c.Bits))
			i++ // skip placeholder slot
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			wu2(c.A)
		case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType,
			TagDynamic, TagInvokeDynamic:
			wu2(c.A)
			wu2(c.B)
		case TagMethodHandle:
			w.WriteByte(byte(c.A))
			wu2(c.B)
		default:
			return nil, fmt.Errorf("unknown constant pool tag %d at entry %d", c.Tag, i)
		}
	}

	wu2(cf.AccessFlags)
	wu2(cf.ThisClass)
	wu2(cf.SuperClass)
	wu2(uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		wu2(idx)
	}

	writeMembers := func(members []*Member) error {
		wu2(uint16(len(members)))
		for _, m := range members {
			wu2(m.AccessFlags)
			wu2(m.NameIndex)
			wu2(m.DescIndex)
			if err := writeAttributes(&w, m.Attributes); err != nil {
				return err
			}
		}
		return nil
	}
	if err := writeMembers(cf.Fields); err != nil {
		return nil, err
	}
	if err := writeMembers(cf.Methods); err != nil {
		return nil, err
	}
	if err := writeAttributes(&w, cf.Attributes); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeAttributes(w *bytes.Buffer, attrs []Attribute) error {
	var b [4]byte
	binary.BigEndian.PutUint16(b[:2], uint16(len(attrs)))
	w.Write(b[:2])
	for _, a := range attrs {
		binary.BigEndian.PutUint16(b[:2], a.NameIndex)
		w.Write(b[:2])
		if uint64(len(a.Data)) > 0xffffffff {
			return fmt.Errorf("attribute %s too large", a.Name)
		}
		binary.BigEndian.PutUint32(b[:], uint32(len(a.Data)))
		w.Write(b[:])
		w.Write(a.Data)
	}
	return nil
}
