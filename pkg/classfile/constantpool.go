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

import "fmt"

// Constant-pool tags from the class-file format.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Constant is one constant-pool entry. The meaning of the operand fields
// depends on Tag. The slot following a Long or Double entry is a placeholder
// with Tag 0.
type Constant struct {
	Tag byte

	// A and B are the u2 operands for reference-style entries: Class name
	// index, String utf8 index, Fieldref/Methodref/InterfaceMethodref
	// class+nameAndType, NameAndType name+descriptor, MethodType
	// descriptor, Module/Package name, Dynamic/InvokeDynamic
	// bootstrap+nameAndType. For MethodHandle, A is the u1 reference kind
	// and B the u2 reference index.
	A, B uint16

	// Bits holds the raw value bits of Integer/Float (low 32 bits) and
	// Long/Double entries.
	Bits uint64

	// Utf8 holds the raw bytes of a Utf8 entry, exactly as read so that an
	// untouched pool round-trips byte-identically.
	Utf8 []byte
}

// ConstantPool holds the parsed pool. Entries is indexed by constant-pool
// index; index 0 is unused.
type ConstantPool struct {
	Entries []Constant

	err error // sticky append failure, surfaced at write time
}

func newConstantPool() *ConstantPool {
	return &ConstantPool{Entries: make([]Constant, 1)}
}

// Count returns the constant_pool_count value (number of slots plus one
// unused slot zero).
func (cp *ConstantPool) Count() int { return len(cp.Entries) }

func (cp *ConstantPool) at(index uint16, tag byte) (*Constant, error) {
	if int(index) == 0 || int(index) >= len(cp.Entries) {
		return nil, fmt.Errorf("constant pool index %d out of range (count %d)", index, len(cp.Entries))
	}
	c := &cp.Entries[index]
	if c.Tag != tag {
		return nil, fmt.Errorf("constant pool entry %d has tag %d, want %d", index, c.Tag, tag)
	}
	return c, nil
}

// Utf8At resolves a Utf8 entry to a string.
func (cp *ConstantPool) Utf8At(index uint16) (string, error) {
	c, err := cp.at(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return string(c.Utf8), nil
}

// ClassNameAt resolves a Class entry to its internal name.
func (cp *ConstantPool) ClassNameAt(index uint16) (string, error) {
	c, err := cp.at(index, TagClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8At(c.A)
}

// IntAt resolves an Integer entry to its value.
func (cp *ConstantPool) IntAt(index uint16) (int32, error) {
	c, err := cp.at(index, TagInteger)
	if err != nil {
		return 0, err
	}
	return int32(uint32(c.Bits)), nil
}

// StringAt resolves a String entry to its value.
func (cp *ConstantPool) StringAt(index uint16) (string, error) {
	c, err := cp.at(index, TagString)
	if err != nil {
		return "", err
	}
	return cp.Utf8At(c.A)
}

func (cp *ConstantPool) append(c Constant) uint16 {
	if cp.err != nil {
		return 0
	}
	if len(cp.Entries) >= 0xffff {
		cp.err = fmt.Errorf("constant pool overflow (%d entries)", len(cp.Entries))
		return 0
	}
	cp.Entries = append(cp.Entries, c)
	return uint16(len(cp.Entries) - 1)
}

// Err reports any append failure (constant pool overflow) recorded since
// parsing.
func (cp *ConstantPool) Err() error { return cp.err }

// PutUtf8 interns a Utf8 entry and returns its index.
func (cp *ConstantPool) PutUtf8(s string) uint16 {
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == TagUtf8 && string(cp.Entries[i].Utf8) == s {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagUtf8, Utf8: []byte(s)})
}

// PutInteger interns an Integer entry.
func (cp *ConstantPool) PutInteger(v int32) uint16 {
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == TagInteger && uint32(cp.Entries[i].Bits) == uint32(v) {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagInteger, Bits: uint64(uint32(v))})
}

// PutClass interns a Class entry for the given internal name.
func (cp *ConstantPool) PutClass(internalName string) uint16 {
	utf8 := cp.PutUtf8(internalName)
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == TagClass && cp.Entries[i].A == utf8 {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagClass, A: utf8})
}

// PutString interns a String entry for the given value.
func (cp *ConstantPool) PutString(s string) uint16 {
	utf8 := cp.PutUtf8(s)
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == TagString && cp.Entries[i].A == utf8 {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagString, A: utf8})
}

// PutNameAndType interns a NameAndType entry.
func (cp *ConstantPool) PutNameAndType(name, descriptor string) uint16 {
	n, d := cp.PutUtf8(name), cp.PutUtf8(descriptor)
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == TagNameAndType && cp.Entries[i].A == n && cp.Entries[i].B == d {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: TagNameAndType, A: n, B: d})
}

func (cp *ConstantPool) putRef(tag byte, owner, name, descriptor string) uint16 {
	c := cp.PutClass(owner)
	nat := cp.PutNameAndType(name, descriptor)
	for i := 1; i < len(cp.Entries); i++ {
		if cp.Entries[i].Tag == tag && cp.Entries[i].A == c && cp.Entries[i].B == nat {
			return uint16(i)
		}
	}
	return cp.append(Constant{Tag: tag, A: c, B: nat})
}

// PutMethodref interns a Methodref entry.
func (cp *ConstantPool) PutMethodref(owner, name, descriptor string) uint16 {
	return cp.putRef(TagMethodref, owner, name, descriptor)
}

// PutInterfaceMethodref interns an InterfaceMethodref entry.
func (cp *ConstantPool) PutInterfaceMethodref(owner, name, descriptor string) uint16 {
	return cp.putRef(TagInterfaceMethodref, owner, name, descriptor)
}

// RefAt resolves a Fieldref/Methodref/InterfaceMethodref entry to its owner
// internal name, member name and descriptor.
func (cp *ConstantPool) RefAt(index uint16) (owner, name, descriptor string, err error) {
	if int(index) == 0 || int(index) >= len(cp.Entries) {
		return "", "", "", fmt.Errorf("constant pool index %d out of range", index)
	}
	c := cp.Entries[index]
	switch c.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return "", "", "", fmt.Errorf("constant pool entry %d has tag %d, want a member reference", index, c.Tag)
	}
	if owner, err = cp.ClassNameAt(c.A); err != nil {
		return "", "", "", err
	}
	nat, err := cp.at(c.B, TagNameAndType)
	if err != nil {
		return "", "", "", err
	}
	if name, err = cp.Utf8At(nat.A); err != nil {
		return "", "", "", err
	}
	if descriptor, err = cp.Utf8At(nat.B); err != nil {
		return "", "", "", err
	}
	return owner, name, descriptor, nil
}
