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

// Package e2e synthesizes class-file fixtures for the end-to-end suite,
// standing in for a compiler toolchain in the test environment.
package e2e

import (
	"bytes"
	"fmt"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
	"github.com/sh3lan93/analytics-weaver/pkg/weaver"
)

type annotationWriter struct {
	cp  *classfile.ConstantPool
	buf bytes.Buffer
}

func (w *annotationWriter) u2(v uint16) {
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v))
}

func (w *annotationWriter) stringAnnotation(desc string, members map[string]string) {
	w.u2(w.cp.PutUtf8(desc))
	w.u2(uint16(len(members)))
	for name, value := range members {
		w.u2(w.cp.PutUtf8(name))
		w.buf.WriteByte('s')
		w.u2(w.cp.PutUtf8(value))
	}
}

// TrackScreenActivity builds an AppCompatActivity carrying
// @TrackScreen(screenName=<screenName>) with a super-calling onCreate.
func TrackScreenActivity(internalName, screenName string) ([]byte, error) {
	cf := classfile.NewClassFile(52, 0x0021, internalName, "androidx/appcompat/app/AppCompatActivity")

	w := &annotationWriter{cp: cf.CP}
	w.u2(1)
	w.stringAnnotation(weaver.TrackScreenDesc, map[string]string{"screenName": screenName})
	cf.Attributes = append(cf.Attributes, classfile.Attribute{
		NameIndex: cf.CP.PutUtf8("RuntimeVisibleAnnotations"),
		Name:      "RuntimeVisibleAnnotations",
		Data:      w.buf.Bytes(),
	})

	code := &classfile.Code{
		MaxStack:  2,
		MaxLocals: 2,
		Insns: []*classfile.Insn{
			classfile.NewInsn(classfile.OpAload0),
			classfile.NewInsn(43), // aload_1
			classfile.NewInsnU16(classfile.OpInvokespecial, cf.CP.PutMethodref(
				"androidx/appcompat/app/AppCompatActivity",
				weaver.ActivityOnCreateName, weaver.ActivityOnCreateDesc)),
			classfile.NewInsn(classfile.OpReturn),
		},
	}
	data, err := code.Encode(cf.CP)
	if err != nil {
		return nil, fmt.Errorf("encoding onCreate: %v", err)
	}
	cf.AddMethod(&classfile.Member{
		AccessFlags: 0x0004,
		NameIndex:   cf.CP.PutUtf8(weaver.ActivityOnCreateName),
		DescIndex:   cf.CP.PutUtf8(weaver.ActivityOnCreateDesc),
		Name:        weaver.ActivityOnCreateName,
		Desc:        weaver.ActivityOnCreateDesc,
		Attributes: []classfile.Attribute{{
			NameIndex: cf.CP.PutUtf8("Code"),
			Name:      "Code",
			Data:      data,
		}},
	})
	return cf.Write()
}

// TrackedService builds a plain class with one @Track(eventName=<event>)
// method taking a single @Param("user_id") String parameter.
func TrackedService(internalName, event string) ([]byte, error) {
	cf := classfile.NewClassFile(52, 0x0021, internalName, "java/lang/Object")

	code := &classfile.Code{
		MaxStack:  1,
		MaxLocals: 2,
		Insns:     []*classfile.Insn{classfile.NewInsn(classfile.OpReturn)},
	}
	data, err := code.Encode(cf.CP)
	if err != nil {
		return nil, fmt.Errorf("encoding method: %v", err)
	}

	anns := &annotationWriter{cp: cf.CP}
	anns.u2(1)
	anns.stringAnnotation(weaver.TrackDesc, map[string]string{"eventName": event})

	paramAnns := &annotationWriter{cp: cf.CP}
	paramAnns.buf.WriteByte(1)
	paramAnns.u2(1)
	paramAnns.stringAnnotation(weaver.ParamDesc, map[string]string{"name": "user_id"})

	cf.AddMethod(&classfile.Member{
		AccessFlags: 0x0001,
		NameIndex:   cf.CP.PutUtf8("doIt"),
		DescIndex:   cf.CP.PutUtf8("(Ljava/lang/String;)V"),
		Name:        "doIt",
		Desc:        "(Ljava/lang/String;)V",
		Attributes: []classfile.Attribute{
			{
				NameIndex: cf.CP.PutUtf8("Code"),
				Name:      "Code",
				Data:      data,
			},
			{
				NameIndex: cf.CP.PutUtf8("RuntimeVisibleAnnotations"),
				Name:      "RuntimeVisibleAnnotations",
				Data:      anns.buf.Bytes(),
			},
			{
				NameIndex: cf.CP.PutUtf8("RuntimeVisibleParameterAnnotations"),
				Name:      "RuntimeVisibleParameterAnnotations",
				Data:      paramAnns.buf.Bytes(),
			},
		},
	})
	return cf.Write()
}

// PlainClass builds an annotation-free class that must always pass through
// byte-identical.
func PlainClass(internalName string) ([]byte, error) {
	cf := classfile.NewClassFile(52, 0x0021, internalName, "java/lang/Object")
	code := &classfile.Code{
		MaxStack:  1,
		MaxLocals: 1,
		Insns: []*classfile.Insn{
			classfile.NewInsn(classfile.OpAload0),
			classfile.NewInsnU16(classfile.OpInvokespecial, cf.CP.PutMethodref("java/lang/Object", "<init>", "()V")),
			classfile.NewInsn(classfile.OpReturn),
		},
	}
	data, err := code.Encode(cf.CP)
	if err != nil {
		return nil, err
	}
	cf.AddMethod(&classfile.Member{
		AccessFlags: 0x0001,
		NameIndex:   cf.CP.PutUtf8("<init>"),
		DescIndex:   cf.CP.PutUtf8("()V"),
		Name:        "<init>",
		Desc:        "()V",
		Attributes: []classfile.Attribute{{
			NameIndex: cf.CP.PutUtf8("Code"),
			Name:      "Code",
			Data:      data,
		}},
	})
	return cf.Write()
}
