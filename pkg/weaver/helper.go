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

// synthesizeHelper appends the private __injectAnalyticsTracking()V method:
//
//	aload_0
//	ldc <screenName>
//	ldc <screenClass>
//	invokestatic TrackScreenHelper.trackScreen(Object,String,String)V
//	return
//
// The body is straight-line, so no StackMapTable is required at any class
// file version.
func synthesizeHelper(cf *classfile.ClassFile, meta *TrackScreenMetadata) error {
	screenName := meta.ScreenName
	if screenName == "" {
		screenName = defaultScreenName(cf.ThisName)
	}
	screenClass := meta.ScreenClass
	if screenClass == "" {
		screenClass = simpleName(cf.ThisName)
	}

	target := cf.CP.PutMethodref(ScreenHelperOwner, ScreenHelperMethod, ScreenHelperDesc)
	code := &classfile.Code{
		MaxStack:  3,
		MaxLocals: 1,
		Insns: []*classfile.Insn{
			classfile.NewInsn(classfile.OpAload0),
			ldcString(cf.CP, screenName),
			ldcString(cf.CP, screenClass),
			classfile.NewInsnU16(classfile.OpInvokestatic, target),
			classfile.NewInsn(classfile.OpReturn),
		},
	}
	data, err := code.Encode(cf.CP)
	if err != nil {
		return fmt.Errorf("encoding helper method: %v", err)
	}

	cf.AddMethod(&classfile.Member{
		AccessFlags: classfile.AccPrivate,
		NameIndex:   cf.CP.PutUtf8(HelperMethodName),
		DescIndex:   cf.CP.PutUtf8(HelperMethodDesc),
		Name:        HelperMethodName,
		Desc:        HelperMethodDesc,
		Attributes: []classfile.Attribute{{
			NameIndex: cf.CP.PutUtf8(codeAttributeName),
			Name:      codeAttributeName,
			Data:      data,
		}},
	})
	return nil
}
