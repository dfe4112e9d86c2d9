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
	"encoding/binary"
	"fmt"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
)

// Annotation attributes scanned for weaving metadata. Kotlin emits
// CLASS-retention annotations into the invisible tables, so both variants
// are read.
var (
	classAnnotationAttrs = []string{"RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations"}
	paramAnnotationAttrs = []string{"RuntimeVisibleParameterAnnotations", "RuntimeInvisibleParameterAnnotations"}
)

// annotation is one parsed annotation with its element values. Only string
// and boolean members are resolved; everything else is skipped structurally.
type annotation struct {
	typeDesc string
	strings  map[string]string
	bools    map[string]bool
}

type annReader struct {
	b   []byte
	off int
}

func (r *annReader) u1() (byte, error) {
	if r.off+1 > len(r.b) {
		return 0, fmt.Errorf("truncated annotation at offset %d", r.off)
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

func (r *annReader) u2() (uint16, error) {
	if r.off+2 > len(r.b) {
		return 0, fmt.Errorf("truncated annotation at offset %d", r.off)
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v, nil
}

func parseAnnotationList(r *annReader, cp *classfile.ConstantPool) ([]annotation, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	anns := make([]annotation, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := parseAnnotation(r, cp)
		if err != nil {
			return nil, err
		}
		anns = append(anns, a)
	}
	return anns, nil
}

func parseAnnotation(r *annReader, cp *classfile.ConstantPool) (annotation, error) {
	a := annotation{strings: map[string]string{}, bools: map[string]bool{}}
	typeIdx, err := r.u2()
	if err != nil {
		return a, err
	}
	if a.typeDesc, err = cp.Utf8At(typeIdx); err != nil {
		return a, err
	}
	numPairs, err := r.u2()
	if err != nil {
		return a, err
	}
	for i := 0; i < int(numPairs); i++ {
		nameIdx, err := r.u2()
		if err != nil {
			return a, err
		}
		name, err := cp.Utf8At(nameIdx)
		if err != nil {
			return a, err
		}
		if err := parseElementValue(r, cp, &a, name); err != nil {
			return a, err
		}
	}
	return a, nil
}

// parseElementValue consumes one element_value, recording string and boolean
// constants under the given member name.
func parseElementValue(r *annReader, cp *classfile.ConstantPool, a *annotation, name string) error {
	tag, err := r.u1()
	if err != nil {
		return err
	}
	switch tag {
	case 's':
		idx, err := r.u2()
		if err != nil {
			return err
		}
		v, err := cp.Utf8At(idx)
		if err != nil {
			return fmt.Errorf("annotation member %q is not a string: %v", name, err)
		}
		a.strings[name] = v
	case 'Z':
		idx, err := r.u2()
		if err != nil {
			return err
		}
		v, err := cp.IntAt(idx)
		if err != nil {
			return fmt.Errorf("annotation member %q is not a boolean: %v", name, err)
		}
		a.bools[name] = v != 0
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'c':
		if _, err := r.u2(); err != nil {
			return err
		}
	case 'e':
		if _, err := r.u2(); err != nil {
			return err
		}
		if _, err := r.u2(); err != nil {
			return err
		}
	case '@':
		if _, err := parseAnnotation(r, cp); err != nil {
			return err
		}
	case '[':
		n, err := r.u2()
		if err != nil {
			return err
		}
		for i := 0; i < int(n); i++ {
			if err := parseElementValue(r, cp, a, name); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("bad element_value tag %q in annotation member %q", tag, name)
	}
	return nil
}

// annotationsIn parses the named annotation attributes of attrs.
func annotationsIn(attrs []classfile.Attribute, names []string, cp *classfile.ConstantPool) ([]annotation, error) {
	var all []annotation
	for i := range attrs {
		found := false
		for _, n := range names {
			if attrs[i].Name == n {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		anns, err := parseAnnotationList(&annReader{b: attrs[i].Data}, cp)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %v", attrs[i].Name, err)
		}
		all = append(all, anns...)
	}
	return all, nil
}

// parameterAnnotationsIn parses the parameter annotation attributes of a
// method into a per-parameter slice.
func parameterAnnotationsIn(m *classfile.Member, cp *classfile.ConstantPool) ([][]annotation, error) {
	var perParam [][]annotation
	for _, attrName := range paramAnnotationAttrs {
		a := m.Attr(attrName)
		if a == nil {
			continue
		}
		r := &annReader{b: a.Data}
		numParams, err := r.u1()
		if err != nil {
			return nil, err
		}
		if perParam == nil {
			perParam = make([][]annotation, numParams)
		} else if len(perParam) < int(numParams) {
			grown := make([][]annotation, numParams)
			copy(grown, perParam)
			perParam = grown
		}
		for i := 0; i < int(numParams); i++ {
			anns, err := parseAnnotationList(r, cp)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %v", attrName, err)
			}
			perParam[i] = append(perParam[i], anns...)
		}
	}
	return perParam, nil
}

// extractClassMetadata reads @TrackScreen and @Trackable from the class
// attributes. Both the value and screenName member spellings are accepted
// for the screen name; the explicit member wins when both are present.
func extractClassMetadata(cf *classfile.ClassFile) (*TrackScreenMetadata, bool, error) {
	anns, err := annotationsIn(cf.Attributes, classAnnotationAttrs, cf.CP)
	if err != nil {
		return nil, false, err
	}
	var meta *TrackScreenMetadata
	trackable := false
	for _, a := range anns {
		switch a.typeDesc {
		case TrackScreenDesc:
			m := &TrackScreenMetadata{}
			if v, ok := a.strings["value"]; ok {
				m.ScreenName = v
			}
			if v, ok := a.strings["screenName"]; ok {
				m.ScreenName = v
			}
			if v, ok := a.strings["screenClass"]; ok {
				m.ScreenClass = v
			}
			meta = m
		case TrackableDesc:
			trackable = true
		}
	}
	return meta, trackable, nil
}

// extractTrackMetadata reads @Track and the per-parameter @Param annotations
// from a method. Returns nil when the method carries no @Track.
func extractTrackMetadata(m *classfile.Member, cp *classfile.ConstantPool) (*TrackMetadata, error) {
	anns, err := annotationsIn(m.Attributes, classAnnotationAttrs, cp)
	if err != nil {
		return nil, err
	}
	var meta *TrackMetadata
	for _, a := range anns {
		if a.typeDesc != TrackDesc {
			continue
		}
		meta = &TrackMetadata{IncludeGlobalParams: true}
		if v, ok := a.strings["value"]; ok {
			meta.EventName = v
		}
		if v, ok := a.strings["eventName"]; ok {
			meta.EventName = v
		}
		if v, ok := a.bools["includeGlobalParams"]; ok {
			meta.IncludeGlobalParams = v
		}
	}
	if meta == nil {
		return nil, nil
	}

	perParam, err := parameterAnnotationsIn(m, cp)
	if err != nil {
		return nil, err
	}
	for index, anns := range perParam {
		for _, a := range anns {
			if a.typeDesc != ParamDesc {
				continue
			}
			name, ok := a.strings["value"]
			if v, present := a.strings["name"]; present {
				name, ok = v, true
			}
			if !ok {
				name = fmt.Sprintf("param%d", index)
			}
			meta.Params = append(meta.Params, ParamEntry{Index: index, Name: name})
			break
		}
	}
	return meta, nil
}
