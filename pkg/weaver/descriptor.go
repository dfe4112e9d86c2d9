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
	"strings"

	"github.com/sh3lan93/analytics-weaver/pkg/classfile"
)

// parseMethodParams splits a method descriptor into its parameter type
// descriptors, in order.
func parseMethodParams(desc string) ([]string, error) {
	if len(desc) < 2 || desc[0] != '(' {
		return nil, fmt.Errorf("malformed method descriptor %q", desc)
	}
	var params []string
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i >= len(desc) {
			return nil, fmt.Errorf("malformed method descriptor %q", desc)
		}
		switch desc[i] {
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			i++
		case 'L':
			end := strings.IndexByte(desc[i:], ';')
			if end < 0 {
				return nil, fmt.Errorf("malformed method descriptor %q", desc)
			}
			i += end + 1
		default:
			return nil, fmt.Errorf("malformed method descriptor %q", desc)
		}
		params = append(params, desc[start:i])
	}
	if i >= len(desc) || desc[i] != ')' {
		return nil, fmt.Errorf("malformed method descriptor %q", desc)
	}
	return params, nil
}

// slotWidth returns the number of local-variable slots a value of the given
// type occupies.
func slotWidth(typeDesc string) int {
	if typeDesc == "J" || typeDesc == "D" {
		return 2
	}
	return 1
}

// paramSlot computes the local-variable slot of the parameter at the given
// source index. Instance methods start at slot 1, skipping this.
func paramSlot(params []string, index int, static bool) int {
	slot := 0
	if !static {
		slot = 1
	}
	for i := 0; i < index; i++ {
		slot += slotWidth(params[i])
	}
	return slot
}

// loadOp returns the load opcode family for the given type descriptor.
func loadOp(typeDesc string) byte {
	switch typeDesc {
	case "I", "Z", "B", "S", "C":
		return classfile.OpIload
	case "J":
		return classfile.OpLload
	case "F":
		return classfile.OpFload
	case "D":
		return classfile.OpDload
	default:
		return classfile.OpAload
	}
}

// boxFor returns the wrapper valueOf target for a primitive type
// descriptor, or ok=false for reference and array types.
func boxFor(typeDesc string) (owner, methodDesc string, ok bool) {
	switch typeDesc {
	case "I":
		return "java/lang/Integer", "(I)Ljava/lang/Integer;", true
	case "J":
		return "java/lang/Long", "(J)Ljava/lang/Long;", true
	case "F":
		return "java/lang/Float", "(F)Ljava/lang/Float;", true
	case "D":
		return "java/lang/Double", "(D)Ljava/lang/Double;", true
	case "Z":
		return "java/lang/Boolean", "(Z)Ljava/lang/Boolean;", true
	case "B":
		return "java/lang/Byte", "(B)Ljava/lang/Byte;", true
	case "S":
		return "java/lang/Short", "(S)Ljava/lang/Short;", true
	case "C":
		return "java/lang/Character", "(C)Ljava/lang/Character;", true
	default:
		return "", "", false
	}
}
