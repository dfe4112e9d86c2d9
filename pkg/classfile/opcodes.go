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

// Opcodes referenced by name elsewhere in the module.
const (
	OpNop             = 0
	OpIconst0         = 3
	OpIconst1         = 4
	OpBipush          = 16
	OpSipush          = 17
	OpLdc             = 18
	OpLdcW            = 19
	OpLdc2W           = 20
	OpIload           = 21
	OpLload           = 22
	OpFload           = 23
	OpDload           = 24
	OpAload           = 25
	OpIload0          = 26
	OpLload0          = 30
	OpFload0          = 34
	OpDload0          = 38
	OpAload0          = 42
	OpPop             = 87
	OpDup             = 89
	OpIinc            = 132
	OpGoto            = 167
	OpJsr             = 168
	OpRet             = 169
	OpTableswitch     = 170
	OpLookupswitch    = 171
	OpReturn          = 177
	OpGetstatic       = 178
	OpInvokevirtual   = 182
	OpInvokespecial   = 183
	OpInvokestatic    = 184
	OpInvokeinterface = 185
	OpInvokedynamic   = 186
	OpNew             = 187
	OpWide            = 196
	OpIfnull          = 198
	OpIfnonnull       = 199
	OpGotoW           = 200
	OpJsrW            = 201
)

// opLens maps an opcode to the number of operand bytes following it. -1
// marks variable-length instructions (wide, tableswitch, lookupswitch).
var opLens = [256]int{
	OpBipush: 1, OpSipush: 2,
	OpLdc: 1, OpLdcW: 2, OpLdc2W: 2,
	OpIload: 1, OpLload: 1, OpFload: 1, OpDload: 1, OpAload: 1,
	54: 1, 55: 1, 56: 1, 57: 1, 58: 1, // istore..astore
	OpIinc: 2,
	// if<cond>, if_icmp<cond>, if_acmp<cond>, goto, jsr
	153: 2, 154: 2, 155: 2, 156: 2, 157: 2, 158: 2,
	159: 2, 160: 2, 161: 2, 162: 2, 163: 2, 164: 2, 165: 2, 166: 2,
	OpGoto: 2, OpJsr: 2, OpRet: 1,
	OpTableswitch: -1, OpLookupswitch: -1,
	OpGetstatic: 2, 179: 2, 180: 2, 181: 2, // get/putstatic, get/putfield
	OpInvokevirtual: 2, OpInvokespecial: 2, OpInvokestatic: 2,
	OpInvokeinterface: 4, OpInvokedynamic: 4,
	OpNew: 2, 188: 1, 189: 2, // newarray, anewarray
	192: 2, 193: 2, // checkcast, instanceof
	OpWide: -1, 197: 3, // multianewarray
	OpIfnull: 2, OpIfnonnull: 2,
	OpGotoW: 4, OpJsrW: 4,
}

// isBranch16 reports whether op takes a signed 16-bit branch offset.
func isBranch16(op byte) bool {
	return (op >= 153 && op <= 168) || op == OpIfnull || op == OpIfnonnull
}

// isBranch32 reports whether op takes a signed 32-bit branch offset.
func isBranch32(op byte) bool {
	return op == OpGotoW || op == OpJsrW
}
