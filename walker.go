// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// Payload identifiers: the code unit's low byte is the nop opcode (0x00)
// and its high byte names which payload follows.
const (
	pseudoPackedSwitch  = 0x0100
	pseudoSparseSwitch  = 0x0200
	pseudoFillArrayData = 0x0300
)

// OpcodeHit is one (opcode, pc) pair emitted while walking a code item's
// instruction buffer. pc is the code-unit offset from the start of Insns.
type OpcodeHit struct {
	Opcode Opcode
	PC     int
}

// StringRef is one const-string/const-string-jumbo operand.
type StringRef struct {
	PC        int
	StringIdx uint32
}

// FieldRef is one iget*/iput*/sget*/sput* operand.
type FieldRef struct {
	PC       int
	FieldIdx uint32
	Access   FieldAccessKind
}

// MethodRef is one invoke-* operand.
type MethodRef struct {
	PC        int
	MethodIdx uint32
	Kind      InvokeKind
	Range     bool
}

// WalkResult collects every stream the walker can emit from a single pass
// over a code item's instructions.
type WalkResult struct {
	Opcodes []OpcodeHit
	Strings []StringRef
	Fields  []FieldRef
	Methods []MethodRef
}

// walkCode walks ci.Insns once, emitting opcode, string, field and method
// reference streams in source order. Payload pseudo-instructions
// (packed-switch, sparse-switch, fill-array-data) are recognized and
// skipped using their own embedded length header rather than the opcode
// format table, since they carry no opcode byte of their own beyond the
// leading nop.
func walkCode(ci *CodeItem) *WalkResult {
	res := &WalkResult{}
	insns := ci.Insns
	pc := 0
	for pc < len(insns) {
		unit := insns[pc]
		op := Opcode(unit & 0xff)

		// The payload's ident is the code unit at pc itself; a padding nop
		// only precedes it when the verifier's even-alignment rule demands
		// one, which depends on the lengths of preceding instructions and
		// is not the common case. Check unit directly first and only fall
		// back to the padding-nop layout when unit is a genuine nop.
		switch unit {
		case pseudoPackedSwitch:
			pc += packedSwitchPayloadWidth(insns, pc)
			continue
		case pseudoSparseSwitch:
			pc += sparseSwitchPayloadWidth(insns, pc)
			continue
		case pseudoFillArrayData:
			pc += fillArrayDataPayloadWidth(insns, pc)
			continue
		}
		if op == OpNop && pc+1 < len(insns) {
			switch insns[pc+1] {
			case pseudoPackedSwitch:
				pc += 1 + packedSwitchPayloadWidth(insns, pc+1)
				continue
			case pseudoSparseSwitch:
				pc += 1 + sparseSwitchPayloadWidth(insns, pc+1)
				continue
			case pseudoFillArrayData:
				pc += 1 + fillArrayDataPayloadWidth(insns, pc+1)
				continue
			}
		}

		res.Opcodes = append(res.Opcodes, OpcodeHit{Opcode: op, PC: pc})

		format := formatTable[op]
		width := InstructionWidth(format)
		if width == 0 {
			width = 1 // unknown/reserved opcode: advance minimally rather than loop forever.
		}

		switch {
		case op == OpConstString && format == Fmt21c:
			res.Strings = append(res.Strings, StringRef{PC: pc, StringIdx: uint32(insns[pc+1])})
		case op == OpConstStringJumbo && format == Fmt31c:
			res.Strings = append(res.Strings, StringRef{PC: pc, StringIdx: u32From2Units(insns, pc+1)})
		case op.isInstanceFieldOp() || op.isStaticFieldOp():
			res.Fields = append(res.Fields, FieldRef{
				PC:       pc,
				FieldIdx: uint32(insns[pc+1]),
				Access:   op.fieldAccessKind(),
			})
		case op.isInvoke():
			res.Methods = append(res.Methods, MethodRef{
				PC:        pc,
				MethodIdx: uint32(insns[pc+1]),
				Kind:      op.invokeKind(),
				Range:     false,
			})
		case op.isInvokeRange():
			res.Methods = append(res.Methods, MethodRef{
				PC:        pc,
				MethodIdx: uint32(insns[pc+1]),
				Kind:      op.invokeKind(),
				Range:     true,
			})
		}

		pc += width
	}
	return res
}

// u32From2Units reassembles a 32-bit little-endian value from two
// consecutive 16-bit code units, as const-string/jumbo's operand is
// encoded.
func u32From2Units(insns []uint16, at int) uint32 {
	if at+1 >= len(insns) {
		return 0
	}
	return uint32(insns[at]) | uint32(insns[at+1])<<16
}

// packed-switch-payload: ushort ident; ushort size; int first_key;
// int[size] targets. Total width = 4 + size*2 code units. ipc is the code
// unit holding ident itself.
func packedSwitchPayloadWidth(insns []uint16, ipc int) int {
	if ipc+1 >= len(insns) {
		return 1
	}
	size := int(insns[ipc+1])
	return 4 + size*2
}

// sparse-switch-payload: ushort ident; ushort size; int[size] keys;
// int[size] targets. Total width = 2 + size*4 code units. ipc is the code
// unit holding ident itself.
func sparseSwitchPayloadWidth(insns []uint16, ipc int) int {
	if ipc+1 >= len(insns) {
		return 1
	}
	size := int(insns[ipc+1])
	return 2 + size*4
}

// fill-array-data-payload: ushort ident; ushort element_width; uint size;
// ubyte[] data, padded to an even number of code units. ipc is the code
// unit holding ident itself.
func fillArrayDataPayloadWidth(insns []uint16, ipc int) int {
	if ipc+3 >= len(insns) {
		return 1
	}
	elementWidth := int(insns[ipc+1])
	size := int(insns[ipc+2]) | int(insns[ipc+3])<<16
	dataBytes := elementWidth * size
	units := (dataBytes + 1) / 2
	return 4 + units
}
