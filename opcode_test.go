// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

// TestInstructionWidth covers Scenario F from the testable-properties
// scenarios: a 51l-format opcode is 5 code units wide, a 10x-format
// opcode is 1 code unit wide.
func TestInstructionWidth(t *testing.T) {
	if w := InstructionWidth(formatTable[0x18]); w != 5 { // const-wide, format 51l
		t.Errorf("width of opcode 0x18 (51l) = %d, want 5", w)
	}
	if w := InstructionWidth(formatTable[0x00]); w != 1 { // nop, format 10x
		t.Errorf("width of opcode 0x00 (10x) = %d, want 1", w)
	}
	if w := InstructionWidth(formatTable[0x0e]); w != 1 { // return-void, format 10x
		t.Errorf("width of opcode 0x0e (10x) = %d, want 1", w)
	}
}

func TestInvokeKindClassification(t *testing.T) {
	tests := []struct {
		op   Opcode
		want InvokeKind
	}{
		{0x6e, InvokeVirtual},
		{0x6f, InvokeSuper},
		{0x70, InvokeDirect},
		{0x71, InvokeStatic},
		{0x72, InvokeInterface},
	}
	for _, tt := range tests {
		if got := tt.op.invokeKind(); got != tt.want {
			t.Errorf("opcode %#x invokeKind() = %v, want %v", byte(tt.op), got, tt.want)
		}
		if !tt.op.isInvoke() {
			t.Errorf("opcode %#x should report isInvoke()", byte(tt.op))
		}
	}
}

func TestFieldAccessKindClassification(t *testing.T) {
	if Opcode(0x52).fieldAccessKind() != FieldRead { // iget
		t.Error("iget should be a FieldRead")
	}
	if Opcode(0x59).fieldAccessKind() != FieldWrite { // iput
		t.Error("iput should be a FieldWrite")
	}
	if Opcode(0x60).fieldAccessKind() != FieldRead { // sget
		t.Error("sget should be a FieldRead")
	}
	if Opcode(0x67).fieldAccessKind() != FieldWrite { // sput
		t.Error("sput should be a FieldWrite")
	}
}
