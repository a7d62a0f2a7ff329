// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestWalkCodeConstString(t *testing.T) {
	// const-string v0, string@0x0007 ; return-void
	insns := []uint16{
		0x001a, 0x0007,
		0x000e,
	}
	ci := &CodeItem{Insns: insns}
	wr := walkCode(ci)

	if len(wr.Strings) != 1 {
		t.Fatalf("got %d string refs, want 1", len(wr.Strings))
	}
	if wr.Strings[0].StringIdx != 7 {
		t.Errorf("string idx = %d, want 7", wr.Strings[0].StringIdx)
	}
	if len(wr.Opcodes) != 2 {
		t.Fatalf("got %d opcode hits, want 2", len(wr.Opcodes))
	}
	if wr.Opcodes[1].Opcode != OpReturnVoid || wr.Opcodes[1].PC != 2 {
		t.Errorf("second opcode = %+v, want return-void at pc 2", wr.Opcodes[1])
	}
}

func TestWalkCodeInvokeStatic(t *testing.T) {
	// invoke-static {v0}, method@0x0003 (format 35c, 3 code units) ; return-void
	insns := []uint16{
		0x1071, 0x0003, 0x0000,
		0x000e,
	}
	ci := &CodeItem{Insns: insns}
	wr := walkCode(ci)

	if len(wr.Methods) != 1 {
		t.Fatalf("got %d method refs, want 1", len(wr.Methods))
	}
	mr := wr.Methods[0]
	if mr.MethodIdx != 3 || mr.Kind != InvokeStatic || mr.Range {
		t.Errorf("method ref = %+v, want {MethodIdx:3 Kind:InvokeStatic Range:false}", mr)
	}
}

func TestWalkCodeSkipsPackedSwitchPayloadWithPadding(t *testing.T) {
	// padding nop ; packed-switch-payload (ident 0x0100, size 1, first_key 0, target 0) ; return-void
	insns := []uint16{
		0x0000, 0x0100, 0x0001, 0x0000, 0x0000, 0x0000, 0x0000,
		0x000e,
	}
	ci := &CodeItem{Insns: insns}
	wr := walkCode(ci)

	if len(wr.Opcodes) != 1 {
		t.Fatalf("got %d opcode hits, want 1 (return-void only)", len(wr.Opcodes))
	}
	if wr.Opcodes[0].Opcode != OpReturnVoid || wr.Opcodes[0].PC != 7 {
		t.Errorf("opcode = %+v, want return-void at pc 7", wr.Opcodes[0])
	}
}

func TestWalkCodeSkipsPackedSwitchPayloadNoPadding(t *testing.T) {
	// packed-switch-payload directly, no padding nop (the common case) ; return-void
	insns := []uint16{
		0x0100, 0x0001, 0x0000, 0x0000, 0x0000, 0x0000,
		0x000e,
	}
	ci := &CodeItem{Insns: insns}
	wr := walkCode(ci)

	if len(wr.Opcodes) != 1 {
		t.Fatalf("got %d opcode hits, want 1 (return-void only)", len(wr.Opcodes))
	}
	if wr.Opcodes[0].Opcode != OpReturnVoid || wr.Opcodes[0].PC != 6 {
		t.Errorf("opcode = %+v, want return-void at pc 6", wr.Opcodes[0])
	}
}
