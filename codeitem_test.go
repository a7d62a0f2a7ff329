// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func putU16(b []byte, off uint32, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

// buildCodeItem assembles a raw code_item buffer with no try/catch table.
func buildCodeItem(registers, ins, outs uint16, insns []uint16) []byte {
	buf := make([]byte, 16+len(insns)*2)
	putU16(buf, 0, registers)
	putU16(buf, 2, ins)
	putU16(buf, 4, outs)
	putU16(buf, 6, 0) // tries_size
	putU32(buf, 8, 0) // debug_info_off
	putU32(buf, 12, uint32(len(insns)))
	for i, u := range insns {
		putU16(buf, uint32(16+i*2), u)
	}
	return buf
}

func TestParseCodeItemNoTries(t *testing.T) {
	data := buildCodeItem(2, 0, 0, []uint16{0x000e, 0x000e})
	ci, err := parseCodeItem(data, 0)
	if err != nil {
		t.Fatalf("parseCodeItem failed: %v", err)
	}
	if ci.RegistersSize != 2 {
		t.Errorf("RegistersSize = %d, want 2", ci.RegistersSize)
	}
	if ci.TriesSize != 0 {
		t.Errorf("TriesSize = %d, want 0", ci.TriesSize)
	}
	if len(ci.Insns) != 2 || ci.Insns[0] != 0x000e || ci.Insns[1] != 0x000e {
		t.Errorf("Insns = %v, want [0x0e 0x0e]", ci.Insns)
	}
	if ci.Tries != nil {
		t.Error("expected nil Tries when tries_size is 0")
	}
}

// buildCodeItemWithTry assembles a code_item with a single try_item covering
// the whole instruction range, with one catch-all handler.
func buildCodeItemWithTry(insns []uint16, handlerPC uint32) []byte {
	insnsBytes := len(insns) * 2
	pad := 0
	if len(insns)%2 != 0 {
		pad = 2
	}
	tryOff := 16 + insnsBytes + pad
	handlerListOff := tryOff + 8 // one try_item

	buf := make([]byte, handlerListOff+8)
	putU16(buf, 0, 1) // registers_size
	putU16(buf, 2, 0) // ins_size
	putU16(buf, 4, 0) // outs_size
	putU16(buf, 6, 1) // tries_size
	putU32(buf, 8, 0)
	putU32(buf, 12, uint32(len(insns)))
	for i, u := range insns {
		putU16(buf, uint32(16+i*2), u)
	}

	putU32(buf, uint32(tryOff), 0)       // start_addr
	putU16(buf, uint32(tryOff+4), uint16(len(insns))) // insn_count
	putU16(buf, uint32(tryOff+6), 1)     // handler_off, relative to list base (past the list-size byte)

	// encoded_catch_handler_list: size=1 (list count, ULEB128)
	buf[handlerListOff] = 1
	// encoded_catch_handler: size=0 (SLEB128, catch-all only) then catch-all addr (ULEB128)
	buf[handlerListOff+1] = 0
	buf[handlerListOff+2] = byte(handlerPC)

	return buf
}

func TestParseCodeItemWithCatchAllHandler(t *testing.T) {
	data := buildCodeItemWithTry([]uint16{0x000e}, 5)
	ci, err := parseCodeItem(data, 0)
	if err != nil {
		t.Fatalf("parseCodeItem failed: %v", err)
	}
	if ci.TriesSize != 1 || len(ci.Tries) != 1 {
		t.Fatalf("expected one try item, got TriesSize=%d len(Tries)=%d", ci.TriesSize, len(ci.Tries))
	}
	if len(ci.Handlers) != 1 || len(ci.Handlers[0].Handlers) != 1 {
		t.Fatalf("expected one handler with one catch entry, got %+v", ci.Handlers)
	}
	h := ci.Handlers[0].Handlers[0]
	if !h.CatchAll || h.HandlerPC != 5 {
		t.Errorf("handler = %+v, want {CatchAll:true HandlerPC:5}", h)
	}
}
