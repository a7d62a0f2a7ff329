// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// Format names a Dalvik instruction format, e.g. "35c" or "22t". The first
// digit is the instruction width in 16-bit code units, the second the
// number of registers it addresses; the trailing letter(s) describe the
// operand shape.
type Format string

const (
	Fmt10x  Format = "10x"
	Fmt10t  Format = "10t"
	Fmt11n  Format = "11n"
	Fmt11x  Format = "11x"
	Fmt12x  Format = "12x"
	Fmt20t  Format = "20t"
	Fmt21c  Format = "21c"
	Fmt21h  Format = "21h"
	Fmt21s  Format = "21s"
	Fmt21t  Format = "21t"
	Fmt22b  Format = "22b"
	Fmt22c  Format = "22c"
	Fmt22s  Format = "22s"
	Fmt22t  Format = "22t"
	Fmt22x  Format = "22x"
	Fmt23x  Format = "23x"
	Fmt30t  Format = "30t"
	Fmt31c  Format = "31c"
	Fmt31i  Format = "31i"
	Fmt31t  Format = "31t"
	Fmt32x  Format = "32x"
	Fmt35c  Format = "35c"
	Fmt3rc  Format = "3rc"
	Fmt45cc Format = "45cc"
	Fmt4rcc Format = "4rcc"
	Fmt51l  Format = "51l"

	// FmtUnused marks a reserved/unassigned opcode byte.
	FmtUnused Format = ""
)

// widthByFormat gives each format's instruction width in 16-bit code
// units. A value of 0 is reserved/unused, matching the spec's "values
// 1..5; zero is reserved" note.
var widthByFormat = map[Format]int{
	Fmt10x: 1, Fmt10t: 1, Fmt11n: 1, Fmt11x: 1, Fmt12x: 1,
	Fmt20t: 2, Fmt21c: 2, Fmt21h: 2, Fmt21s: 2, Fmt21t: 2,
	Fmt22b: 2, Fmt22c: 2, Fmt22s: 2, Fmt22t: 2, Fmt22x: 2, Fmt23x: 2,
	Fmt30t: 3, Fmt31c: 3, Fmt31i: 3, Fmt31t: 3, Fmt32x: 3, Fmt35c: 3, Fmt3rc: 3,
	Fmt45cc: 4, Fmt4rcc: 4,
	Fmt51l: 5,
}

// InstructionWidth returns the instruction width, in 16-bit code units, of
// the given format. It returns 0 for FmtUnused / an unrecognized format,
// matching the reserved-and-unused sentinel.
func InstructionWidth(f Format) int {
	return widthByFormat[f]
}

// formatTable maps the low opcode byte (0..255) directly to its
// instruction format. Per the source's ambiguous `hex & 0xff00 >> 8`
// shift (see design notes), this implementation keys explicitly on the
// opcode's low byte rather than any masked/shifted 16-bit code unit.
var formatTable = buildFormatTable()

func buildFormatTable() [256]Format {
	var t [256]Format

	t[0x00] = Fmt10x // nop (also hosts packed/sparse-switch and fill-array-data payloads)
	t[0x01] = Fmt12x // move
	t[0x02] = Fmt22x // move/from16
	t[0x03] = Fmt32x // move/16
	t[0x04] = Fmt12x // move-wide
	t[0x05] = Fmt22x // move-wide/from16
	t[0x06] = Fmt32x // move-wide/16
	t[0x07] = Fmt12x // move-object
	t[0x08] = Fmt22x // move-object/from16
	t[0x09] = Fmt32x // move-object/16
	t[0x0a] = Fmt11x // move-result
	t[0x0b] = Fmt11x // move-result-wide
	t[0x0c] = Fmt11x // move-result-object
	t[0x0d] = Fmt11x // move-exception
	t[0x0e] = Fmt10x // return-void
	t[0x0f] = Fmt11x // return
	t[0x10] = Fmt11x // return-wide
	t[0x11] = Fmt11x // return-object
	t[0x12] = Fmt11n // const/4
	t[0x13] = Fmt21s // const/16
	t[0x14] = Fmt31i // const
	t[0x15] = Fmt21h // const/high16
	t[0x16] = Fmt21s // const-wide/16
	t[0x17] = Fmt31i // const-wide/32
	t[0x18] = Fmt51l // const-wide
	t[0x19] = Fmt21h // const-wide/high16
	t[0x1a] = Fmt21c // const-string
	t[0x1b] = Fmt31c // const-string/jumbo
	t[0x1c] = Fmt21c // const-class
	t[0x1d] = Fmt11x // monitor-enter
	t[0x1e] = Fmt11x // monitor-exit
	t[0x1f] = Fmt21c // check-cast
	t[0x20] = Fmt22c // instance-of
	t[0x21] = Fmt12x // array-length
	t[0x22] = Fmt21c // new-instance
	t[0x23] = Fmt22c // new-array
	t[0x24] = Fmt35c // filled-new-array
	t[0x25] = Fmt3rc // filled-new-array/range
	t[0x26] = Fmt31t // fill-array-data
	t[0x27] = Fmt11x // throw
	t[0x28] = Fmt10t // goto
	t[0x29] = Fmt20t // goto/16
	t[0x2a] = Fmt30t // goto/32
	t[0x2b] = Fmt31t // packed-switch
	t[0x2c] = Fmt31t // sparse-switch

	for op := 0x2d; op <= 0x31; op++ { // cmpkind
		t[op] = Fmt23x
	}
	for op := 0x32; op <= 0x37; op++ { // if-test
		t[op] = Fmt22t
	}
	for op := 0x38; op <= 0x3d; op++ { // if-testz
		t[op] = Fmt21t
	}
	// 0x3e-0x43 unused.
	for op := 0x44; op <= 0x51; op++ { // array get/put
		t[op] = Fmt23x
	}
	for op := 0x52; op <= 0x5f; op++ { // iget*/iput*
		t[op] = Fmt22c
	}
	for op := 0x60; op <= 0x6d; op++ { // sget*/sput*
		t[op] = Fmt21c
	}
	for op := 0x6e; op <= 0x72; op++ { // invoke-kind
		t[op] = Fmt35c
	}
	// 0x73 unused.
	for op := 0x74; op <= 0x78; op++ { // invoke-kind/range
		t[op] = Fmt3rc
	}
	// 0x79-0x7a unused.
	for op := 0x7b; op <= 0x8f; op++ { // unop
		t[op] = Fmt12x
	}
	for op := 0x90; op <= 0xaf; op++ { // binop
		t[op] = Fmt23x
	}
	for op := 0xb0; op <= 0xcf; op++ { // binop/2addr
		t[op] = Fmt12x
	}
	for op := 0xd0; op <= 0xd7; op++ { // binop/lit16
		t[op] = Fmt22s
	}
	for op := 0xd8; op <= 0xe2; op++ { // binop/lit8
		t[op] = Fmt22b
	}
	// 0xe3-0xf9 unused/odd-even quickened opcodes outside this spec's scope.
	t[0xfa] = Fmt45cc // invoke-polymorphic
	t[0xfb] = Fmt4rcc // invoke-polymorphic/range
	t[0xfc] = Fmt35c  // invoke-custom
	t[0xfd] = Fmt3rc  // invoke-custom/range
	t[0xfe] = Fmt21c  // const-method-handle
	t[0xff] = Fmt21c  // const-method-type

	return t
}

// Opcode identifies one instruction by its low byte.
type Opcode byte

const (
	OpNop               Opcode = 0x00
	OpConstString       Opcode = 0x1a
	OpConstStringJumbo  Opcode = 0x1b
	OpReturnVoid        Opcode = 0x0e
)

// isInvoke reports whether op is one of the five invoke-kind opcodes
// (virtual/super/direct/static/interface), non-range form.
func (op Opcode) isInvoke() bool {
	return op >= 0x6e && op <= 0x72
}

// isInvokeRange reports whether op is one of the five invoke-kind/range
// opcodes.
func (op Opcode) isInvokeRange() bool {
	return op >= 0x74 && op <= 0x78
}

// InvokeKind names which dispatch an invoke-* instruction requests.
type InvokeKind int

const (
	InvokeVirtual InvokeKind = iota
	InvokeSuper
	InvokeDirect
	InvokeStatic
	InvokeInterface
)

func (op Opcode) invokeKind() InvokeKind {
	var base byte
	switch {
	case op.isInvoke():
		base = byte(op) - 0x6e
	case op.isInvokeRange():
		base = byte(op) - 0x74
	default:
		return InvokeVirtual
	}
	return InvokeKind(base)
}

// FieldAccessKind distinguishes a field instruction's direction.
type FieldAccessKind int

const (
	FieldRead FieldAccessKind = iota
	FieldWrite
)

func (op Opcode) isInstanceFieldOp() bool { return op >= 0x52 && op <= 0x5f }
func (op Opcode) isStaticFieldOp() bool   { return op >= 0x60 && op <= 0x6d }

func (op Opcode) fieldAccessKind() FieldAccessKind {
	switch {
	case op.isInstanceFieldOp():
		if op <= 0x58 {
			return FieldRead
		}
		return FieldWrite
	case op.isStaticFieldOp():
		if op <= 0x66 {
			return FieldRead
		}
		return FieldWrite
	}
	return FieldRead
}
