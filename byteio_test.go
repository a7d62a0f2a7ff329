// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestReadULEB128(t *testing.T) {
	tests := []struct {
		in       []byte
		wantVal  uint32
		wantNext uint32
	}{
		// Scenario E from the testable-properties scenarios.
		{[]byte{0xE5, 0x8E, 0x26}, 624485, 3},
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7F}, 0x7F, 1},
		{[]byte{0x80, 0x01}, 128, 2},
	}
	for _, tt := range tests {
		got, next, err := readULEB128(tt.in, 0)
		if err != nil {
			t.Fatalf("readULEB128(%v) error: %v", tt.in, err)
		}
		if got != tt.wantVal || next != tt.wantNext {
			t.Errorf("readULEB128(%v) = (%d, %d), want (%d, %d)", tt.in, got, next, tt.wantVal, tt.wantNext)
		}
	}
}

func TestReadULEB128p1(t *testing.T) {
	// 0x00 encodes "0", ULEB128p1 decodes to -1 (absent sentinel).
	v, _, err := readULEB128p1([]byte{0x00}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != -1 {
		t.Errorf("readULEB128p1(0x00) = %d, want -1", v)
	}

	v, _, err = readULEB128p1([]byte{0x01}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("readULEB128p1(0x01) = %d, want 0", v)
	}
}

func TestReadSLEB128(t *testing.T) {
	tests := []struct {
		in      []byte
		wantVal int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7F}, -1},
		{[]byte{0x3F}, 63},
		{[]byte{0x40}, -64},
	}
	for _, tt := range tests {
		got, _, err := readSLEB128(tt.in, 0)
		if err != nil {
			t.Fatalf("readSLEB128(%v) error: %v", tt.in, err)
		}
		if got != tt.wantVal {
			t.Errorf("readSLEB128(%v) = %d, want %d", tt.in, got, tt.wantVal)
		}
	}
}

func TestReadBytesOutsideBoundary(t *testing.T) {
	data := make([]byte, 4)
	if _, err := readBytes(data, 2, 4); err == nil {
		t.Error("expected out-of-boundary error, got nil")
	}
	if _, err := readBytes(data, 0, 4); err != nil {
		t.Errorf("expected in-bounds read to succeed, got %v", err)
	}
}

func TestDecodeMUTF8(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("hello"), "hello"},
		{[]byte{0xC2, 0x80}, ""},
		{[]byte{0xE2, 0x82, 0xAC}, "€"},
		// 6-byte surrogate-pair extension encoding U+1F600 (an astral-plane
		// code point DEX's modified UTF-8 represents as two back-to-back
		// 3-byte sequences for the UTF-16 high/low surrogate halves).
		{[]byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "😀"},
	}
	for _, tt := range tests {
		if got := decodeMUTF8(tt.in); got != tt.want {
			t.Errorf("decodeMUTF8(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
