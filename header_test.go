// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func minimalDexHeader(fileSize uint32) []byte {
	data := make([]byte, TinyDexSize)
	copy(data[0:8], []byte{'d', 'e', 'x', '\n', '0', '3', '5', 0})
	putU32(data, 32, fileSize) // file_size offset within header_item
	putU32(data, 36, TinyDexSize)
	return data
}

func putU32(b []byte, off uint32, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func TestValidateMagicRejectsCDex(t *testing.T) {
	data := make([]byte, TinyDexSize)
	copy(data[0:8], []byte{'c', 'd', 'e', 'x', '0', '0', '1', 0})
	if err := validateMagic(data); err == nil {
		t.Error("expected cdex to be rejected")
	}
}

func TestValidateMagicAcceptsDex(t *testing.T) {
	data := minimalDexHeader(TinyDexSize)
	if err := validateMagic(data); err != nil {
		t.Errorf("expected standard dex magic to validate, got %v", err)
	}
}

func TestParseHeaderRejectsSizeMismatch(t *testing.T) {
	data := minimalDexHeader(TinyDexSize + 10)
	if _, err := parseHeader(data); err == nil {
		t.Error("expected file_size mismatch to be rejected")
	}
}

func TestParseHeaderAcceptsConsistentSize(t *testing.T) {
	data := minimalDexHeader(TinyDexSize)
	h, err := parseHeader(data)
	if err != nil {
		t.Fatalf("parseHeader failed: %v", err)
	}
	if h.FileSize != TinyDexSize {
		t.Errorf("FileSize = %d, want %d", h.FileSize, TinyDexSize)
	}
}
