// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestEncodeIDRoundTrip(t *testing.T) {
	id := encodeID(3, KindMethod, 42)
	if id.DexOrdinal() != 3 {
		t.Errorf("DexOrdinal = %d, want 3", id.DexOrdinal())
	}
	if id.Kind() != KindMethod {
		t.Errorf("Kind = %d, want KindMethod", id.Kind())
	}
	if id.LocalIndex() != 42 {
		t.Errorf("LocalIndex = %d, want 42", id.LocalIndex())
	}
	if !id.IsValid() {
		t.Error("expected encoded id to be valid")
	}
}

func TestInvalidIDIsNotValid(t *testing.T) {
	if InvalidID.IsValid() {
		t.Error("InvalidID should not report valid")
	}
}

func TestLessOrdersByOrdinalThenIndex(t *testing.T) {
	a := encodeID(0, KindClass, 5)
	b := encodeID(0, KindClass, 9)
	c := encodeID(1, KindClass, 0)

	if !a.Less(b) {
		t.Error("expected lower local index to sort first within same ordinal")
	}
	if b.Less(a) {
		t.Error("Less should not be symmetric")
	}
	if !b.Less(c) {
		t.Error("expected lower DEX ordinal to sort first regardless of local index")
	}
}
