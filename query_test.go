// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestContainsSubstring(t *testing.T) {
	if !containsSubstring("ushers", "her") {
		t.Error("expected \"her\" to be found within \"ushers\"")
	}
	if containsSubstring("ushers", "xyz") {
		t.Error("expected no match for an absent substring")
	}
	if !containsSubstring("anything", "") {
		t.Error("an empty needle should match trivially")
	}
}

func TestStringPatternMatchesWhole(t *testing.T) {
	tests := []struct {
		pattern StringPattern
		input   string
		want    bool
	}{
		{StringPattern{Text: "her", Mode: MatchContains}, "ushers", true},
		{StringPattern{Text: "ush", Mode: MatchStartsWith}, "ushers", true},
		{StringPattern{Text: "ush", Mode: MatchStartsWith}, "shush", false},
		{StringPattern{Text: "ers", Mode: MatchEndsWith}, "ushers", true},
		{StringPattern{Text: "ushers", Mode: MatchEquals}, "ushers", true},
		{StringPattern{Text: "usher", Mode: MatchEquals}, "ushers", false},
	}
	for _, tt := range tests {
		if got := tt.pattern.matchesWhole(tt.input); got != tt.want {
			t.Errorf("matchesWhole(%+v, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
		}
	}
}

func TestAccessFlagConstraintMatches(t *testing.T) {
	c := AccessFlagConstraint{Mask: 0x1, Value: 0x1} // require public bit set
	if !c.matches(0x11) {
		t.Error("expected the public bit to satisfy the constraint")
	}
	if c.matches(0x10) {
		t.Error("expected a missing public bit to fail the constraint")
	}
	zero := AccessFlagConstraint{}
	if !zero.matches(0xFFFFFFFF) {
		t.Error("a zero-mask constraint should match anything")
	}
}

func TestNonWildcard(t *testing.T) {
	actual := []string{"I", "Ljava/lang/String;"}
	if got := nonWildcard(nil, actual); len(got) != 2 || got[0] != "I" {
		t.Errorf("nonWildcard(nil, actual) = %v, want %v", got, actual)
	}
	patterns := []string{"*", "Z"}
	if got := nonWildcard(patterns, actual); len(got) != 2 || got[1] != "Z" {
		t.Errorf("nonWildcard(patterns, actual) = %v, want %v", got, patterns)
	}
}

func TestContainsOpcodeSequence(t *testing.T) {
	// const-string v0, string@0 ; return-void
	insns := []uint16{0x001a, 0x0000, 0x000e}
	code := &CodeItem{Insns: insns}

	if !containsOpcodeSequence(code, []Opcode{OpConstString, OpReturnVoid}) {
		t.Error("expected to find the contiguous const-string/return-void sequence")
	}
	if containsOpcodeSequence(code, []Opcode{OpReturnVoid, OpConstString}) {
		t.Error("sequence order must matter")
	}
	if containsOpcodeSequence(code, nil) {
		t.Error("an empty sequence should never match")
	}
}
