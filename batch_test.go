// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestGroupHitSetSatisfiedGroups(t *testing.T) {
	groups := []PatternGroup{
		{Name: "a", Patterns: []StringPattern{{Text: "foo"}, {Text: "bar"}}},
		{Name: "b", Patterns: []StringPattern{{Text: "baz"}}},
	}
	h := newGroupHitSet()
	h.mark(0, 0)
	if got := satisfiedGroups(h, groups); len(got) != 0 {
		t.Fatalf("group a should not be satisfied with only one of two patterns marked, got %v", got)
	}
	h.mark(0, 1)
	got := satisfiedGroups(h, groups)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected only group a satisfied, got %v", got)
	}
	h.mark(1, 0)
	got = satisfiedGroups(h, groups)
	if len(got) != 2 {
		t.Fatalf("expected both groups satisfied, got %v", got)
	}
}

func TestAnchorSatisfied(t *testing.T) {
	haystack := "ushers"
	if !anchorSatisfied(StringPattern{Mode: MatchContains}, haystack, 2, 4) {
		t.Error("MatchContains should always be satisfied")
	}
	if !anchorSatisfied(StringPattern{Mode: MatchStartsWith}, haystack, 0, 1) {
		t.Error("expected a begin=0 hit to satisfy MatchStartsWith")
	}
	if anchorSatisfied(StringPattern{Mode: MatchStartsWith}, haystack, 1, 2) {
		t.Error("expected a non-zero begin to fail MatchStartsWith")
	}
	if !anchorSatisfied(StringPattern{Mode: MatchEndsWith}, haystack, 2, len(haystack)) {
		t.Error("expected an end-of-string hit to satisfy MatchEndsWith")
	}
	if !anchorSatisfied(StringPattern{Mode: MatchEquals}, haystack, 0, len(haystack)) {
		t.Error("expected a full-span hit to satisfy MatchEquals")
	}
	if anchorSatisfied(StringPattern{Mode: MatchEquals}, haystack, 0, len(haystack)-1) {
		t.Error("expected a partial-span hit to fail MatchEquals")
	}
}

func TestScanStringForGroupsCanonicalizesCase(t *testing.T) {
	groups := []PatternGroup{
		{Name: "g", Patterns: []StringPattern{{Text: "SHE", Mode: MatchContains}}},
	}
	trie := buildBatchTrie(groups)
	hits := scanStringForGroups(trie, groups, "ushers")
	if len(satisfiedGroups(hits, groups)) != 1 {
		t.Error("expected case-folded pattern \"SHE\" to match lowercase \"ushers\"")
	}
}
