// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package acdat

import (
	"sort"
	"testing"
)

// TestParseMatchesScenario covers the ACDAT sanity scenario: patterns
// {"he","she","his","hers"} scanned against "ushers" must report hits
// (1,4,"she"), (2,4,"he"), (2,6,"hers") and no others.
func TestParseMatchesScenario(t *testing.T) {
	patterns := [][]byte{[]byte("he"), []byte("she"), []byte("his"), []byte("hers")}
	values := []any{"he", "she", "his", "hers"}
	trie := Build(patterns, values)

	var got []Hit
	trie.Parse([]byte("ushers"), func(h Hit) bool {
		got = append(got, h)
		return true
	})

	want := []Hit{
		{Begin: 2, End: 4, Value: "he"},
		{Begin: 1, End: 4, Value: "she"},
		{Begin: 2, End: 6, Value: "hers"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d hits, want %d: %+v", len(got), len(want), got)
	}

	sortHits := func(hs []Hit) {
		sort.Slice(hs, func(i, j int) bool {
			if hs[i].Begin != hs[j].Begin {
				return hs[i].Begin < hs[j].Begin
			}
			return hs[i].End < hs[j].End
		})
	}
	sortHits(got)
	sortHits(want)

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMatchesAndFindFirst(t *testing.T) {
	patterns := [][]byte{[]byte("he"), []byte("she"), []byte("his"), []byte("hers")}
	values := []any{"he", "she", "his", "hers"}
	trie := Build(patterns, values)

	if !trie.Matches([]byte("ushers")) {
		t.Error("expected Matches to find a hit in \"ushers\"")
	}
	if trie.Matches([]byte("xyz")) {
		t.Error("expected Matches to find no hit in \"xyz\"")
	}

	hit, ok := trie.FindFirst([]byte("ushers"))
	if !ok {
		t.Fatal("expected FindFirst to report a hit")
	}
	if hit.End != 4 {
		t.Errorf("FindFirst end = %d, want 4 (leftmost-ending hit)", hit.End)
	}
}

func TestExactMatchSearch(t *testing.T) {
	patterns := [][]byte{[]byte("he"), []byte("she"), []byte("his"), []byte("hers")}
	values := []any{"he", "she", "his", "hers"}
	trie := Build(patterns, values)

	v, ok := trie.ExactMatchSearch([]byte("hers"))
	if !ok || v != "hers" {
		t.Errorf("ExactMatchSearch(\"hers\") = (%v, %v), want (\"hers\", true)", v, ok)
	}

	if _, ok := trie.ExactMatchSearch([]byte("ushers")); ok {
		t.Error("ExactMatchSearch should not match a substring occurrence")
	}

	if _, ok := trie.ExactMatchSearch([]byte("nope")); ok {
		t.Error("ExactMatchSearch should not match an unbuilt pattern")
	}
}
