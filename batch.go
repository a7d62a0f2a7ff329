// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "github.com/dexkit-go/dexkit/acdat"

// PatternGroup is one named, conjunctive set of string patterns: an
// entity matches the group only if every pattern in it is present
// (anchored per its own mode) somewhere within the entity.
type PatternGroup struct {
	Name     string
	Patterns []StringPattern
}

// patternRef is the value an ACDAT hit carries back: which group and
// which pattern within it fired.
type patternRef struct {
	groupIdx   int
	patternIdx int
}

// buildBatchTrie compiles every pattern across every group into one
// automaton, matching the planning policy of making a single pass over
// DEX strings regardless of how many groups or patterns are in play.
func buildBatchTrie(groups []PatternGroup) *acdat.Trie {
	var patterns [][]byte
	var values []any
	for gi, g := range groups {
		for pi, p := range g.Patterns {
			patterns = append(patterns, []byte(canonicalizePattern(p.Text)))
			values = append(values, patternRef{groupIdx: gi, patternIdx: pi})
		}
	}
	return acdat.Build(patterns, values)
}

// groupHitSet tracks, per candidate entity, which (group, pattern) pairs
// have been satisfied so far.
type groupHitSet map[int]map[int]bool

func newGroupHitSet() groupHitSet {
	return make(groupHitSet)
}

func (h groupHitSet) mark(groupIdx, patternIdx int) {
	if h[groupIdx] == nil {
		h[groupIdx] = make(map[int]bool)
	}
	h[groupIdx][patternIdx] = true
}

// satisfiedGroups returns the indices of every group all of whose
// patterns were marked.
func satisfiedGroups(h groupHitSet, groups []PatternGroup) []int {
	var out []int
	for gi, g := range groups {
		if len(g.Patterns) == 0 {
			continue
		}
		bucket := h[gi]
		if len(bucket) < len(g.Patterns) {
			continue
		}
		out = append(out, gi)
	}
	return out
}

// scanStringForGroups runs trie over s, recording (via the anchoring
// post-filter) which group/pattern pairs s satisfies into hits.
func scanStringForGroups(trie *acdat.Trie, groups []PatternGroup, s string) groupHitSet {
	hits := newGroupHitSet()
	canon := canonicalizePattern(s)
	trie.Parse([]byte(canon), func(h acdat.Hit) bool {
		ref := h.Value.(patternRef)
		p := groups[ref.groupIdx].Patterns[ref.patternIdx]
		if p.Mode == MatchContains || anchorSatisfied(p, canon, h.Begin, h.End) {
			hits.mark(ref.groupIdx, ref.patternIdx)
		}
		return true
	})
	return hits
}

func anchorSatisfied(p StringPattern, haystack string, begin, end int) bool {
	switch p.Mode {
	case MatchStartsWith:
		return begin == 0
	case MatchEndsWith:
		return end == len(haystack)
	case MatchEquals:
		return begin == 0 && end == len(haystack)
	default:
		return true
	}
}

// BatchFindClassUsingStrings returns, per named group, every class
// (encoded id) where every string in the group's pattern set appears
// somewhere associated with that class: its name, superclass,
// interfaces, string constants used by its methods, or field type
// descriptors.
func (s *Session) BatchFindClassUsingStrings(groups []PatternGroup) map[string][]EncodedID {
	trie := buildBatchTrie(groups)
	out := make(map[string][]EncodedID, len(groups))

	s.index.buildClasses()
	for _, ce := range s.index.classes {
		cdata, err := ce.file.ClassData(ce.def)
		if err != nil {
			continue
		}
		combined := newGroupHitSet()
		for _, str := range collectClassStrings(ce.file, ce.def, cdata) {
			for gi, bucket := range scanStringForGroups(trie, groups, str) {
				for pi := range bucket {
					combined.mark(gi, pi)
				}
			}
		}
		for _, gi := range satisfiedGroups(combined, groups) {
			id := encodeID(ce.file.ordinal, KindClass, ce.def.ClassIdx)
			out[groups[gi].Name] = append(out[groups[gi].Name], id)
		}
	}
	return out
}

// BatchFindMethodUsingStrings returns, per named group, every method
// (encoded id) whose body's string constants satisfy the full pattern
// set of that group.
func (s *Session) BatchFindMethodUsingStrings(groups []PatternGroup) map[string][]EncodedID {
	trie := buildBatchTrie(groups)
	out := make(map[string][]EncodedID, len(groups))

	s.index.buildMethods()
	for i := range s.index.methods {
		m := &s.index.methods[i]
		if m.code == nil {
			continue
		}
		wr := walkCode(m.code)
		combined := newGroupHitSet()
		for _, sr := range wr.Strings {
			str, err := m.file.String(sr.StringIdx)
			if err != nil {
				continue
			}
			for gi, bucket := range scanStringForGroups(trie, groups, str) {
				for pi := range bucket {
					combined.mark(gi, pi)
				}
			}
		}
		for _, gi := range satisfiedGroups(combined, groups) {
			id := encodeID(m.file.ordinal, KindMethod, m.enc.MethodIdx)
			out[groups[gi].Name] = append(out[groups[gi].Name], id)
		}
	}
	return out
}
