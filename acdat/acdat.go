// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package acdat

// Hit is one matched occurrence: the half-open [Begin, End) byte range in
// the scanned text, and the value associated with the pattern that
// matched there.
type Hit struct {
	Begin int
	End   int
	Value any
}

// MatchFunc is invoked once per hit found while scanning. Returning false
// stops the scan early; this is the early-termination predicate contract
// every caller of Parse relies on for short-circuiting batch queries.
type MatchFunc func(hit Hit) bool

// Trie is a built Aho-Corasick double-array automaton ready for matching.
// Build it once via Build and reuse it across scans; Trie carries no
// mutable per-scan state, so a single instance is safe for concurrent use
// by multiple goroutines.
type Trie struct {
	base   []int32
	check  []int32
	fail   []int32
	output [][]int32

	lengths []int
	values  []any
}

// Build constructs a Trie matching every pattern in patterns, associating
// patterns[i] with values[i]. Patterns may overlap or be suffixes of one
// another; Parse reports every match, not just the longest.
func Build(patterns [][]byte, values []any) *Trie {
	b := newBuilder()
	for i, p := range patterns {
		b.insert(p, i)
	}
	t := b.build()
	t.lengths = make([]int, len(patterns))
	for i, p := range patterns {
		t.lengths[i] = len(p)
	}
	t.values = values
	return t
}

// step follows the automaton from state cur on input byte c, falling back
// through failure links until a defined transition (possibly back to the
// root) is found.
func (t *Trie) step(cur int32, c byte) int32 {
	for {
		child := t.base[cur] + int32(c)
		if child >= 0 && int(child) < len(t.check) && t.check[child] == cur {
			return child
		}
		if cur == 0 {
			return 0
		}
		cur = t.fail[cur]
	}
}

// Parse scans text once, invoking fn for every pattern occurrence found,
// in left-to-right order of end position and, among hits sharing an end
// position, longest pattern first. Scanning
// stops as soon as fn returns false.
func (t *Trie) Parse(text []byte, fn MatchFunc) {
	cur := int32(0)
	for i, c := range text {
		cur = t.step(cur, c)
		for _, pid := range t.output[cur] {
			length := t.lengths[pid]
			hit := Hit{Begin: i + 1 - length, End: i + 1, Value: t.values[pid]}
			if !fn(hit) {
				return
			}
		}
	}
}

// Matches reports whether any pattern occurs anywhere in text.
func (t *Trie) Matches(text []byte) bool {
	found := false
	t.Parse(text, func(Hit) bool {
		found = true
		return false
	})
	return found
}

// FindFirst returns the first (leftmost-ending) pattern occurrence in
// text, if any.
func (t *Trie) FindFirst(text []byte) (Hit, bool) {
	var first Hit
	ok := false
	t.Parse(text, func(h Hit) bool {
		first = h
		ok = true
		return false
	})
	return first, ok
}

// ExactMatchSearch reports whether text, in its entirety, equals one of
// the built patterns, returning its associated value. Unlike Parse this
// never follows failure links — a substring match does not count.
func (t *Trie) ExactMatchSearch(text []byte) (any, bool) {
	cur := int32(0)
	for _, c := range text {
		child := t.base[cur] + int32(c)
		if child < 0 || int(child) >= len(t.check) || t.check[child] != cur {
			return nil, false
		}
		cur = child
	}
	for _, pid := range t.output[cur] {
		if t.lengths[pid] == len(text) {
			return t.values[pid], true
		}
	}
	return nil, false
}
