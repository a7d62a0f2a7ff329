// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package acdat implements an Aho-Corasick automaton packed into a double
// array, for batch multi-pattern byte-string matching. The construction
// mirrors the classic "build a trie, link failure pointers breadth-first,
// then pack into base/check arrays" approach.
package acdat

import "sort"

// trieNode is a construction-time node of the plain trie; discarded once
// the double array is packed.
type trieNode struct {
	children map[byte]int
	parent   int
	depth    int
	results  []int // pattern indices that terminate exactly at this node
}

// builder accumulates patterns and packs them into a Trie.
type builder struct {
	nodes []trieNode
}

func newBuilder() *builder {
	return &builder{nodes: []trieNode{{children: map[byte]int{}, parent: -1}}}
}

// insert adds pattern (as raw bytes) to the trie, tagging its terminal
// node with patternIdx.
func (b *builder) insert(pattern []byte, patternIdx int) {
	cur := 0
	for _, c := range pattern {
		child, ok := b.nodes[cur].children[c]
		if !ok {
			b.nodes = append(b.nodes, trieNode{children: map[byte]int{}, parent: cur, depth: b.nodes[cur].depth + 1})
			child = len(b.nodes) - 1
			b.nodes[cur].children[c] = child
		}
		cur = child
	}
	b.nodes[cur].results = append(b.nodes[cur].results, patternIdx)
}

// build packs the accumulated trie into a double array automaton.
func (b *builder) build() *Trie {
	n := len(b.nodes)
	fail := make([]int, n)
	output := make([][]int, n)

	// Breadth-first failure-link computation, merging each node's output
	// set with its failure target's (so a hit at a shorter suffix pattern
	// is reported too).
	queue := make([]int, 0, n)
	for c := range b.nodes[0].children {
		child := b.nodes[0].children[c]
		fail[child] = 0
		queue = append(queue, child)
	}
	for qi := 0; qi < len(queue); qi++ {
		s := queue[qi]
		output[s] = append(output[s], b.nodes[s].results...)
		output[s] = append(output[s], output[fail[s]]...)
		for c, child := range b.nodes[s].children {
			// Walk failure links from s until reaching the ancestor f that
			// itself has a transition on c (possibly the root); f is never
			// advanced into the target node, so the lookup after the loop
			// answers "does f have a child on c", not "does that child".
			f := fail[s]
			for f != 0 {
				if _, ok := b.nodes[f].children[c]; ok {
					break
				}
				f = fail[f]
			}
			if next, ok := b.nodes[f].children[c]; ok && next != child {
				fail[child] = next
			} else {
				fail[child] = 0
			}
			queue = append(queue, child)
		}
	}
	output[0] = append(output[0], b.nodes[0].results...)

	return packDoubleArray(b.nodes, fail, output)
}

// packDoubleArray assigns each trie node an array slot (pos), choosing
// each parent's base offset so every child lands in a free, non-colliding
// slot: base[pos[parent]]+c == pos[child], check[pos[child]] == pos[parent].
func packDoubleArray(nodes []trieNode, trieFail []int, trieOutput [][]int) *Trie {
	size := len(nodes)*2 + 256
	base := make([]int32, size)
	check := make([]int32, size)

	pos := make([]int32, len(nodes))
	pos[0] = 0
	used := make([]bool, size)
	used[0] = true

	nextFree := int32(1)

	type queued struct{ node int }
	queue := []queued{{0}}
	for qi := 0; qi < len(queue); qi++ {
		s := queue[qi].node
		children := sortedKeys(nodes[s].children)
		if len(children) == 0 {
			continue
		}

		grow := func(need int32) {
			for need >= int32(len(base)) {
				base = append(base, make([]int32, len(base))...)
				check = append(check, make([]int32, len(check))...)
				used = append(used, make([]bool, len(used))...)
			}
		}

		var chosenBase int32
		first := int32(children[0])
		for cand := nextFree; ; cand++ {
			grow(cand + 255)
			if used[cand] {
				continue
			}
			ok := true
			for _, c := range children[1:] {
				idx := cand - first + int32(c)
				grow(idx)
				if used[idx] {
					ok = false
					break
				}
			}
			if ok {
				chosenBase = cand - first
				break
			}
		}

		grow(chosenBase + 255)
		base[pos[s]] = chosenBase
		for _, c := range children {
			idx := chosenBase + int32(c)
			used[idx] = true
			check[idx] = pos[s]
			child := nodes[s].children[c]
			pos[child] = idx
			queue = append(queue, queued{child})
		}
	}

	finalSize := int32(0)
	for i, u := range used {
		if u && int32(i) >= finalSize {
			finalSize = int32(i) + 1
		}
	}

	fail := make([]int32, finalSize)
	output := make([][]int32, finalSize)
	for trieID, p := range pos {
		fail[p] = pos[trieFail[trieID]]
		if len(trieOutput[trieID]) > 0 {
			out := make([]int32, len(trieOutput[trieID]))
			for i, v := range trieOutput[trieID] {
				out[i] = int32(v)
			}
			output[p] = out
		}
	}

	return &Trie{
		base:  base[:finalSize],
		check: check[:finalSize],
		fail:  fail,
		output: output,
	}
}

func sortedKeys(m map[byte]int) []byte {
	out := make([]byte, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
