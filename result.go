// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// ResultProjection selects which inline metadata a result envelope carries
// alongside each encoded id.
type ResultProjection uint8

const (
	// ProjectIDsOnly emits only the encoded id stream.
	ProjectIDsOnly ResultProjection = iota
	// ProjectWithDescriptor additionally inlines each entity's descriptor
	// (class: type descriptor; method/field: its name).
	ProjectWithDescriptor
)

// resultBuilder accumulates encoded ids (deduplicated, stably ordered by
// DEX ordinal then local index) and serializes them into the binary
// envelope every Session query method returns.
type resultBuilder struct {
	seen    map[EncodedID]struct{}
	ids     []EncodedID
	labels  map[EncodedID]string
	project ResultProjection
}

func newResultBuilder(project ResultProjection) *resultBuilder {
	return &resultBuilder{
		seen:    make(map[EncodedID]struct{}),
		labels:  make(map[EncodedID]string),
		project: project,
	}
}

// Add records id, ignoring duplicates. label is only retained when the
// builder's projection calls for inline metadata.
func (rb *resultBuilder) Add(id EncodedID, label string) {
	if !id.IsValid() {
		return
	}
	if _, dup := rb.seen[id]; dup {
		return
	}
	rb.seen[id] = struct{}{}
	rb.ids = append(rb.ids, id)
	if rb.project == ProjectWithDescriptor {
		rb.labels[id] = label
	}
}

// Len reports how many distinct ids have been added so far.
func (rb *resultBuilder) Len() int {
	return len(rb.ids)
}

// Encode serializes the accumulated ids, sorted ascending by (DEX
// ordinal, local index), into a tagged binary envelope:
//
//	uint8   projection tag
//	uint32  count
//	repeated { uint64 encoded id; [uint16 label length; label bytes] }
func (rb *resultBuilder) Encode() []byte {
	sort.Slice(rb.ids, func(i, j int) bool { return rb.ids[i].Less(rb.ids[j]) })

	var buf bytes.Buffer
	buf.WriteByte(byte(rb.project))
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(rb.ids)))
	buf.Write(countBuf[:])

	for _, id := range rb.ids {
		var idBuf [8]byte
		binary.LittleEndian.PutUint64(idBuf[:], uint64(id))
		buf.Write(idBuf[:])
		if rb.project == ProjectWithDescriptor {
			label := rb.labels[id]
			var lenBuf [2]byte
			binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(label)))
			buf.Write(lenBuf[:])
			buf.WriteString(label)
		}
	}
	return buf.Bytes()
}
