// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"encoding/binary"
	"testing"
)

func TestResultBuilderDedupesAndSortsByOrdinalAndIndex(t *testing.T) {
	rb := newResultBuilder(ProjectIDsOnly)

	idLate := encodeID(1, KindClass, 0)
	idEarly := encodeID(0, KindClass, 9)
	idDup := encodeID(0, KindClass, 9)

	rb.Add(idLate, "")
	rb.Add(idEarly, "")
	rb.Add(idDup, "") // duplicate, should not increase Len
	rb.Add(InvalidID, "")

	if rb.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rb.Len())
	}

	buf := rb.Encode()
	if buf[0] != byte(ProjectIDsOnly) {
		t.Errorf("projection tag = %d, want %d", buf[0], ProjectIDsOnly)
	}
	count := binary.LittleEndian.Uint32(buf[1:5])
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	firstID := EncodedID(binary.LittleEndian.Uint64(buf[5:13]))
	secondID := EncodedID(binary.LittleEndian.Uint64(buf[13:21]))
	if firstID != idEarly {
		t.Errorf("first id = %#x, want %#x (lower DEX ordinal sorts first)", firstID, idEarly)
	}
	if secondID != idLate {
		t.Errorf("second id = %#x, want %#x", secondID, idLate)
	}
}

func TestResultBuilderWithDescriptorInlinesLabel(t *testing.T) {
	rb := newResultBuilder(ProjectWithDescriptor)
	id := encodeID(0, KindClass, 1)
	rb.Add(id, "Lcom/example/Foo;")

	buf := rb.Encode()
	labelLen := binary.LittleEndian.Uint16(buf[13:15])
	if int(labelLen) != len("Lcom/example/Foo;") {
		t.Fatalf("label length = %d, want %d", labelLen, len("Lcom/example/Foo;"))
	}
	label := string(buf[15 : 15+labelLen])
	if label != "Lcom/example/Foo;" {
		t.Errorf("label = %q, want %q", label, "Lcom/example/Foo;")
	}
}
