// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import "testing"

func TestDiagnosticsAccumulateInOrder(t *testing.T) {
	var d Diagnostics
	if !d.Empty() {
		t.Fatal("a fresh Diagnostics should be empty")
	}
	d.Add("dex", DiagCompactDexRejected)
	d.Add("zip", DiagNoDexEntries)

	if d.Empty() {
		t.Fatal("Diagnostics should not be empty after Add")
	}
	msgs := d.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0] != "dex: "+DiagCompactDexRejected {
		t.Errorf("first message = %q", msgs[0])
	}
	if msgs[1] != "zip: "+DiagNoDexEntries {
		t.Errorf("second message = %q", msgs[1])
	}
}
