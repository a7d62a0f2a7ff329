// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

import (
	"sync"
	"testing"
)

func TestWorkerPoolRunCoversEveryClassExactlyOnce(t *testing.T) {
	df1 := &DexFile{classDefs: make([]ClassDef, 5)}
	df2 := &DexFile{classDefs: make([]ClassDef, 3)}

	var mu sync.Mutex
	seen := make(map[*DexFile][]int)
	seen[df1] = make([]int, 5)
	seen[df2] = make([]int, 3)

	pool := newWorkerPool(4)
	defer pool.close()

	pool.run([]*DexFile{df1, df2}, 2, func(df *DexFile, lo, hi int) {
		mu.Lock()
		defer mu.Unlock()
		for i := lo; i < hi; i++ {
			seen[df][i]++
		}
	})

	for df, counts := range seen {
		for i, n := range counts {
			if n != 1 {
				t.Errorf("class %d of dex %p was visited %d times, want 1", i, df, n)
			}
		}
	}
}

func TestWorkerPoolClampsNonPositiveSize(t *testing.T) {
	pool := newWorkerPool(0)
	defer pool.close()

	df := &DexFile{classDefs: make([]ClassDef, 1)}
	var count int
	pool.run([]*DexFile{df}, 1, func(df *DexFile, lo, hi int) {
		count++
	})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
