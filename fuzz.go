// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dexkit

// Fuzz is the legacy go-fuzz entrypoint: feed it arbitrary bytes as a
// standalone DEX image and see whether the parser survives without
// panicking.
func Fuzz(data []byte) int {
	df, err := parseDexFile(0, data)
	if err != nil {
		return 0
	}
	for i := range df.classDefs {
		cd := &df.classDefs[i]
		cdata, err := df.ClassData(cd)
		if err != nil {
			continue
		}
		for _, em := range cdata.DirectMethods {
			if em.CodeOff == 0 {
				continue
			}
			if ci, err := parseCodeItem(df.data, em.CodeOff); err == nil {
				walkCode(ci)
			}
		}
	}
	return 1
}
