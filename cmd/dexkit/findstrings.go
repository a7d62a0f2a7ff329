// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/dexkit-go/dexkit"
	"github.com/spf13/cobra"
)

func findStringsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-strings <apk-or-dex> <pattern> [more-patterns...]",
		Short: "Find methods whose body references every given literal string",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := dexkit.New(args[0], nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			var patterns []dexkit.StringPattern
			for _, p := range args[1:] {
				patterns = append(patterns, dexkit.StringPattern{Text: p, Mode: dexkit.MatchContains})
			}
			groups := []dexkit.PatternGroup{{Name: "cli", Patterns: patterns}}

			hits := sess.BatchFindMethodUsingStrings(groups)
			for _, id := range hits["cli"] {
				fmt.Printf("method %#x (dex %d, idx %d)\n", uint64(id), id.DexOrdinal(), id.LocalIndex())
			}
			return nil
		},
	}
	return cmd
}
