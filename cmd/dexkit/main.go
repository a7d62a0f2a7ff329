// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command dexkit is a thin CLI wrapper around the dexkit library, useful
// for ad-hoc inspection of an APK or raw DEX file from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "dexkit",
		Short: "Inspect Android DEX bytecode from the command line",
	}
	root.AddCommand(loadCmd())
	root.AddCommand(findStringsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
