// Copyright 2024 The DexKit-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/dexkit-go/dexkit"
	"github.com/spf13/cobra"
)

func loadCmd() *cobra.Command {
	var threads int
	cmd := &cobra.Command{
		Use:   "load <apk-or-dex>",
		Short: "Load an APK or raw DEX file and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := dexkit.New(args[0], &dexkit.Options{ThreadNum: threads})
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Printf("dex images loaded: %d\n", sess.GetDexNum())
			for _, msg := range sess.Diagnostics() {
				fmt.Printf("  diagnostic: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&threads, "threads", 0, "worker pool width (default: GOMAXPROCS)")
	return cmd
}
