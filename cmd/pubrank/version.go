// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pubrank",
	Long: `Version prints the release stamped at build time, the Go toolchain, and
the VCS revision recorded in the binary when there is one.`,
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		writeVersion(cmd.OutOrStdout(), version, info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// writeVersion prints the version lines. info may be nil.
func writeVersion(w io.Writer, release string, info *debug.BuildInfo) {
	fmt.Fprintf(w, "pubrank %s\n", release)
	fmt.Fprintf(w, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if info == nil {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(w, "  revision: %s\n", s.Value)
		case "vcs.modified":
			if s.Value == "true" {
				fmt.Fprintln(w, "  modified: true")
			}
		}
	}
}
