// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubrank/internal/export"
	"github.com/pdiddy/pubrank/internal/match"
	"github.com/pdiddy/pubrank/internal/merge"
	"github.com/pdiddy/pubrank/internal/normalize"
	"github.com/pdiddy/pubrank/internal/source"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge two entry files without ranking",
	Long: `Merge reads two entry lists (YAML or JSON) and prints the primary list
followed by the secondary entries whose title is not within edit distance 2
of a primary title, after normalization.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("primary", "", "primary entry file (kept as is)")
	mergeCmd.Flags().String("secondary", "", "secondary entry file (duplicates dropped)")
	mergeCmd.Flags().Bool("json", false, "print the merged list as JSON")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	primaryFile, _ := cmd.Flags().GetString("primary")
	secondaryFile, _ := cmd.Flags().GetString("secondary")
	if primaryFile == "" || secondaryFile == "" {
		return fmt.Errorf("both --primary and --secondary are required")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	rules, err := normalize.RulesFromConfig(cfg.Normalize)
	if err != nil {
		return err
	}

	primary, err := source.ReadEntries(primaryFile)
	if err != nil {
		return err
	}
	secondary, err := source.ReadEntries(secondaryFile)
	if err != nil {
		return err
	}

	m := merge.Merger{Matcher: match.New(normalize.New(rules)), Threshold: match.TitleThreshold}
	merged, dropped := m.Merge(primary, secondary)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(merged)
	}
	export.FormatTable(os.Stdout, merged)
	fmt.Fprintf(os.Stdout, "%d duplicates dropped\n", dropped)
	return nil
}
