// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubrank/internal/export"
	"github.com/pdiddy/pubrank/internal/pipeline"
)

const defaultOut = "publications"

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Build an author's ranked publication list",
	Long: `Rank extracts the publications of an author from DBLP (primary) and HAL
(secondary), drops HAL entries whose title matches a DBLP entry, and looks
up the venue rank of every conference entry in CORE and of every journal
entry in Scimago.

Results go to <out>.json (and <out>.yaml with --yaml); warnings about
entries that could not be checked go to <out>_log.json.

A DBLP person is given by its page URL or pid; an HAL author by its idHal.
--entries reads the primary list from a YAML or JSON file instead of DBLP.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().String("dblp", "", "DBLP person page URL or pid (e.g. 123/4567)")
	rankCmd.Flags().String("url", "", "alias of --dblp")
	rankCmd.Flags().String("idhal", "", "HAL author identifier (idHal)")
	rankCmd.Flags().String("entries", "", "read primary entries from a YAML or JSON file instead of DBLP")
	rankCmd.Flags().String("out", defaultOut, "output file prefix")

	rankCmd.Flags().Bool("cache", false, "load and save the rank caches")
	rankCmd.Flags().String("cache-dir", "", "directory of the rank caches")
	rankCmd.Flags().String("cache-backend", "", "rank cache store: json or sqlite")
	rankCmd.Flags().String("patch", "", "venue patch table (JSON or YAML)")
	rankCmd.Flags().String("fixture", "", "offline catalog file replacing CORE and Scimago")
	rankCmd.Flags().Duration("lookup-timeout", 0, "bound on a single catalog lookup")
	rankCmd.Flags().Bool("yaml", false, "also write <out>.yaml")
	rankCmd.Flags().Bool("table", false, "print the ranked entries as a table")
	rankCmd.Flags().String("metrics-file", "", "write run counters in Prometheus text format to this file")

	bindFlags(rankCmd, map[string]string{
		"cache.enabled":          "cache",
		"cache.dir":              "cache-dir",
		"cache.backend":          "cache-backend",
		"patch":                  "patch",
		"catalog.fixture":        "fixture",
		"catalog.lookup_timeout": "lookup-timeout",
		"output.yaml":            "yaml",
		"output.table":           "table",
		"output.metrics_file":    "metrics-file",
	})

	rootCmd.AddCommand(rankCmd)
}

// bindFlags binds config keys to flags of cmd on the global viper.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", flag, err))
		}
	}
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	dblpID, _ := cmd.Flags().GetString("dblp")
	if dblpID == "" {
		dblpID, _ = cmd.Flags().GetString("url")
	}
	halID, _ := cmd.Flags().GetString("idhal")
	entriesFile, _ := cmd.Flags().GetString("entries")
	out, _ := cmd.Flags().GetString("out")
	if dblpID != "" && entriesFile != "" {
		return fmt.Errorf("--entries replaces DBLP as the primary source: drop --dblp")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, sources, err := pipeline.Build(ctx, cfg, slog.Default(), os.Stderr)
	if err != nil {
		return err
	}

	primary := pipeline.Input{Source: sources.DBLP, Author: dblpID}
	if entriesFile != "" {
		primary = pipeline.Input{Source: sources.File, Author: entriesFile}
	}
	secondary := pipeline.Input{Source: sources.HAL, Author: halID}

	report, runErr := p.Run(ctx, primary, secondary)
	if errors.Is(runErr, pipeline.ErrNoAuthor) {
		_ = p.Finish(ctx, nil, "")
		return runErr
	}

	// Flush caches even when interrupted; entries resolved so far stay valid.
	if err := p.Finish(context.WithoutCancel(ctx), report, cfg.Output.MetricsFile); err != nil {
		slog.Warn("writing metrics", "error", err)
	}

	paths, err := export.WriteReport(out, report, cfg.Output.YAML)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s, %s and %s\n", paths.JSON, paths.CSV, paths.Log)

	if cfg.Output.Table {
		export.FormatTable(os.Stdout, report.Entries)
	}
	return runErr
}
