// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes the results of a rank run: the annotated entries as
// JSON and CSV (and optionally YAML), the warnings log, and a terminal table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubrank/internal/pipeline"
	"github.com/pdiddy/pubrank/pkg/types"
)

// Log is the warnings log written next to the results.
type Log struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Seconds   float64         `json:"duration_seconds" yaml:"duration_seconds"`
	Entries   int             `json:"entries" yaml:"entries"`
	Dropped   int             `json:"duplicates_dropped" yaml:"duplicates_dropped"`
	Warnings  []types.Warning `json:"warnings" yaml:"warnings"`
}

// NewLog summarizes a report.
func NewLog(r *pipeline.Report) Log {
	warnings := r.Warnings
	if warnings == nil {
		warnings = []types.Warning{}
	}
	return Log{
		RunID:     r.RunID,
		StartedAt: r.StartedAt,
		Seconds:   r.Duration.Seconds(),
		Entries:   len(r.Entries),
		Dropped:   r.Dropped,
		Warnings:  warnings,
	}
}

// Paths are the files written for an output prefix.
type Paths struct {
	JSON string
	CSV  string
	YAML string
	Log  string
}

// PathsFor derives the output files of prefix: <prefix>.json, <prefix>.csv,
// <prefix>.yaml and <prefix>_log.json.
func PathsFor(prefix string) Paths {
	return Paths{
		JSON: prefix + ".json",
		CSV:  prefix + ".csv",
		YAML: prefix + ".yaml",
		Log:  prefix + "_log.json",
	}
}

// WriteReport writes the entries as JSON and CSV and the warnings log for
// prefix, and the YAML dump when withYAML is set. Missing parent directories
// are created.
func WriteReport(prefix string, r *pipeline.Report, withYAML bool) (Paths, error) {
	paths := PathsFor(prefix)
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("creating output directory: %w", err)
		}
	}
	entries := r.Entries
	if entries == nil {
		entries = []types.Entry{}
	}
	if err := WriteJSON(paths.JSON, entries); err != nil {
		return paths, err
	}
	if err := WriteCSV(paths.CSV, entries); err != nil {
		return paths, err
	}
	if withYAML {
		if err := WriteYAML(paths.YAML, entries); err != nil {
			return paths, err
		}
	}
	if err := WriteJSON(paths.Log, NewLog(r)); err != nil {
		return paths, err
	}
	return paths, nil
}

// WriteJSON writes v to path as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// csvHeader names the columns written by WriteCSV.
var csvHeader = []string{"kind", "authors", "title", "in", "year", "rank", "rank_year"}

// WriteCSV writes entries to path, one row per entry. Authors are joined
// with ", " and a zero year is left blank.
func WriteCSV(path string, entries []types.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(csvHeader)
	for _, e := range entries {
		year := ""
		if e.Year > 0 {
			year = fmt.Sprintf("%d", e.Year)
		}
		_ = w.Write([]string{
			string(e.Kind), strings.Join(e.Authors, ", "), e.Title, e.VenueName,
			year, e.Rank, string(e.RankYear),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteYAML writes v to path as YAML.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FormatTable writes entries as a human-readable table to w.
func FormatTable(w io.Writer, entries []types.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-20s  %-10s  %-4s  %-7s  %s\n",
		"#", "Title", "Venue", "Kind", "Year", "Rank", "Rank year")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	ranked := 0
	for i, e := range entries {
		year := ""
		if e.Year > 0 {
			year = fmt.Sprintf("%d", e.Year)
		}
		if e.Rank != "" && e.Rank != types.RankUnknown {
			ranked++
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-20s  %-10s  %-4s  %-7s  %s\n",
			i+1, truncate(e.Title, 50), truncate(e.VenueName, 20), e.Kind, year, e.Rank, e.RankYear)
	}
	fmt.Fprintf(w, "\n%d entries, %d ranked\n", len(entries), ranked)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
