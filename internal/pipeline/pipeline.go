// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a rank job end to end: extract entries from a
// primary and a secondary source, merge them, check them, and resolve
// conference and journal ranks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pubrank/internal/merge"
	"github.com/pdiddy/pubrank/internal/metrics"
	"github.com/pdiddy/pubrank/internal/resolve"
	"github.com/pdiddy/pubrank/internal/source"
	"github.com/pdiddy/pubrank/pkg/types"
)

// ErrNoEntries is returned when every configured source failed.
var ErrNoEntries = errors.New("no source yielded entries")

// ErrNoAuthor is returned when Run is given no source to read.
var ErrNoAuthor = errors.New("no author given: provide a DBLP person, a HAL id, or an entry file")

// Input names a source and the author to extract from it. An Input with
// an empty Author is skipped.
type Input struct {
	Source source.Source
	Author string
}

func (in Input) configured() bool {
	return in.Source != nil && strings.TrimSpace(in.Author) != ""
}

// Report is the outcome of one run.
type Report struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	StartedAt time.Time       `json:"started_at" yaml:"started_at"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
	Entries   []types.Entry   `json:"entries" yaml:"entries"`
	Warnings  []types.Warning `json:"warnings" yaml:"warnings"`
	Dropped   int             `json:"dropped" yaml:"dropped"`

	Conference resolve.Stats `json:"conference" yaml:"conference"`
	Journal    resolve.Stats `json:"journal" yaml:"journal"`
}

// Warn appends a warning.
func (r *Report) Warn(level, msg, entry string) {
	r.Warnings = append(r.Warnings, types.Warning{Level: level, Msg: msg, Entry: entry})
}

// Pipeline wires the run stages. Conference and Journal may be nil to skip
// that resolution step.
type Pipeline struct {
	Conference *resolve.ConferenceResolver
	Journal    *resolve.JournalResolver
	Merger     merge.Merger
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// Progress receives one human-readable line per stage.
	Progress io.Writer

	caches *Caches
	setup  []types.Warning
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) progress() io.Writer {
	if p.Progress == nil {
		return io.Discard
	}
	return p.Progress
}

// Run extracts, merges, checks and ranks. Entries keep the merged order.
// A failing source is recorded as a fatal warning and the run continues
// with the other one. When ctx is cancelled during resolution the partial
// report is returned with ctx's error.
func (p *Pipeline) Run(ctx context.Context, primary, secondary Input) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), StartedAt: start.UTC()}
	report.Warnings = append(report.Warnings, p.setup...)
	log := p.logger().With("run_id", report.RunID)
	w := p.progress()

	if !primary.configured() && !secondary.configured() {
		return report, ErrNoAuthor
	}

	primaryEntries, primaryOK := p.extract(ctx, primary, report)
	secondaryEntries, secondaryOK := p.extract(ctx, secondary, report)
	if !primaryOK && !secondaryOK {
		p.finish(report, start)
		return report, ErrNoEntries
	}

	merged, dropped := p.Merger.Merge(primaryEntries, secondaryEntries)
	report.Entries, report.Dropped = merged, dropped
	p.Metrics.AddDropped(dropped)
	fmt.Fprintf(w, "merged: %d entries (%d duplicates dropped)\n", len(merged), dropped)
	log.Info("entries merged", "entries", len(merged), "dropped", dropped)

	conferences, journals := p.partition(report)

	var err error
	if p.Conference != nil && len(conferences) > 0 {
		fmt.Fprintf(w, "ranking %d conference entries with %s\n", len(conferences), p.Conference.Catalog.Name())
		report.Conference, err = p.Conference.ResolveAll(ctx, conferences)
	}
	if err == nil && p.Journal != nil && len(journals) > 0 {
		fmt.Fprintf(w, "ranking %d journal entries with %s\n", len(journals), p.Journal.Catalog.Name())
		report.Journal, err = p.Journal.ResolveAll(ctx, journals)
	}
	if err != nil {
		report.Warn(types.LevelError, fmt.Sprintf("run interrupted: %v", err), "")
	}

	p.finish(report, start)
	fmt.Fprintf(w, "\nRun summary: %d entries, %d conference (%d cached), %d journal (%d cached), %d warnings\n",
		len(report.Entries), report.Conference.Total(), report.Conference.Cached,
		report.Journal.Total(), report.Journal.Cached, len(report.Warnings))
	return report, err
}

func (p *Pipeline) extract(ctx context.Context, in Input, report *Report) ([]types.Entry, bool) {
	if !in.configured() {
		return nil, false
	}
	name := in.Source.Name()
	entries, err := in.Source.Extract(ctx, in.Author)
	if err != nil {
		report.Warn(types.LevelFatal, fmt.Sprintf("cannot fetch entry list %s from %s: %v", in.Author, name, err), "")
		p.logger().Error("source failed", "source", name, "author", in.Author, "error", err)
		fmt.Fprintf(p.progress(), "failed:  %s (%v)\n", name, err)
		return nil, false
	}
	p.Metrics.SetEntries(name, len(entries))
	fmt.Fprintf(p.progress(), "extracted: %d entries from %s\n", len(entries), name)
	return entries, true
}

// partition returns pointers to the rankable, well-formed entries. Entries
// missing a title, year or venue stay in the report unranked and are
// recorded as warnings.
func (p *Pipeline) partition(report *Report) (conferences, journals []*types.Entry) {
	for i := range report.Entries {
		e := &report.Entries[i]
		if missing := e.Missing(); len(missing) > 0 {
			report.Warn(types.LevelWarn,
				fmt.Sprintf("%s entry missing %s, not ranked", e.Kind, strings.Join(missing, ", ")), e.Title)
			continue
		}
		switch e.Kind {
		case types.KindConference:
			conferences = append(conferences, e)
		case types.KindJournal:
			journals = append(journals, e)
		}
	}
	return conferences, journals
}

func (p *Pipeline) finish(report *Report, start time.Time) {
	report.Duration = time.Since(start)
	p.Metrics.SetDuration(report.Duration)
	for _, w := range report.Warnings {
		p.Metrics.ObserveWarning(w.Level)
	}
}
