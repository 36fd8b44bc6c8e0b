// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdiddy/pubrank/internal/catalog"
	"github.com/pdiddy/pubrank/internal/httputil"
	"github.com/pdiddy/pubrank/internal/match"
	"github.com/pdiddy/pubrank/internal/merge"
	"github.com/pdiddy/pubrank/internal/metrics"
	"github.com/pdiddy/pubrank/internal/normalize"
	"github.com/pdiddy/pubrank/internal/patch"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/internal/resolve"
	"github.com/pdiddy/pubrank/internal/source"
	"github.com/pdiddy/pubrank/pkg/types"
)

// Sources are the source adapters built from configuration.
type Sources struct {
	DBLP *source.DBLP
	HAL  *source.HAL
	File source.File
}

// Build assembles a pipeline from cfg: one throttled HTTP client shared by
// the live catalogs (or the fixture catalog), the rank caches, the patch
// table and the resolvers. Unreadable caches or patch files become setup
// warnings carried into the run report; a bad configuration is an error.
func Build(ctx context.Context, cfg types.Config, logger *slog.Logger, progress io.Writer) (*Pipeline, Sources, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules, err := normalize.RulesFromConfig(cfg.Normalize)
	if err != nil {
		return nil, Sources{}, err
	}
	norm := normalize.New(rules)
	client := httputil.NewClient(cfg.HTTP)

	var (
		conferences catalog.Conference
		journals    catalog.Journal
	)
	if cfg.Catalog.Fixture != "" {
		f, err := catalog.LoadFixture(cfg.Catalog.Fixture)
		if err != nil {
			return nil, Sources{}, err
		}
		conferences, journals = f, f
	} else {
		conferences = &catalog.Core{BaseURL: cfg.Catalog.CoreURL, Fetcher: client}
		journals = &catalog.Scimago{BaseURL: cfg.Catalog.ScimagoURL, Fetcher: client}
	}

	m := metrics.New()
	caches, setup, err := OpenCaches(ctx, cfg.Cache, m)
	if err != nil {
		return nil, Sources{}, err
	}

	table, err := patch.Load(cfg.Patch, norm)
	if err != nil {
		setup = append(setup, types.Warning{Level: types.LevelWarn, Msg: fmt.Sprintf("%v; continuing without patches", err)})
	}
	for _, w := range setup {
		logger.Warn(w.Msg)
	}

	opts := resolve.Options{
		Patch:      table,
		Normalizer: norm,
		Timeout:    cfg.Catalog.LookupTimeout,
		Logger:     logger,
		Observer:   m,
	}
	confOpts, journalOpts := opts, opts
	confOpts.Cache = caches.Get(rankcache.CatalogCore)
	journalOpts.Cache = caches.Get(rankcache.CatalogScimago)

	p := &Pipeline{
		Conference: &resolve.ConferenceResolver{Catalog: conferences, Options: confOpts},
		Journal:    &resolve.JournalResolver{Catalog: journals, Options: journalOpts},
		Merger:     merge.Merger{Matcher: match.New(norm), Threshold: match.TitleThreshold},
		Metrics:    m,
		Logger:     logger,
		Progress:   progress,
		caches:     caches,
		setup:      setup,
	}
	sources := Sources{
		DBLP: &source.DBLP{BaseURL: cfg.Source.DBLPURL, Fetcher: client, Logger: logger},
		HAL:  &source.HAL{BaseURL: cfg.Source.HALURL, Fetcher: client, Rows: cfg.Source.HALRows},
	}
	return p, sources, nil
}

// Finish persists the caches, appending a warning to report for each one
// that could not be saved, writes the metrics textfile when metricsFile is
// set, and releases the stores.
func (p *Pipeline) Finish(ctx context.Context, report *Report, metricsFile string) error {
	if p.caches != nil {
		for _, w := range p.caches.Save(ctx) {
			p.logger().Error(w.Msg)
			if report != nil {
				report.Warnings = append(report.Warnings, w)
			}
		}
		if err := p.caches.Close(); err != nil {
			p.logger().Warn("closing cache store", "error", err)
		}
	}
	if metricsFile != "" && p.Metrics != nil {
		if err := p.Metrics.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}
	return nil
}
