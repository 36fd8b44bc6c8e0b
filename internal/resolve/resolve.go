// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve annotates entries with venue ranks. A ConferenceResolver
// asks a conference catalog for the CORE edition in force at the
// publication year; a JournalResolver picks a rank from a journal's yearly
// history. Both memoize every outcome, misses included, in a rank cache.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pdiddy/pubrank/internal/normalize"
	"github.com/pdiddy/pubrank/internal/patch"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

// DefaultTimeout bounds one catalog lookup when Options.Timeout is zero.
const DefaultTimeout = 3 * time.Second

// Outcome classifies how an entry's rank was obtained.
type Outcome int

const (
	// Cached means the rank came from the cache.
	Cached Outcome = iota
	// Resolved means the catalog returned a matching rank.
	Resolved
	// Miss means the catalog answered but nothing matched.
	Miss
	// Failed means the lookup errored or timed out.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Cached:
		return "cached"
	case Resolved:
		return "resolved"
	case Miss:
		return "miss"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer receives one call per resolved entry.
type Observer interface {
	ObserveLookup(catalog string, outcome string)
}

// Stats counts outcomes over a batch.
type Stats struct {
	Cached   int
	Resolved int
	Miss     int
	Failed   int
}

func (s *Stats) add(o Outcome) {
	switch o {
	case Cached:
		s.Cached++
	case Resolved:
		s.Resolved++
	case Miss:
		s.Miss++
	case Failed:
		s.Failed++
	}
}

// Total is the number of entries counted.
func (s Stats) Total() int { return s.Cached + s.Resolved + s.Miss + s.Failed }

// Options carries what both resolvers share. Cache and Patch are explicit
// inputs; a nil Cache is replaced by an empty one on first use.
type Options struct {
	Cache      *rankcache.Cache
	Patch      patch.Table
	Normalizer normalize.Normalizer
	Timeout    time.Duration
	Logger     *slog.Logger
	Observer   Observer
}

func (o *Options) cache() *rankcache.Cache {
	if o.Cache == nil {
		o.Cache = rankcache.New()
	}
	return o.Cache
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Options) observe(catalog string, outcome Outcome) {
	if o.Observer != nil {
		o.Observer.ObserveLookup(catalog, outcome.String())
	}
}

// settle applies rec to e and caches it under key. A lookup that failed
// because the run itself was cancelled is not cached, so the next run asks
// again.
func (o *Options) settle(ctx context.Context, e *types.Entry, key string, rec types.RankRecord, err error) Outcome {
	e.Apply(rec)
	switch {
	case err != nil && ctx.Err() != nil:
		return Failed
	case err != nil:
		o.cache().Put(key, rec)
		return Failed
	case rec.Known():
		o.cache().Put(key, rec)
		return Resolved
	default:
		o.cache().Put(key, rec)
		return Miss
	}
}

// lookupTimedOut reports whether err is a per-lookup timeout.
func lookupTimedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// resolveAll runs resolve over entries in order, stopping between entries
// when ctx is cancelled.
func resolveAll(ctx context.Context, entries []*types.Entry, resolve func(context.Context, *types.Entry) Outcome) (Stats, error) {
	var stats Stats
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.add(resolve(ctx, e))
	}
	return stats, nil
}
