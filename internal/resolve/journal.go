// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"

	"github.com/pdiddy/pubrank/internal/catalog"
	"github.com/pdiddy/pubrank/internal/match"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

// MinSeries is the shortest rank history a journal rank is picked from.
const MinSeries = 3

// JournalResolver ranks journal entries against a journal catalog.
type JournalResolver struct {
	Catalog catalog.Journal

	// Threshold is the edit distance within which a search hit counts as
	// the queried journal. Zero means match.VenueThreshold.
	Threshold int

	Options
}

// Query returns the catalog query for e: a patch override of the short
// venue name, else the full venue name, else the short name.
func (r *JournalResolver) Query(e *types.Entry) string {
	short := r.Normalizer.Normalize(e.VenueName)
	if q, ok := r.Patch.Lookup(short); ok {
		return q
	}
	if full := r.Normalizer.Normalize(e.VenueFullName); full != "" {
		return full
	}
	return short
}

// Resolve sets e.Rank and e.RankYear. A journal that cannot be found or
// whose history is too short gets "unknown" for both.
func (r *JournalResolver) Resolve(ctx context.Context, e *types.Entry) Outcome {
	name := r.Catalog.Name()
	query := r.Query(e)
	key := rankcache.Key(query, e.Year)
	log := r.logger().With("catalog", name, "query", query, "year", e.Year)

	if rec, ok := r.cache().Get(key); ok {
		e.Apply(rec)
		log.Debug("rank found in cache", "rank", rec.Rank, "rank_year", rec.Year)
		r.observe(name, Cached)
		return Cached
	}

	if query == "" {
		e.Apply(types.UnknownRecord(types.RankUnknown))
		r.observe(name, Miss)
		return Miss
	}

	rec, err := r.lookup(ctx, query, e.Year)
	if err != nil {
		if lookupTimedOut(err) {
			log.Warn("catalog lookup timed out")
		} else {
			log.Warn("catalog lookup failed", "error", err)
		}
	}

	outcome := r.settle(ctx, e, key, rec, err)
	log.Info("journal ranked", "rank", rec.Rank, "rank_year", rec.Year, "outcome", outcome.String())
	r.observe(name, outcome)
	return outcome
}

// ResolveAll resolves entries in order.
func (r *JournalResolver) ResolveAll(ctx context.Context, entries []*types.Entry) (Stats, error) {
	return resolveAll(ctx, entries, r.Resolve)
}

func (r *JournalResolver) lookup(ctx context.Context, query string, year int) (types.RankRecord, error) {
	unknown := types.UnknownRecord(types.RankUnknown)

	searchCtx, cancel := context.WithTimeout(ctx, r.timeout())
	venues, err := r.Catalog.Search(searchCtx, query)
	cancel()
	if err != nil {
		return unknown, err
	}
	venue, ok := r.pick(venues, query)
	if !ok {
		return unknown, nil
	}

	// The series request gets its own deadline; both go through the shared
	// rate limiter.
	seriesCtx, cancel := context.WithTimeout(ctx, r.timeout())
	series, err := r.Catalog.Series(seriesCtx, venue)
	cancel()
	if err != nil {
		return unknown, fmt.Errorf("journal %q: %w", venue.Name, err)
	}
	rank, label, ok := SelectRank(series, year, r.Catalog.Order())
	if !ok {
		return unknown, nil
	}
	return types.RankRecord{Rank: rank, Year: label}, nil
}

// pick returns the first hit whose normalized name equals query or lies
// within the venue threshold of it.
func (r *JournalResolver) pick(venues []catalog.Venue, query string) (catalog.Venue, bool) {
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = match.VenueThreshold
	}
	for _, v := range venues {
		if match.EquivalentKeys(r.Normalizer.Normalize(v.Name), query, threshold) {
			return v, true
		}
	}
	return catalog.Venue{}, false
}

// SelectRank picks a rank from a yearly history. With a row for year it
// returns the best rank of that year; when year is at or before the first
// recorded year it returns the best rank of the first year; otherwise the
// best rank of the last year. A history shorter than MinSeries rows yields
// ok == false.
func SelectRank(series []catalog.Record, year int, better catalog.RankOrder) (rank string, label types.Label, ok bool) {
	if len(series) < MinSeries {
		return types.RankUnknown, types.RankUnknown, false
	}
	if better == nil {
		better = catalog.QuartileOrder
	}

	first, last := series[0].Year, series[0].Year
	bestFirst, bestLast := series[0].Rank, series[0].Rank
	var bestAtYear string
	haveYear := false
	for i, rec := range series {
		if i > 0 {
			switch {
			case rec.Year < first:
				first, bestFirst = rec.Year, rec.Rank
			case rec.Year == first && better(rec.Rank, bestFirst):
				bestFirst = rec.Rank
			}
			switch {
			case rec.Year > last:
				last, bestLast = rec.Year, rec.Rank
			case rec.Year == last && better(rec.Rank, bestLast):
				bestLast = rec.Rank
			}
		}
		if rec.Year == year && (!haveYear || better(rec.Rank, bestAtYear)) {
			bestAtYear, haveYear = rec.Rank, true
		}
	}

	switch {
	case haveYear:
		return bestAtYear, types.YearLabel(year), true
	case year <= first:
		return bestFirst, types.YearLabel(first), true
	default:
		return bestLast, types.YearLabel(last), true
	}
}
