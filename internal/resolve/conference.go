// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"strings"

	"github.com/pdiddy/pubrank/internal/catalog"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

// CoreEdition returns the CORE ranking edition in force for a publication
// year.
func CoreEdition(year int) string {
	switch {
	case year >= 2018:
		return "2018"
	case year >= 2017:
		return "2017"
	case year >= 2014:
		return "2014"
	case year >= 2013:
		return "2013"
	case year >= 2010:
		return "2010"
	default:
		return "2008"
	}
}

// ConferenceResolver ranks conference entries against a conference catalog.
type ConferenceResolver struct {
	Catalog catalog.Conference
	Options
}

// Resolve sets e.Rank and e.RankYear. Every outcome except a cancelled run
// is cached, so a venue is looked up at most once per year.
func (r *ConferenceResolver) Resolve(ctx context.Context, e *types.Entry) Outcome {
	name := r.Catalog.Name()
	query := r.Patch.Query(r.Normalizer.Normalize(e.VenueName))
	key := rankcache.Key(query, e.Year)
	log := r.logger().With("catalog", name, "query", query, "year", e.Year)

	if rec, ok := r.cache().Get(key); ok {
		e.Apply(rec)
		log.Debug("rank found in cache", "rank", rec.Rank, "rank_year", rec.Year)
		r.observe(name, Cached)
		return Cached
	}

	edition := CoreEdition(e.Year)
	if query == "" {
		e.Apply(types.UnknownRecord(types.Label(edition)))
		r.observe(name, Miss)
		return Miss
	}
	rank, err := r.lookup(ctx, query, edition)
	if err != nil {
		if lookupTimedOut(err) {
			log.Warn("catalog lookup timed out", "edition", edition)
		} else {
			log.Warn("catalog lookup failed", "edition", edition, "error", err)
		}
	}

	outcome := r.settle(ctx, e, key, types.RankRecord{Rank: rank, Year: types.Label(edition)}, err)
	log.Info("conference ranked", "rank", rank, "edition", edition, "outcome", outcome.String())
	r.observe(name, outcome)
	return outcome
}

// ResolveAll resolves entries in order.
func (r *ConferenceResolver) ResolveAll(ctx context.Context, entries []*types.Entry) (Stats, error) {
	return resolveAll(ctx, entries, r.Resolve)
}

// lookup returns the rank of the first row whose acronym or name equals
// query, or RankUnknown.
func (r *ConferenceResolver) lookup(ctx context.Context, query, edition string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	records, err := r.Catalog.Lookup(ctx, query, edition)
	if err != nil {
		return types.RankUnknown, err
	}
	for _, rec := range records {
		if strings.ToLower(strings.TrimSpace(rec.Acronym)) == query ||
			strings.ToLower(strings.TrimSpace(rec.Name)) == query {
			if rank := strings.TrimSpace(rec.Rank); rank != "" {
				return rank, nil
			}
		}
	}
	return types.RankUnknown, nil
}
