// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubrank/internal/catalog"
	"github.com/pdiddy/pubrank/internal/normalize"
	"github.com/pdiddy/pubrank/internal/patch"
	"github.com/pdiddy/pubrank/internal/rankcache"
	"github.com/pdiddy/pubrank/pkg/types"
)

// stubConference records calls and answers from a fixed table.
type stubConference struct {
	mu       sync.Mutex
	calls    []string
	editions []string
	records  []catalog.Record
	err      error
	block    bool
}

func (s *stubConference) Name() string { return "core" }

func (s *stubConference) Lookup(ctx context.Context, query, edition string) ([]catalog.Record, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.editions = append(s.editions, edition)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.records, s.err
}

type stubJournal struct {
	venues   []catalog.Venue
	series   []catalog.Record
	searches []string
	err      error
	delay    time.Duration
}

// wait sleeps for the stub delay unless ctx ends first.
func (s *stubJournal) wait(ctx context.Context) error {
	if s.delay == 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubJournal) Name() string { return "scimago" }

func (s *stubJournal) Order() catalog.RankOrder { return catalog.QuartileOrder }

func (s *stubJournal) Series(ctx context.Context, _ catalog.Venue) ([]catalog.Record, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.series, nil
}

func (s *stubJournal) Search(ctx context.Context, query string) ([]catalog.Venue, error) {
	s.searches = append(s.searches, query)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.venues, s.err
}

type countingObserver struct {
	counts map[string]int
}

func (o *countingObserver) ObserveLookup(catalog, outcome string) {
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[catalog+"/"+outcome]++
}

func options(cache *rankcache.Cache) Options {
	return Options{Cache: cache, Normalizer: normalize.Default, Timeout: time.Second}
}

func TestCoreEdition(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{2021, "2018"},
		{2018, "2018"},
		{2017, "2017"},
		{2016, "2014"},
		{2014, "2014"},
		{2013, "2013"},
		{2012, "2010"},
		{2010, "2010"},
		{2009, "2008"},
		{1995, "2008"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoreEdition(tt.year), "year %d", tt.year)
	}
}

func TestConferenceMissIsCachedAndNotRequeried(t *testing.T) {
	stub := &stubConference{records: []catalog.Record{{Name: "Other Conference", Acronym: "OTHER", Rank: "B"}}}
	cache := rankcache.New()
	obs := &countingObserver{}
	r := &ConferenceResolver{Catalog: stub, Options: options(cache)}
	r.Observer = obs

	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "XYZConf", Year: 2020}
	assert.Equal(t, Miss, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Equal(t, types.Label("2018"), e.RankYear)

	rec, ok := cache.Get("xyzconf2020")
	require.True(t, ok)
	assert.Equal(t, types.RankUnknown, rec.Rank)
	assert.Equal(t, types.Label("2018"), rec.Year)

	again := &types.Entry{Kind: types.KindConference, Title: "U", VenueName: "xyzconf", Year: 2020}
	assert.Equal(t, Cached, r.Resolve(context.Background(), again))
	assert.Len(t, stub.calls, 1, "a cached key must not reach the catalog")
	assert.Equal(t, types.RankUnknown, again.Rank)
	assert.Equal(t, map[string]int{"core/miss": 1, "core/cached": 1}, obs.counts)
}

func TestConferenceMatchesAcronymOrName(t *testing.T) {
	stub := &stubConference{records: []catalog.Record{
		{Name: "ICDE Workshops", Acronym: "ICDEW", Rank: "C"},
		{Name: "International Conference on Data Engineering", Acronym: " ICDE ", Rank: "A*"},
	}}
	r := &ConferenceResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "ICDE", Year: 2016}
	assert.Equal(t, Resolved, r.Resolve(context.Background(), e))
	assert.Equal(t, "A*", e.Rank)
	assert.Equal(t, types.Label("2014"), e.RankYear)
	assert.Equal(t, []string{"2014"}, stub.editions)

	e = &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "ICDE Workshops", Year: 2009}
	assert.Equal(t, Resolved, r.Resolve(context.Background(), e))
	assert.Equal(t, "C", e.Rank)
	assert.Equal(t, types.Label("2008"), e.RankYear)
}

func TestConferencePatchOverridesQuery(t *testing.T) {
	stub := &stubConference{records: []catalog.Record{{Name: "Management of Data", Acronym: "SIGMOD", Rank: "A*"}}}
	opts := options(rankcache.New())
	opts.Patch = patch.Table{"sigmod conference": "sigmod"}
	r := &ConferenceResolver{Catalog: stub, Options: opts}

	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "SIGMOD Conference", Year: 2019}
	r.Resolve(context.Background(), e)
	assert.Equal(t, []string{"sigmod"}, stub.calls)
	assert.Equal(t, "A*", e.Rank)
	_, ok := r.Cache.Get("sigmod2019")
	assert.True(t, ok)
}

func TestConferenceTimeoutIsAMiss(t *testing.T) {
	stub := &stubConference{block: true}
	opts := options(rankcache.New())
	opts.Timeout = 10 * time.Millisecond
	r := &ConferenceResolver{Catalog: stub, Options: opts}

	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "SlowConf", Year: 2018}
	assert.Equal(t, Failed, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)

	rec, ok := r.Cache.Get("slowconf2018")
	require.True(t, ok, "a timed out lookup is cached as unknown")
	assert.Equal(t, types.UnknownRecord("2018"), types.RankRecord{Rank: rec.Rank, Year: rec.Year})
}

func TestConferenceCancelledRunIsNotCached(t *testing.T) {
	stub := &stubConference{block: true}
	r := &ConferenceResolver{Catalog: stub, Options: options(rankcache.New())}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "ICDE", Year: 2018}
	assert.Equal(t, Failed, r.Resolve(ctx, e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Zero(t, r.Cache.Len())
}

func TestConferenceErrorIsAMiss(t *testing.T) {
	stub := &stubConference{err: errors.New("connection refused")}
	r := &ConferenceResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindConference, Title: "T", VenueName: "ICDE", Year: 2018}
	assert.Equal(t, Failed, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Equal(t, 1, r.Cache.Len())
}

func TestResolveAllStopsOnCancel(t *testing.T) {
	stub := &stubConference{records: []catalog.Record{{Acronym: "A", Rank: "B"}}}
	r := &ConferenceResolver{Catalog: stub, Options: options(rankcache.New())}
	entries := []*types.Entry{
		{Kind: types.KindConference, Title: "T1", VenueName: "A", Year: 2019},
		{Kind: types.KindConference, Title: "T2", VenueName: "A", Year: 2019},
	}

	stats, err := r.ResolveAll(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, Stats{Resolved: 1, Cached: 1}, stats)
	assert.Equal(t, 2, stats.Total())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err = r.ResolveAll(ctx, entries)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Total())
}

func TestSelectRank(t *testing.T) {
	series := []catalog.Record{
		{Year: 2015, Rank: "Q2"},
		{Year: 2017, Rank: "Q1"},
		{Year: 2019, Rank: "Q3"},
	}
	tests := []struct {
		year      int
		wantRank  string
		wantLabel types.Label
	}{
		{2017, "Q1", "2017"},
		{2012, "Q2", "2015"},
		{2015, "Q2", "2015"},
		{2021, "Q3", "2019"},
		{2018, "Q3", "2019"},
	}
	for _, tt := range tests {
		rank, label, ok := SelectRank(series, tt.year, catalog.QuartileOrder)
		require.True(t, ok)
		assert.Equal(t, tt.wantRank, rank, "year %d", tt.year)
		assert.Equal(t, tt.wantLabel, label, "year %d", tt.year)
	}
}

func TestSelectRankBestPerYear(t *testing.T) {
	series := []catalog.Record{
		{Name: "A", Year: 2016, Rank: "Q3"},
		{Name: "B", Year: 2016, Rank: "Q1"},
		{Name: "A", Year: 2018, Rank: "-"},
		{Name: "B", Year: 2018, Rank: "Q2"},
		{Name: "A", Year: 2017, Rank: "Q4"},
	}
	rank, label, _ := SelectRank(series, 2010, nil)
	assert.Equal(t, "Q1", rank)
	assert.Equal(t, types.Label("2016"), label)

	rank, label, _ = SelectRank(series, 2020, nil)
	assert.Equal(t, "Q2", rank)
	assert.Equal(t, types.Label("2018"), label)

	rank, _, _ = SelectRank(series, 2017, nil)
	assert.Equal(t, "Q4", rank)
}

func TestSelectRankShortSeries(t *testing.T) {
	rank, label, ok := SelectRank([]catalog.Record{{Year: 2015, Rank: "Q1"}, {Year: 2016, Rank: "Q1"}}, 2015, nil)
	assert.False(t, ok)
	assert.Equal(t, types.RankUnknown, rank)
	assert.Equal(t, types.Label(types.RankUnknown), label)
}

func TestJournalResolve(t *testing.T) {
	stub := &stubJournal{
		venues: []catalog.Venue{
			{Name: "Journal of Something Else", ID: "1"},
			{Name: "Information Systems.", ID: "2"},
		},
		series: []catalog.Record{
			{Year: 2015, Rank: "Q2"},
			{Year: 2017, Rank: "Q1"},
			{Year: 2019, Rank: "Q3"},
		},
	}
	r := &JournalResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindJournal, Title: "T", VenueName: "Inf. Syst.", VenueFullName: "Information Systems", Year: 2017}
	assert.Equal(t, Resolved, r.Resolve(context.Background(), e))
	assert.Equal(t, "Q1", e.Rank)
	assert.Equal(t, types.Label("2017"), e.RankYear)
	assert.Equal(t, []string{"information systems"}, stub.searches)

	rec, ok := r.Cache.Get("information systems2017")
	require.True(t, ok)
	assert.Equal(t, "Q1", rec.Rank)
}

func TestJournalTimeoutAppliesPerRequest(t *testing.T) {
	stub := &stubJournal{
		venues: []catalog.Venue{{Name: "Information Systems", ID: "2"}},
		series: []catalog.Record{
			{Year: 2015, Rank: "Q2"},
			{Year: 2017, Rank: "Q1"},
			{Year: 2019, Rank: "Q3"},
		},
		delay: 120 * time.Millisecond,
	}
	opts := options(rankcache.New())
	opts.Timeout = 200 * time.Millisecond
	r := &JournalResolver{Catalog: stub, Options: opts}

	// Search and series together exceed the timeout; each alone does not.
	e := &types.Entry{Kind: types.KindJournal, Title: "T", VenueFullName: "Information Systems", Year: 2017}
	assert.Equal(t, Resolved, r.Resolve(context.Background(), e))
	assert.Equal(t, "Q1", e.Rank)

	stub.delay = 400 * time.Millisecond
	slow := &types.Entry{Kind: types.KindJournal, Title: "U", VenueFullName: "Information Systems", Year: 2019}
	assert.Equal(t, Failed, r.Resolve(context.Background(), slow))
	assert.Equal(t, types.RankUnknown, slow.Rank)
}

func TestJournalQuery(t *testing.T) {
	opts := options(nil)
	opts.Patch = patch.Table{"vldb j.": "the vldb journal"}
	r := &JournalResolver{Catalog: &stubJournal{}, Options: opts}

	assert.Equal(t, "the vldb journal", r.Query(&types.Entry{VenueName: "VLDB J.", VenueFullName: "VLDB Journal"}))
	assert.Equal(t, "information systems", r.Query(&types.Entry{VenueName: "Inf. Syst.", VenueFullName: "Information Systems"}))
	assert.Equal(t, "inf. syst.", r.Query(&types.Entry{VenueName: "Inf. Syst."}))
}

func TestJournalNoCandidateIsUnknown(t *testing.T) {
	stub := &stubJournal{venues: []catalog.Venue{{Name: "Completely Different Title", ID: "1"}}}
	r := &JournalResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindJournal, Title: "T", VenueFullName: "Information Systems", Year: 2017}
	assert.Equal(t, Miss, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Equal(t, types.Label(types.RankUnknown), e.RankYear)
	assert.Equal(t, 1, r.Cache.Len())
}

func TestJournalShortSeriesIsUnknown(t *testing.T) {
	stub := &stubJournal{
		venues: []catalog.Venue{{Name: "Information Systems", ID: "2"}},
		series: []catalog.Record{{Year: 2015, Rank: "Q2"}},
	}
	r := &JournalResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindJournal, Title: "T", VenueFullName: "Information Systems", Year: 2015}
	assert.Equal(t, Miss, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Equal(t, types.Label(types.RankUnknown), e.RankYear)
}

func TestJournalSearchErrorIsUnknown(t *testing.T) {
	stub := &stubJournal{err: errors.New("boom")}
	r := &JournalResolver{Catalog: stub, Options: options(rankcache.New())}

	e := &types.Entry{Kind: types.KindJournal, Title: "T", VenueFullName: "Information Systems", Year: 2015}
	assert.Equal(t, Failed, r.Resolve(context.Background(), e))
	assert.Equal(t, types.RankUnknown, e.Rank)
	assert.Equal(t, 1, r.Cache.Len())
}
