// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines the entry lists of two sources into one list
// without duplicate publications.
package merge

import (
	"github.com/pdiddy/pubrank/internal/match"
	"github.com/pdiddy/pubrank/pkg/types"
)

// Merger deduplicates by fuzzy title equivalence.
type Merger struct {
	Matcher   match.Matcher
	Threshold int
}

// Default compares titles with match.Default at match.TitleThreshold.
var Default = Merger{Matcher: match.Default, Threshold: match.TitleThreshold}

// Merge is Default.Merge without the drop count.
func Merge(primary, secondary []types.Entry) []types.Entry {
	merged, _ := Default.Merge(primary, secondary)
	return merged
}

// MergeWithStats is Default.Merge.
func MergeWithStats(primary, secondary []types.Entry) ([]types.Entry, int) {
	return Default.Merge(primary, secondary)
}

// Merge returns primary unchanged and in order, followed by every secondary
// entry whose title is not equivalent to any primary title. Primary entries
// win ties; secondary entries are pure additions. The second result is the
// number of secondary entries dropped as duplicates.
func (m Merger) Merge(primary, secondary []types.Entry) ([]types.Entry, int) {
	merged := make([]types.Entry, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)

	keys := make([]string, len(primary))
	for i, e := range primary {
		keys[i] = m.Matcher.Normalize(e.Title)
	}

	dropped := 0
	for _, e := range secondary {
		if m.duplicate(keys, m.Matcher.Normalize(e.Title)) {
			dropped++
			continue
		}
		merged = append(merged, e)
	}
	return merged, dropped
}

func (m Merger) duplicate(keys []string, key string) bool {
	for _, k := range keys {
		if match.EquivalentKeys(k, key, m.Threshold) {
			return true
		}
	}
	return false
}
