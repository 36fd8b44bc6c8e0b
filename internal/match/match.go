// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match decides whether two titles or venue names denote the same
// thing, using Levenshtein distance over their normalized keys.
package match

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/pdiddy/pubrank/internal/normalize"
)

// Edit-distance thresholds.
const (
	// TitleThreshold is used when deduplicating entries by title.
	TitleThreshold = 2

	// VenueThreshold is used when picking a catalog candidate by venue name.
	VenueThreshold = 4
)

// Matcher compares strings after normalizing them with its Normalizer.
type Matcher struct {
	norm normalize.Normalizer
}

// New returns a Matcher that normalizes with n.
func New(n normalize.Normalizer) Matcher {
	return Matcher{norm: n}
}

// Default uses normalize.Default.
var Default = New(normalize.Default)

// Equivalent is Default.Equivalent.
func Equivalent(a, b string, threshold int) bool {
	return Default.Equivalent(a, b, threshold)
}

// Normalize returns the key the matcher compares.
func (m Matcher) Normalize(s string) string {
	return m.norm.Normalize(s)
}

// Equivalent reports whether a and b normalize to keys within threshold
// edits of each other. It is symmetric.
func (m Matcher) Equivalent(a, b string, threshold int) bool {
	return EquivalentKeys(m.norm.Normalize(a), m.norm.Normalize(b), threshold)
}

// EquivalentKeys is Equivalent for inputs that are already normalized.
func EquivalentKeys(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if threshold <= 0 {
		return false
	}
	// The length difference is a lower bound on the distance.
	if d := utf8.RuneCountInString(a) - utf8.RuneCountInString(b); d > threshold || -d > threshold {
		return false
	}
	return matchr.Levenshtein(a, b) <= threshold
}

// Distance returns the edit distance between the normalized forms of a and b.
func (m Matcher) Distance(a, b string) int {
	return matchr.Levenshtein(m.norm.Normalize(a), m.norm.Normalize(b))
}
