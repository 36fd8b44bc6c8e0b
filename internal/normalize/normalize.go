// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns free-text titles and venue names into comparable
// keys. Two strings that differ only in case, spacing, trailing
// parenthetical or comma-separated qualifiers, colons, braces, or an
// "&amp;" entity normalize to the same key.
package normalize

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/pubrank/pkg/types"
)

const ampEntity = "&amp;"

// AmpersandPolicy selects what the "&amp;" entity is replaced with.
type AmpersandPolicy string

const (
	AmpersandRemove AmpersandPolicy = "remove"
	AmpersandSpace  AmpersandPolicy = "space"
)

// Rules is the configurable part of normalization.
type Rules struct {
	// Fold applies Unicode compatibility folding so full-width and
	// ligature forms compare equal to their ASCII counterparts.
	Fold bool

	// StripColon removes every ':' character.
	StripColon bool

	// Ampersand selects the replacement for "&amp;".
	Ampersand AmpersandPolicy
}

// DefaultRules returns the rules used unless configured otherwise.
func DefaultRules() Rules {
	return Rules{Fold: true, StripColon: true, Ampersand: AmpersandRemove}
}

// RulesFromConfig converts the configuration section into Rules.
func RulesFromConfig(cfg types.NormalizeConfig) (Rules, error) {
	r := Rules{Fold: cfg.Fold, StripColon: cfg.StripColon}
	switch AmpersandPolicy(strings.ToLower(cfg.Ampersand)) {
	case "", AmpersandRemove:
		r.Ampersand = AmpersandRemove
	case AmpersandSpace:
		r.Ampersand = AmpersandSpace
	default:
		return Rules{}, fmt.Errorf("unknown ampersand policy %q (want remove or space)", cfg.Ampersand)
	}
	return r, nil
}

// Normalizer applies a fixed rule set. The zero value applies no folding,
// keeps colons, and removes "&amp;".
type Normalizer struct {
	rules Rules
}

// New returns a Normalizer for rules.
func New(rules Rules) Normalizer {
	return Normalizer{rules: rules}
}

// Default uses DefaultRules.
var Default = New(DefaultRules())

// Normalize is Default.Normalize.
func Normalize(text string) string {
	return Default.Normalize(text)
}

// Rules returns the rule set in use.
func (n Normalizer) Rules() Rules { return n.rules }

// Normalize returns the key for text. It is pure and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func (n Normalizer) Normalize(text string) string {
	// Invalid bytes become U+FFFD up front so folding sees the same runes
	// on every pass.
	s := strings.ToValidUTF8(text, "\uFFFD")
	if n.rules.Fold {
		s = norm.NFKC.String(s)
	}
	s = strings.ToLower(s)

	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	if n.rules.StripColon {
		s = strings.ReplaceAll(s, ":", "")
	}
	s = strings.NewReplacer("{", "", "}", "").Replace(s)

	repl := ""
	if n.rules.Ampersand == AmpersandSpace {
		repl = " "
	}
	// Removing an entity can splice a new one together ("&am&amp;p;").
	for strings.Contains(s, ampEntity) {
		s = strings.ReplaceAll(s, ampEntity, repl)
	}

	// Collapsing after the entity rule keeps the result free of double spaces.
	s = strings.Join(strings.Fields(s), " ")

	if n.rules.Fold {
		// Deleting characters can leave a combining mark next to a new base.
		s = norm.NFC.String(s)
	}
	return s
}
