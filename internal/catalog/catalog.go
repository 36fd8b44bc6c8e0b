// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog looks venues up in ranking catalogs. A conference catalog
// answers a query for one edition with candidate rows; a journal catalog
// first finds candidate venues and then returns a venue's rank history.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a venue page or edition does not exist.
var ErrNotFound = errors.New("not found")

// Record is one row of a ranking catalog.
type Record struct {
	Name    string `json:"name" yaml:"name"`
	Acronym string `json:"acronym,omitempty" yaml:"acronym,omitempty"`
	Rank    string `json:"rank" yaml:"rank"`
	Year    int    `json:"year,omitempty" yaml:"year,omitempty"`
}

// Venue is a journal search hit. ID is opaque to callers and only passed
// back to Series.
type Venue struct {
	Name string
	ID   string
}

// Conference is a catalog of conference ranks by edition.
type Conference interface {
	Name() string
	Lookup(ctx context.Context, query, edition string) ([]Record, error)
}

// Journal is a catalog of yearly journal ranks.
type Journal interface {
	Name() string
	Search(ctx context.Context, query string) ([]Venue, error)
	Series(ctx context.Context, v Venue) ([]Record, error)
	Order() RankOrder
}

// RankOrder reports whether rank a is strictly better than rank b.
type RankOrder func(a, b string) bool

var quartiles = map[string]int{"q1": 1, "q2": 2, "q3": 3, "q4": 4, "-": 5}

// QuartileOrder orders Scimago quartiles: Q1 before Q2 before Q3 before Q4
// before "-". Unlisted tiers sort after listed ones and lexically among
// themselves.
func QuartileOrder(a, b string) bool {
	ka, oka := quartiles[strings.ToLower(strings.TrimSpace(a))]
	kb, okb := quartiles[strings.ToLower(strings.TrimSpace(b))]
	switch {
	case oka && okb:
		return ka < kb
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}
