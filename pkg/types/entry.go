// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the pubrank pipeline:
// publication entries, rank records and their labels, run warnings, and the
// configuration tree loaded by the CLI.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// RankUnknown is the rank (and rank year) recorded when no catalog entry
// could be matched. It is ordinary data, not an error.
const RankUnknown = "unknown"

// Kind classifies a publication entry.
type Kind string

const (
	KindConference Kind = "conference"
	KindJournal    Kind = "journal"
	KindEditor     Kind = "editor"
	KindBook       Kind = "book"
	KindInBook     Kind = "inbook"
	KindUnknown    Kind = "unknown"
)

// ParseKind maps a free-form kind string to a Kind. Unrecognized values
// yield KindUnknown.
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindConference, KindJournal, KindEditor, KindBook, KindInBook:
		return k
	default:
		return KindUnknown
	}
}

// Rankable reports whether entries of this kind go through a rank resolver.
func (k Kind) Rankable() bool {
	return k == KindConference || k == KindJournal
}

// Label is a rank year. It holds either a publication year ("2017"), a
// catalog edition ("2018"), or RankUnknown. Decoding accepts JSON/YAML
// numbers as well as strings so cache files that stored bare years load
// unchanged.
type Label string

// YearLabel returns the label for a calendar year.
func YearLabel(year int) Label {
	return Label(strconv.Itoa(year))
}

// Year returns the label as an integer year, if it is one.
func (l Label) Year() (int, bool) {
	y, err := strconv.Atoi(string(l))
	if err != nil {
		return 0, false
	}
	return y, true
}

// String implements fmt.Stringer.
func (l Label) String() string { return string(l) }

// UnmarshalJSON accepts a JSON string, number, or null.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("rank year label: %w", err)
		}
		*l = Label(n.String())
		return nil
	}
}

// UnmarshalYAML accepts any scalar.
func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("rank year label: expected scalar at line %d", value.Line)
	}
	if value.Tag == "!!null" {
		*l = ""
		return nil
	}
	*l = Label(value.Value)
	return nil
}

// Entry is one bibliographic record being annotated. Source adapters
// create entries; only rank resolvers set Rank and RankYear.
type Entry struct {
	// Kind classifies the entry (conference, journal, ...).
	Kind Kind `json:"kind" yaml:"kind"`

	// Title is the publication title as given by the source.
	Title string `json:"title" yaml:"title"`

	// VenueName is the short venue label, usually an acronym for conferences
	// and an abbreviation for journals.
	VenueName string `json:"venue_name" yaml:"venue_name"`

	// VenueFullName is the expanded venue name. May be empty for conferences.
	VenueFullName string `json:"venue_full_name,omitempty" yaml:"venue_full_name,omitempty"`

	// Year is the publication year.
	Year int `json:"year" yaml:"year"`

	// Authors lists author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Link points at the record in its source.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// Source names the adapter that produced the entry (dblp, hal, file).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Rank is the resolved venue rank, or RankUnknown.
	Rank string `json:"rank,omitempty" yaml:"rank,omitempty"`

	// RankYear is the catalog year or edition the rank was taken from.
	RankYear Label `json:"rank_year,omitempty" yaml:"rank_year,omitempty"`
}

// Missing lists the fields a rankable entry needs but lacks. Entries of
// other kinds only need a title.
func (e Entry) Missing() []string {
	var missing []string
	if strings.TrimSpace(e.Title) == "" {
		missing = append(missing, "title")
	}
	if !e.Kind.Rankable() {
		return missing
	}
	if e.Year <= 0 {
		missing = append(missing, "year")
	}
	switch e.Kind {
	case KindConference:
		if strings.TrimSpace(e.VenueName) == "" {
			missing = append(missing, "venue")
		}
	case KindJournal:
		if strings.TrimSpace(e.VenueName) == "" && strings.TrimSpace(e.VenueFullName) == "" {
			missing = append(missing, "venue")
		}
	}
	return missing
}

// Apply copies a resolved rank onto the entry.
func (e *Entry) Apply(r RankRecord) {
	e.Rank = r.Rank
	e.RankYear = r.Year
}

// RankRecord is a resolved rank as stored in a rank cache, or a single
// (year, rank) row of a catalog time series.
type RankRecord struct {
	Rank string `json:"rank" yaml:"rank"`
	Year Label  `json:"year" yaml:"year"`

	// CheckedAt records when the catalog was queried. Zero for records
	// written by tools that did not track it.
	CheckedAt time.Time `json:"checked_at,omitzero" yaml:"checked_at,omitempty"`
}

// UnknownRecord returns the record stored for a resolution miss.
func UnknownRecord(year Label) RankRecord {
	return RankRecord{Rank: RankUnknown, Year: year}
}

// Known reports whether the record carries an actual rank.
func (r RankRecord) Known() bool {
	return r.Rank != "" && r.Rank != RankUnknown
}

// Warning levels used in the run log.
const (
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

// Warning is a non-fatal problem reported alongside the run output.
type Warning struct {
	Level string `json:"level" yaml:"level"`
	Msg   string `json:"msg" yaml:"msg"`

	// Entry is the title of the entry concerned, if any.
	Entry string `json:"entry,omitempty" yaml:"entry,omitempty"`
}
