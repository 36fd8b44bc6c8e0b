// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Fixture is an offline catalog read from a YAML file. It serves both
// conference and journal lookups, so runs can be reproduced without the
// live sites:
//
//	conferences:
//	  - {name: Data Engineering, acronym: ICDE, rank: A*, edition: "2018"}
//	journals:
//	  - name: Information Systems
//	    series:
//	      - {name: Hardware and Architecture, year: 2017, rank: Q1}
type Fixture struct {
	Conferences []FixtureConference `yaml:"conferences"`
	Journals    []FixtureJournal    `yaml:"journals"`
}

// FixtureConference is one conference row. An empty Edition matches every
// edition.
type FixtureConference struct {
	Record  `yaml:",inline"`
	Edition string `yaml:"edition,omitempty"`
}

// FixtureJournal is one journal with its rank history.
type FixtureJournal struct {
	Name   string   `yaml:"name"`
	Series []Record `yaml:"series"`
}

// LoadFixture reads a fixture catalog.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog fixture %s: %w", path, err)
	}
	return &f, nil
}

// Name returns the catalog identifier.
func (f *Fixture) Name() string { return "fixture" }

// Order ranks fixture journal tiers as quartiles.
func (f *Fixture) Order() RankOrder { return QuartileOrder }

// Lookup returns the rows of edition whose acronym or name contains query,
// ignoring case.
func (f *Fixture) Lookup(_ context.Context, query, edition string) ([]Record, error) {
	var out []Record
	for _, c := range f.Conferences {
		if c.Edition != "" && c.Edition != edition {
			continue
		}
		if contains(c.Acronym, query) || contains(c.Name, query) {
			out = append(out, c.Record)
		}
	}
	return out, nil
}

// Search returns journals whose name contains query or is contained in it,
// ignoring case.
func (f *Fixture) Search(_ context.Context, query string) ([]Venue, error) {
	var out []Venue
	for i, j := range f.Journals {
		if contains(j.Name, query) || contains(query, j.Name) {
			out = append(out, Venue{Name: j.Name, ID: strconv.Itoa(i)})
		}
	}
	return out, nil
}

// Series returns the rank history of a venue found by Search.
func (f *Fixture) Series(_ context.Context, v Venue) ([]Record, error) {
	i, err := strconv.Atoi(v.ID)
	if err != nil || i < 0 || i >= len(f.Journals) {
		return nil, fmt.Errorf("fixture journal %q: %w", v.Name, ErrNotFound)
	}
	return f.Journals[i].Series, nil
}

func contains(s, substr string) bool {
	s, substr = strings.ToLower(strings.TrimSpace(s)), strings.ToLower(strings.TrimSpace(substr))
	return s != "" && substr != "" && strings.Contains(s, substr)
}
