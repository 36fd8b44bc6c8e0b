// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patch loads the override table that maps a venue name as written
// by a source to the query a catalog knows it by.
package patch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubrank/internal/normalize"
)

// Rule is one override. The original patch files name the source side
// "dblp"; both spellings are accepted.
type Rule struct {
	Source string `json:"source" yaml:"source"`
	DBLP   string `json:"dblp,omitempty" yaml:"dblp,omitempty"`
	Query  string `json:"query" yaml:"query"`
}

func (r Rule) source() string {
	if r.Source != "" {
		return r.Source
	}
	return r.DBLP
}

// Table maps normalized source venue names to normalized catalog queries.
// A nil Table is empty.
type Table map[string]string

// Query returns the override for key, or key itself when none exists.
func (t Table) Query(key string) string {
	if q, ok := t[key]; ok {
		return q
	}
	return key
}

// Lookup returns the override for key.
func (t Table) Lookup(key string) (string, bool) {
	q, ok := t[key]
	return q, ok
}

// Parse decodes a JSON or YAML list of rules and normalizes both sides.
// Rules with an empty side are skipped; later rules win.
func Parse(data []byte, n normalize.Normalizer) (Table, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing patch rules: %w", err)
	}
	t := make(Table, len(rules))
	for _, r := range rules {
		src, q := n.Normalize(r.source()), n.Normalize(r.Query)
		if src == "" || q == "" {
			continue
		}
		t[src] = q
	}
	return t, nil
}

// Load reads the patch file at path. A missing file yields an empty table
// and no error.
func Load(path string, n normalize.Normalizer) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, nil
		}
		return Table{}, fmt.Errorf("reading patch file %s: %w", path, err)
	}
	t, err := Parse(data, n)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
