// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source extracts an author's publication entries from a
// bibliographic source. Adapters only fill descriptive fields; ranks are
// left for the resolvers.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubrank/pkg/types"
)

// Source yields the entries of one author.
type Source interface {
	Name() string
	Extract(ctx context.Context, author string) ([]types.Entry, error)
}

// Fetcher retrieves a document body. *httputil.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// File reads entries from a YAML or JSON list on disk. The author argument
// is the file path.
type File struct{}

// Name returns the source identifier.
func (File) Name() string { return "file" }

// Extract reads the entry list at path. Entries with an unrecognized kind
// are kept as KindUnknown; entries without a source are tagged "file".
func (File) Extract(_ context.Context, path string) ([]types.Entry, error) {
	entries, err := ReadEntries(path)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Kind = types.ParseKind(string(entries[i].Kind))
		if entries[i].Source == "" {
			entries[i].Source = "file"
		}
	}
	return entries, nil
}

// ReadEntries decodes a YAML or JSON entry list. JSON is read by the YAML
// decoder.
func ReadEntries(path string) ([]types.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	var entries []types.Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing entries %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// trimTitle drops surrounding space and one trailing period, which DBLP
// appends to every title.
func trimTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	return strings.TrimSuffix(title, ".")
}
