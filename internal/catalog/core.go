// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves a page body. *httputil.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Core queries the CORE conference ranking portal.
type Core struct {
	// BaseURL is the portal search page, e.g.
	// http://portal.core.edu.au/conf-ranks/.
	BaseURL string
	Fetcher Fetcher
}

// Name returns the catalog identifier.
func (c *Core) Name() string { return "core" }

// CoreSource maps an edition label to the portal's source parameter. The
// 2010 edition was published as ERA 2010.
func CoreSource(edition string) string {
	if edition == "2010" {
		return "ERA2010"
	}
	return "CORE" + edition
}

// Lookup searches the portal for query within the given edition and returns
// every result row.
func (c *Core) Lookup(ctx context.Context, query, edition string) ([]Record, error) {
	params := url.Values{
		"search": {query},
		"by":     {"all"},
		"source": {CoreSource(edition)},
		"sort":   {"atitle"},
		"page":   {"1"},
	}
	body, err := c.Fetcher.Get(ctx, c.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("CORE search %q: %w", query, err)
	}
	records, err := ParseCore(body)
	if err != nil {
		return nil, fmt.Errorf("parsing CORE results for %q: %w", query, err)
	}
	return records, nil
}

// ParseCore extracts result rows from a portal search page. Columns are
// title, acronym, source, rank; header rows and short rows are skipped.
func ParseCore(body []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var records []Record
	doc.Find("table tbody tr").Each(func(_ int, s *goquery.Selection) {
		cells := s.Find("td")
		if cells.Length() < 4 || s.Find("th").Length() > 0 {
			return
		}
		records = append(records, Record{
			Name:    strings.TrimSpace(cells.Eq(0).Text()),
			Acronym: strings.TrimSpace(cells.Eq(1).Text()),
			Rank:    strings.TrimSpace(cells.Eq(3).Text()),
		})
	})
	return records, nil
}
