// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Scimago queries the Scimago Journal Rank site.
type Scimago struct {
	// BaseURL is the site root, e.g. https://www.scimagojr.com/.
	BaseURL string
	Fetcher Fetcher
}

// Name returns the catalog identifier.
func (s *Scimago) Name() string { return "scimago" }

// Order ranks Scimago quartiles.
func (s *Scimago) Order() RankOrder { return QuartileOrder }

// Search runs a journal search and returns the hits in page order.
func (s *Scimago) Search(ctx context.Context, query string) ([]Venue, error) {
	u := s.resolve("journalsearch.php") + "?" + url.Values{"q": {query}}.Encode()
	body, err := s.Fetcher.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("Scimago search %q: %w", query, err)
	}
	venues, err := ParseScimagoSearch(body)
	if err != nil {
		return nil, fmt.Errorf("parsing Scimago results for %q: %w", query, err)
	}
	return venues, nil
}

// Series fetches the journal page for v and returns its quartile history,
// one record per category and year.
func (s *Scimago) Series(ctx context.Context, v Venue) ([]Record, error) {
	if v.ID == "" {
		return nil, fmt.Errorf("Scimago venue %q: %w", v.Name, ErrNotFound)
	}
	body, err := s.Fetcher.Get(ctx, s.resolve(v.ID))
	if err != nil {
		return nil, fmt.Errorf("Scimago journal %q: %w", v.Name, err)
	}
	records, err := ParseScimagoSeries(body)
	if err != nil {
		return nil, fmt.Errorf("parsing Scimago journal %q: %w", v.Name, err)
	}
	return records, nil
}

// resolve joins a site-relative reference onto BaseURL.
func (s *Scimago) resolve(ref string) string {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base.String() + ref
	}
	return base.ResolveReference(r).String()
}

// ParseScimagoSearch extracts journal hits from a search result page. The
// venue ID is the hit's link.
func ParseScimagoSearch(body []byte) ([]Venue, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var venues []Venue
	doc.Find("div.search_results > a").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("span.jrnlname").Text())
		href, _ := s.Attr("href")
		if name == "" || href == "" {
			return
		}
		venues = append(venues, Venue{Name: name, ID: href})
	})
	return venues, nil
}

// ParseScimagoSeries extracts the quartile table from a journal page. The
// page carries several tabular chart views; the quartile one is the first
// whose rows read category, year, quartile.
func ParseScimagoSeries(body []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var records []Record
	doc.Find("div.cellslide").EachWithBreak(func(_ int, slide *goquery.Selection) bool {
		records = quartileRows(slide)
		return len(records) == 0
	})
	return records, nil
}

func quartileRows(slide *goquery.Selection) []Record {
	var records []Record
	slide.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 3 {
			return
		}
		year, err := strconv.Atoi(strings.TrimSpace(cells.Eq(1).Text()))
		if err != nil {
			return
		}
		// Citation tables share the layout but carry numbers, not tiers.
		rank := strings.TrimSpace(cells.Eq(2).Text())
		if _, err := strconv.ParseFloat(strings.ReplaceAll(rank, ",", "."), 64); err == nil || rank == "" {
			return
		}
		records = append(records, Record{
			Name: strings.TrimSpace(cells.Eq(0).Text()),
			Year: year,
			Rank: rank,
		})
	})
	return records
}
