// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/pubrank/pkg/types"
)

// DBLP reads an author's record list from the DBLP person XML API.
type DBLP struct {
	// BaseURL is the site root, e.g. https://dblp.org.
	BaseURL string
	Fetcher Fetcher
	Logger  *slog.Logger
}

// Name returns the source identifier.
func (d *DBLP) Name() string { return "dblp" }

// PersonURL turns an author reference into the person XML URL. The
// reference is either a pid such as "h/JohnDoe" or "12/3456", or a person
// page URL, whose .html suffix is swapped for .xml.
func (d *DBLP) PersonURL(author string) string {
	author = strings.TrimSpace(author)
	if strings.HasPrefix(author, "http://") || strings.HasPrefix(author, "https://") {
		if strings.HasSuffix(author, ".xml") {
			return author
		}
		return strings.TrimSuffix(author, ".html") + ".xml"
	}
	author = strings.TrimPrefix(strings.TrimSuffix(author, ".xml"), "pid/")
	return strings.TrimRight(d.BaseURL, "/") + "/pid/" + strings.Trim(author, "/") + ".xml"
}

// Extract fetches the person record list. Journal entries get their full
// journal name from the venue search API, falling back to the short name.
func (d *DBLP) Extract(ctx context.Context, author string) ([]types.Entry, error) {
	body, err := d.Fetcher.Get(ctx, d.PersonURL(author))
	if err != nil {
		return nil, fmt.Errorf("fetching DBLP person %q: %w", author, err)
	}
	pubs, err := parseDBLPPerson(body)
	if err != nil {
		return nil, fmt.Errorf("parsing DBLP person %q: %w", author, err)
	}

	fullNames := map[string]string{}
	var entries []types.Entry
	for _, p := range pubs {
		e, ok := p.entry()
		if !ok {
			continue
		}
		if e.Kind == types.KindJournal {
			short := e.VenueName
			full, seen := fullNames[short]
			if !seen {
				full = d.journalFullName(ctx, short, p.journalKey())
				fullNames[short] = full
			}
			e.VenueFullName = full
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// journalFullName asks the venue search API for the journal whose DBLP
// stream key matches. Any failure yields the short name.
func (d *DBLP) journalFullName(ctx context.Context, short, key string) string {
	if short == "" {
		return ""
	}
	u := strings.TrimRight(d.BaseURL, "/") + "/search/venue/api?" + url.Values{
		"q":      {short},
		"format": {"json"},
		"h":      {"30"},
	}.Encode()
	body, err := d.Fetcher.Get(ctx, u)
	if err != nil {
		d.logger().Info("cannot fetch journal full name, keeping short name", "journal", short, "error", err)
		return short
	}
	full, ok := pickVenue(body, short, key)
	if !ok {
		d.logger().Info("journal not found in venue search, keeping short name", "journal", short)
		return short
	}
	return full
}

func (d *DBLP) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

type dblpVenueResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info struct {
					Venue   string `json:"venue"`
					Acronym string `json:"acronym"`
					Type    string `json:"type"`
					URL     string `json:"url"`
				} `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

// pickVenue returns the venue name of the hit for the journal stream key,
// or of the first journal hit whose acronym is the short name.
func pickVenue(body []byte, short, key string) (string, bool) {
	var resp dblpVenueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}
	hits := resp.Result.Hits.Hit
	if key != "" {
		marker := "/db/journals/" + key + "/"
		for _, h := range hits {
			if strings.Contains(h.Info.URL+"/", marker) {
				return strings.TrimSpace(h.Info.Venue), h.Info.Venue != ""
			}
		}
	}
	for _, h := range hits {
		if strings.EqualFold(strings.TrimSpace(h.Info.Acronym), strings.TrimSpace(short)) && h.Info.Venue != "" {
			return strings.TrimSpace(h.Info.Venue), true
		}
	}
	return "", false
}

// dblpPub is one publication record of any DBLP record type.
type dblpPub struct {
	XMLName   xml.Name
	Key       string    `xml:"key,attr"`
	PublType  string    `xml:"publtype,attr"`
	Authors   []string  `xml:"author"`
	Title     dblpTitle `xml:"title"`
	Year      int       `xml:"year"`
	Booktitle string    `xml:"booktitle"`
	Journal   string    `xml:"journal"`
	EE        []string  `xml:"ee"`
	URL       string    `xml:"url"`
}

// dblpTitle keeps the raw title markup; titles may contain <i>, <sub> and
// similar inline tags.
type dblpTitle struct {
	Inner string `xml:",innerxml"`
}

type dblpRecord struct {
	Pubs []dblpPub `xml:",any"`
}

type dblpPerson struct {
	Records []dblpRecord `xml:"r"`
}

func newXMLDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity
	return dec
}

func parseDBLPPerson(body []byte) ([]dblpPub, error) {
	var person dblpPerson
	if err := newXMLDecoder(bytes.NewReader(body)).Decode(&person); err != nil {
		return nil, err
	}
	var pubs []dblpPub
	for _, r := range person.Records {
		pubs = append(pubs, r.Pubs...)
	}
	return pubs, nil
}

// entry maps a record to an Entry. Informal publications (preprints) and
// unknown record types are skipped.
func (p dblpPub) entry() (types.Entry, bool) {
	e := types.Entry{
		Title:   trimTitle(stripTags(p.Title.Inner)),
		Year:    p.Year,
		Authors: p.Authors,
		Link:    p.link(),
		Source:  "dblp",
	}
	switch p.XMLName.Local {
	case "inproceedings":
		e.Kind, e.VenueName = types.KindConference, p.Booktitle
	case "article":
		if p.PublType == "informal" || strings.HasPrefix(p.Key, "journals/corr/") {
			return types.Entry{}, false
		}
		e.Kind, e.VenueName = types.KindJournal, p.Journal
	case "proceedings":
		e.Kind, e.VenueName = types.KindEditor, p.Booktitle
	case "book", "phdthesis", "mastersthesis":
		e.Kind = types.KindBook
	case "incollection":
		e.Kind, e.VenueName = types.KindInBook, p.Booktitle
	default:
		return types.Entry{}, false
	}
	e.VenueName = strings.TrimSpace(e.VenueName)
	return e, true
}

// journalKey is the stream key of a journal record, "is" for
// "journals/is/Doe17".
func (p dblpPub) journalKey() string {
	parts := strings.Split(p.Key, "/")
	if len(parts) >= 3 && parts[0] == "journals" {
		return parts[1]
	}
	return ""
}

func (p dblpPub) link() string {
	if len(p.EE) > 0 {
		return strings.TrimSpace(p.EE[0])
	}
	if p.Key != "" {
		return "https://dblp.org/rec/" + p.Key
	}
	return ""
}

// stripTags returns the character data of an XML fragment.
func stripTags(fragment string) string {
	dec := newXMLDecoder(strings.NewReader("<t>" + fragment + "</t>"))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	if b.Len() == 0 {
		return fragment
	}
	return b.String()
}
