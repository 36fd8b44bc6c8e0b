// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubrank/pkg/types"
)

// halFields are the document fields requested from the HAL search API.
var halFields = []string{
	"title_s", "docType_s", "journalTitle_s", "conferenceTitle_s",
	"bookTitle_s", "producedDateY_i", "uri_s", "authFullName_s",
}

// halKinds maps HAL document types to entry kinds. Other types (reports,
// posters, preprints, ...) are not publications the engine ranks or lists.
var halKinds = map[string]types.Kind{
	"COMM": types.KindConference,
	"ART":  types.KindJournal,
	"OUV":  types.KindBook,
	"COUV": types.KindInBook,
	"DOUV": types.KindEditor,
}

// HAL reads an author's documents from the HAL search API.
type HAL struct {
	// BaseURL is the search endpoint, e.g.
	// https://api.archives-ouvertes.fr/search/.
	BaseURL string
	Fetcher Fetcher

	// Rows bounds the number of documents returned. Zero means 500.
	Rows int
}

// Name returns the source identifier.
func (h *HAL) Name() string { return "hal" }

// Extract queries the documents of the author with the given idHal.
func (h *HAL) Extract(ctx context.Context, idHal string) ([]types.Entry, error) {
	idHal = strings.TrimSpace(idHal)
	if idHal == "" {
		return nil, fmt.Errorf("empty HAL author id")
	}
	rows := h.Rows
	if rows <= 0 {
		rows = 500
	}
	params := url.Values{
		"q":    {"authIdHal_s:" + idHal},
		"rows": {strconv.Itoa(rows)},
		"wt":   {"json"},
		"fl":   {strings.Join(halFields, ",")},
	}
	body, err := h.Fetcher.Get(ctx, h.BaseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetching HAL documents for %q: %w", idHal, err)
	}

	var resp halResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing HAL response for %q: %w", idHal, err)
	}

	var entries []types.Entry
	for _, doc := range resp.Response.Docs {
		if e, ok := doc.entry(); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

type halResponse struct {
	Response struct {
		NumFound int      `json:"numFound"`
		Docs     []halDoc `json:"docs"`
	} `json:"response"`
}

type halDoc struct {
	Title           []string `json:"title_s"`
	DocType         string   `json:"docType_s"`
	JournalTitle    string   `json:"journalTitle_s"`
	ConferenceTitle string   `json:"conferenceTitle_s"`
	BookTitle       string   `json:"bookTitle_s"`
	Year            int      `json:"producedDateY_i"`
	URI             string   `json:"uri_s"`
	Authors         []string `json:"authFullName_s"`
}

func (d halDoc) entry() (types.Entry, bool) {
	kind, ok := halKinds[strings.ToUpper(d.DocType)]
	if !ok {
		return types.Entry{}, false
	}
	e := types.Entry{
		Kind:    kind,
		Year:    d.Year,
		Authors: d.Authors,
		Link:    d.URI,
		Source:  "hal",
	}
	if len(d.Title) > 0 {
		e.Title = trimTitle(d.Title[0])
	}
	switch kind {
	case types.KindConference:
		e.VenueName = strings.TrimSpace(d.ConferenceTitle)
	case types.KindJournal:
		e.VenueName = strings.TrimSpace(d.JournalTitle)
		e.VenueFullName = e.VenueName
	case types.KindInBook, types.KindEditor:
		e.VenueName = strings.TrimSpace(d.BookTitle)
	}
	return e, true
}
