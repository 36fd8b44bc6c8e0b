// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubrank/internal/httputil"
	"github.com/pdiddy/pubrank/pkg/types"
)

const personXML = `<?xml version="1.0" encoding="US-ASCII"?>
<dblpperson name="Jane Doe" pid="12/3456" n="5">
<person key="homepages/12/3456" mdate="2024-01-01"><author pid="12/3456">Jane Doe</author></person>
<r><inproceedings key="conf/icde/Doe19" mdate="2019-05-01">
<author pid="12/3456">Jane Doe</author><author pid="98/7654">Jos&eacute; Roe</author>
<title>Scalable <i>X</i>.</title>
<year>2019</year><booktitle>ICDE</booktitle>
<ee>https://doi.org/10.1109/ICDE.2019.00001</ee><url>db/conf/icde/icde2019.html#Doe19</url>
</inproceedings></r>
<r><article key="journals/is/Doe17" mdate="2017-01-01">
<author pid="12/3456">Jane Doe</author>
<title>Fast Graphs.</title><journal>Inf. Syst.</journal><year>2017</year>
</article></r>
<r><article key="journals/is/Doe18" mdate="2018-01-01">
<author pid="12/3456">Jane Doe</author>
<title>Faster Graphs.</title><journal>Inf. Syst.</journal><year>2018</year>
</article></r>
<r><article publtype="informal" key="journals/corr/abs-1234" mdate="2020-01-01">
<author pid="12/3456">Jane Doe</author><title>A Preprint.</title><journal>CoRR</journal><year>2020</year>
</article></r>
<r><proceedings key="conf/xyz/2016" mdate="2016-01-01">
<editor pid="12/3456">Jane Doe</editor><title>Proceedings of XYZ 2016.</title><booktitle>XYZ</booktitle><year>2016</year>
</proceedings></r>
<r><phdthesis key="phd/Doe10" mdate="2010-01-01"><author pid="12/3456">Jane Doe</author><title>On Things.</title><year>2010</year></phdthesis></r>
<r><www key="homepages/x" mdate="2010-01-01"><title>Home Page</title></www></r>
<coauthors n="1"><co c="0"><na pid="98/7654">Jos&eacute; Roe</na></co></coauthors>
</dblpperson>`

const venueJSON = `{"result":{"hits":{"@total":"2","hit":[
{"info":{"venue":"Information Sciences","acronym":"Inf. Sci.","type":"Journal","url":"https://dblp.org/db/journals/isci/"}},
{"info":{"venue":"Information Systems","acronym":"Inf. Syst.","type":"Journal","url":"https://dblp.org/db/journals/is/"}}
]}}}`

func testClient() *httputil.Client {
	return httputil.NewClient(types.HTTPConfig{Timeout: 5 * time.Second, MaxRetries: 1})
}

func TestDBLPPersonURL(t *testing.T) {
	d := &DBLP{BaseURL: "https://dblp.org/"}
	assert.Equal(t, "https://dblp.org/pid/12/3456.xml", d.PersonURL("12/3456"))
	assert.Equal(t, "https://dblp.org/pid/h/JaneDoe.xml", d.PersonURL("pid/h/JaneDoe"))
	assert.Equal(t, "https://dblp.org/pid/12/3456.xml", d.PersonURL("https://dblp.org/pid/12/3456.html"))
	assert.Equal(t, "https://dblp.org/pid/12/3456.xml", d.PersonURL("https://dblp.org/pid/12/3456.xml"))
}

func TestDBLPExtract(t *testing.T) {
	var venueCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/pid/12/3456.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(personXML))
	})
	mux.HandleFunc("/search/venue/api", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&venueCalls, 1)
		assert.Equal(t, "Inf. Syst.", r.URL.Query().Get("q"))
		w.Write([]byte(venueJSON))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	d := &DBLP{BaseURL: ts.URL, Fetcher: testClient()}
	entries, err := d.Extract(context.Background(), "12/3456")
	require.NoError(t, err)
	require.Len(t, entries, 5)

	conf := entries[0]
	assert.Equal(t, types.KindConference, conf.Kind)
	assert.Equal(t, "Scalable X", conf.Title)
	assert.Equal(t, "ICDE", conf.VenueName)
	assert.Equal(t, 2019, conf.Year)
	assert.Equal(t, []string{"Jane Doe", "José Roe"}, conf.Authors)
	assert.Equal(t, "https://doi.org/10.1109/ICDE.2019.00001", conf.Link)
	assert.Equal(t, "dblp", conf.Source)

	journal := entries[1]
	assert.Equal(t, types.KindJournal, journal.Kind)
	assert.Equal(t, "Fast Graphs", journal.Title)
	assert.Equal(t, "Inf. Syst.", journal.VenueName)
	assert.Equal(t, "Information Systems", journal.VenueFullName)
	assert.Equal(t, "https://dblp.org/rec/journals/is/Doe17", journal.Link)
	assert.Equal(t, "Information Systems", entries[2].VenueFullName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&venueCalls), "full names are looked up once per journal")

	assert.Equal(t, types.KindEditor, entries[3].Kind)
	assert.Equal(t, "XYZ", entries[3].VenueName)
	assert.Equal(t, types.KindBook, entries[4].Kind)
}

func TestDBLPJournalFullNameFallsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pid/12/3456.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(personXML))
	})
	mux.HandleFunc("/search/venue/api", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	d := &DBLP{BaseURL: ts.URL, Fetcher: testClient()}
	entries, err := d.Extract(context.Background(), "12/3456")
	require.NoError(t, err)
	assert.Equal(t, "Inf. Syst.", entries[1].VenueFullName)
}

func TestDBLPExtractMissingPerson(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	d := &DBLP{BaseURL: ts.URL, Fetcher: testClient()}
	_, err := d.Extract(context.Background(), "00/0000")
	assert.Error(t, err)
}

func TestPickVenueByAcronym(t *testing.T) {
	name, ok := pickVenue([]byte(venueJSON), "inf. sci.", "")
	require.True(t, ok)
	assert.Equal(t, "Information Sciences", name)

	_, ok = pickVenue([]byte("not json"), "x", "y")
	assert.False(t, ok)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "H2O in <space>", stripTags("H<sub>2</sub>O in &lt;space&gt;"))
	assert.Equal(t, "plain", stripTags("plain"))
}

const halJSON = `{"response":{"numFound":4,"start":0,"docs":[
{"title_s":["Scalable X"],"docType_s":"COMM","conferenceTitle_s":"ICDE","producedDateY_i":2019,"uri_s":"https://hal.science/hal-0001","authFullName_s":["Jane Doe"]},
{"title_s":["Information Retrieval at Scale"],"docType_s":"ART","journalTitle_s":"Information Systems","producedDateY_i":2018,"uri_s":"https://hal.science/hal-0002"},
{"title_s":["A Poster"],"docType_s":"POSTER","producedDateY_i":2018},
{"title_s":["A Chapter"],"docType_s":"COUV","bookTitle_s":"Handbook of Things","producedDateY_i":2015}
]}}`

func TestHALExtract(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "authIdHal_s:jane-doe", q.Get("q"))
		assert.Equal(t, "json", q.Get("wt"))
		assert.Equal(t, "500", q.Get("rows"))
		assert.True(t, strings.Contains(q.Get("fl"), "docType_s"))
		w.Write([]byte(halJSON))
	}))
	defer ts.Close()

	h := &HAL{BaseURL: ts.URL + "/search/", Fetcher: testClient()}
	entries, err := h.Extract(context.Background(), "jane-doe")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, types.Entry{
		Kind: types.KindConference, Title: "Scalable X", VenueName: "ICDE", Year: 2019,
		Authors: []string{"Jane Doe"}, Link: "https://hal.science/hal-0001", Source: "hal",
	}, entries[0])
	assert.Equal(t, types.KindJournal, entries[1].Kind)
	assert.Equal(t, "Information Systems", entries[1].VenueFullName)
	assert.Equal(t, types.KindInBook, entries[2].Kind)
	assert.Equal(t, "Handbook of Things", entries[2].VenueName)
}

func TestHALExtractErrors(t *testing.T) {
	h := &HAL{BaseURL: "http://127.0.0.1:0/", Fetcher: testClient()}
	_, err := h.Extract(context.Background(), " ")
	assert.Error(t, err)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer ts.Close()
	h.BaseURL = ts.URL
	_, err = h.Extract(context.Background(), "jane-doe")
	assert.Error(t, err)
}

func TestFileExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.yaml")
	data := `- kind: conference
  title: Scalable X
  venue_name: ICDE
  year: 2019
- kind: Poster
  title: Something
- kind: journal
  title: Fast Graphs
  venue_name: Inf. Syst.
  year: 2017
  source: dblp
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	entries, err := File{}.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, types.KindConference, entries[0].Kind)
	assert.Equal(t, "file", entries[0].Source)
	assert.Equal(t, types.KindUnknown, entries[1].Kind)
	assert.Equal(t, "dblp", entries[2].Source)

	_, err = File{}.Extract(context.Background(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestReadEntriesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"kind":"journal","title":"T","venue_name":"IS","year":2001,"rank_year":2001}]`), 0o644))
	entries, err := ReadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.Label("2001"), entries[0].RankYear)
}
