// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const samplePubmedSummaryJSON = `{
  "result": {
    "uids": ["11111", "22222"],
    "11111": {
      "title": "Clopidogrel response and CYP2C19 genotype",
      "source": "N Engl J Med",
      "pubdate": "2009 Jan 22",
      "elocationid": "doi: 10.1056/NEJMoa0808227",
      "authors": [{"name": "Mega JL"}, {"name": "Close SL"}]
    },
    "22222": {
      "title": "Antiplatelet therapy outcomes",
      "source": "Circulation",
      "pubdate": "2015 Mar",
      "elocationid": "",
      "authors": [{"name": "Smith A"}]
    }
  }
}`

func TestPubMedSearch(t *testing.T) {
	var esearchCalls, esummaryCalls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/esearch"):
			esearchCalls++
			if got := r.URL.Query().Get("db"); got != "pubmed" {
				t.Errorf("esearch db = %q, want pubmed", got)
			}
			// Every strategy returns the same overlapping IDs; the union
			// must not duplicate them.
			fmt.Fprint(w, `{"esearchresult":{"idlist":["11111","22222"]}}`)
		case strings.HasPrefix(r.URL.Path, "/esummary"):
			esummaryCalls++
			if got := r.URL.Query().Get("id"); got != "11111,22222" {
				t.Errorf("esummary id = %q, want %q", got, "11111,22222")
			}
			fmt.Fprint(w, samplePubmedSummaryJSON)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldSearch, oldSummary }()

	b := &PubMedBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "clopidogrel", Indication: "ACS"}, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if esearchCalls != 3 {
		t.Errorf("esearch calls = %d, want 3 (one per query strategy)", esearchCalls)
	}
	if esummaryCalls != 1 {
		t.Errorf("esummary calls = %d, want 1 batch", esummaryCalls)
	}

	if len(studies) != 2 {
		t.Fatalf("len(studies) = %d, want 2", len(studies))
	}
	s := studies[0]
	if s.ID != "11111" {
		t.Errorf("ID = %q, want 11111", s.ID)
	}
	if s.Source != types.SourcePubMed {
		t.Errorf("Source = %q, want %q", s.Source, types.SourcePubMed)
	}
	if s.Journal != "N Engl J Med" {
		t.Errorf("Journal = %q, want N Engl J Med", s.Journal)
	}
	if s.Year != "2009" {
		t.Errorf("Year = %q, want 2009", s.Year)
	}
	if s.DOI != "10.1056/NEJMoa0808227" {
		t.Errorf("DOI = %q, want 10.1056/NEJMoa0808227", s.DOI)
	}
	if len(s.Authors) != 2 || s.Authors[0] != "Mega JL" {
		t.Errorf("Authors = %v, want [Mega JL, Close SL]", s.Authors)
	}
}

func TestPubMedSearchCapsUnion(t *testing.T) {
	call := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/esearch"):
			// Each strategy contributes a distinct block of IDs.
			call++
			var ids []string
			for i := 0; i < 12; i++ {
				ids = append(ids, fmt.Sprintf(`"%d%02d"`, call, i))
			}
			fmt.Fprintf(w, `{"esearchresult":{"idlist":[%s]}}`, strings.Join(ids, ","))
		case strings.HasPrefix(r.URL.Path, "/esummary"):
			ids := strings.Split(r.URL.Query().Get("id"), ",")
			if len(ids) > pubmedMaxStudies {
				t.Errorf("esummary batch = %d IDs, want at most %d", len(ids), pubmedMaxStudies)
			}
			var records []string
			for _, id := range ids {
				records = append(records, fmt.Sprintf(`"%s": {"title": "Study %s"}`, id, id))
			}
			fmt.Fprintf(w, `{"result":{%s}}`, strings.Join(records, ","))
		}
	}))
	defer ts.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldSearch, oldSummary }()

	b := &PubMedBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "warfarin", Indication: "af"}, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(studies) > pubmedMaxStudies {
		t.Errorf("len(studies) = %d, want at most %d", len(studies), pubmedMaxStudies)
	}
}

func TestPubMedSearchEmptyResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/esearch") {
			fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
			return
		}
		t.Errorf("unexpected request to %s with no PMIDs", r.URL.Path)
	}))
	defer ts.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldSearch, oldSummary }()

	b := &PubMedBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "nosuchdrug"}, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(studies) != 0 {
		t.Errorf("len(studies) = %d, want 0", len(studies))
	}
}

func TestPubMedSearchAllStrategiesFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldSearch, oldSummary }()

	b := &PubMedBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "warfarin"}, testCfg())
	if err == nil {
		t.Fatal("Search() error = nil, want error when every query strategy fails")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("Search() error = %v, want HTTP 500 mention", err)
	}
	if studies != nil {
		t.Errorf("studies = %v, want nil", studies)
	}
}

func TestPubMedSearchPartialStrategyFailure(t *testing.T) {
	call := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/esearch"):
			// First strategy fails; the rest still return IDs.
			call++
			if call == 1 {
				http.Error(w, "service down", http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"esearchresult":{"idlist":["11111","22222"]}}`)
		case strings.HasPrefix(r.URL.Path, "/esummary"):
			fmt.Fprint(w, samplePubmedSummaryJSON)
		}
	}))
	defer ts.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase, pubmedSummaryBase = ts.URL+"/esearch", ts.URL+"/esummary"
	defer func() { pubmedSearchBase, pubmedSummaryBase = oldSearch, oldSummary }()

	b := &PubMedBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "clopidogrel"}, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v, want surviving strategies to carry the search", err)
	}
	if len(studies) != 2 {
		t.Errorf("len(studies) = %d, want 2", len(studies))
	}
}

func TestPubMedAPIKeyForwarded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "secret-key" {
			t.Errorf("api_key = %q, want secret-key", got)
		}
		fmt.Fprint(w, `{"esearchresult":{"idlist":[]}}`)
	}))
	defer ts.Close()

	oldSearch := pubmedSearchBase
	pubmedSearchBase = ts.URL
	defer func() { pubmedSearchBase = oldSearch }()

	cfg := testCfg()
	cfg.NCBIAPIKey = "secret-key"

	b := &PubMedBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Drug: "warfarin"}, cfg); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestQueryStrategies(t *testing.T) {
	queries := queryStrategies(Query{Drug: "clopidogrel", Indication: "stroke"})
	if len(queries) != 3 {
		t.Fatalf("len(queries) = %d, want 3", len(queries))
	}
	if !strings.Contains(queries[0], "clopidogrel AND stroke") {
		t.Errorf("queries[0] = %q, want drug AND indication", queries[0])
	}
	if !strings.Contains(queries[1], "pharmacogenetic") {
		t.Errorf("queries[1] = %q, want pharmacogenetic variant", queries[1])
	}
	if !strings.Contains(queries[2], "non-responder") {
		t.Errorf("queries[2] = %q, want non-responder variant", queries[2])
	}
}

func TestPubYear(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2020 Jan 15", "2020"},
		{"2015", "2015"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := pubYear(tt.in); got != tt.want {
			t.Errorf("pubYear(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestElocationDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doi: 10.1056/NEJMoa0808227", "10.1056/NEJMoa0808227"},
		{"DOI: 10.1/x", "10.1/x"},
		{"pii: S0140-6736", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := elocationDOI(tt.in); got != tt.want {
			t.Errorf("elocationDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
