// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const sampleSemanticJSON = `{
  "total": 2,
  "offset": 0,
  "data": [
    {
      "paperId": "abc123",
      "title": "CYP2C19 and clopidogrel: a meta-analysis",
      "abstract": "Pooled response rates across 12 trials.",
      "year": 2018,
      "authors": [{"authorId": "1", "name": "Garcia R"}, {"authorId": "2", "name": "Lee K"}],
      "externalIds": {"DOI": "10.1000/ja.2018.01", "PubMed": "55555"},
      "openAccessPdf": {"url": "https://example.com/paper.pdf"}
    },
    {
      "paperId": "def456",
      "title": "Platelet reactivity in stent patients",
      "abstract": "",
      "year": 2020,
      "authors": [],
      "externalIds": {}
    }
  ]
}`

func TestSemanticScholarSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fields"); got != semanticFields {
			t.Errorf("fields = %q, want %q", got, semanticFields)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleSemanticJSON)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	b := &SemanticScholarBackend{Client: ts.Client()}
	studies, err := b.Search(context.Background(), Query{Drug: "clopidogrel", Indication: "ACS"}, testCfg())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(studies) != 2 {
		t.Fatalf("len(studies) = %d, want 2", len(studies))
	}

	// A PubMed external ID becomes the study identity so the record
	// collapses with its PubMed copy during dedup.
	first := studies[0]
	if first.ID != "55555" {
		t.Errorf("ID = %q, want PMID 55555", first.ID)
	}
	if first.DOI != "10.1000/ja.2018.01" {
		t.Errorf("DOI = %q, want 10.1000/ja.2018.01", first.DOI)
	}
	if first.Year != "2018" {
		t.Errorf("Year = %q, want 2018", first.Year)
	}
	if first.FullTextURL != "https://example.com/paper.pdf" {
		t.Errorf("FullTextURL = %q, want open access PDF URL", first.FullTextURL)
	}
	if len(first.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 names", first.Authors)
	}
	if first.Source != types.SourceSemanticScholar {
		t.Errorf("Source = %q, want %q", first.Source, types.SourceSemanticScholar)
	}

	// Without a PMID a source-local ID is synthesized.
	if studies[1].ID != "ss:def456" {
		t.Errorf("ID = %q, want ss:def456", studies[1].ID)
	}
}

func TestSemanticScholarAPIKeyHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "s2-key" {
			t.Errorf("x-api-key = %q, want s2-key", got)
		}
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	cfg := testCfg()
	cfg.SemanticScholarAPIKey = "s2-key"

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Drug: "warfarin"}, cfg); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
}

func TestSemanticScholarHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Drug: "warfarin"}, testCfg()); err == nil {
		t.Error("Search() error = nil, want HTTP error")
	}
}
