// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticHost   = "api.semanticscholar.org"
	semanticFields = "title,abstract,authors,year,externalIds,openAccessPdf"
)

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return string(types.SourceSemanticScholar) }

// Search queries the Semantic Scholar API and returns studies. A record
// with a PubMed external ID keeps the PMID as its identity so cross-source
// duplicates collapse during dedup; otherwise a source-local "ss:" ID is
// synthesized.
func (b *SemanticScholarBackend) Search(ctx context.Context, q Query, cfg types.SourcesConfig) ([]*types.Study, error) {
	limit := cfg.PerSourceLimit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query":  {fmt.Sprintf("%s %s efficacy pharmacogenetics", q.Drug, q.Indication)},
		"fields": {semanticFields},
		"limit":  {fmt.Sprintf("%d", limit)},
	}

	if err := b.Limiter.Wait(ctx, semanticHost); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var studies []*types.Study
	for _, paper := range sr.Data {
		s := &types.Study{
			Title:    paper.Title,
			Abstract: paper.Abstract,
			DOI:      paper.ExternalIDs.DOI,
			Source:   types.SourceSemanticScholar,
		}

		if paper.ExternalIDs.PubMed != "" {
			s.ID = paper.ExternalIDs.PubMed
		} else {
			s.ID = "ss:" + paper.PaperID
		}

		for _, a := range paper.Authors {
			if a.Name != "" {
				s.Authors = append(s.Authors, a.Name)
			}
		}
		if paper.Year > 0 {
			s.Year = fmt.Sprintf("%d", paper.Year)
		}
		if paper.OpenAccessPDF != nil && paper.OpenAccessPDF.URL != "" {
			s.FullTextURL = paper.OpenAccessPDF.URL
		}

		studies = append(studies, s)
	}
	return studies, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF *semanticOpenAccess `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI    string `json:"DOI"`
	PubMed string `json:"PubMed"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}
