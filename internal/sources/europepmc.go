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

// europePMCSearchBase is the Europe PMC REST search endpoint. Declared as a
// var so tests can substitute an httptest server.
var europePMCSearchBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

const europePMCHost = "www.ebi.ac.uk"

// EuropePMCBackend queries the Europe PMC REST API.
type EuropePMCBackend struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Name returns the backend identifier.
func (b *EuropePMCBackend) Name() string { return string(types.SourceEuropePMC) }

// Search queries Europe PMC and returns studies. Records carry the PMID
// when Europe PMC knows it, so PubMed overlap collapses during dedup.
func (b *EuropePMCBackend) Search(ctx context.Context, q Query, cfg types.SourcesConfig) ([]*types.Study, error) {
	limit := cfg.PerSourceLimit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"query":    {fmt.Sprintf("%s AND %s AND (efficacy OR pharmacogenetic)", q.Drug, q.Indication)},
		"format":   {"json"},
		"pageSize": {fmt.Sprintf("%d", limit)},
	}

	if err := b.Limiter.Wait(ctx, europePMCHost); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC API returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	var studies []*types.Study
	for _, item := range er.ResultList.Result {
		s := &types.Study{
			Title:    item.Title,
			Abstract: item.AbstractText,
			DOI:      item.DOI,
			Journal:  item.JournalTitle,
			Year:     item.PubYear,
			Source:   types.SourceEuropePMC,
		}

		if item.PMID != "" {
			s.ID = item.PMID
		} else {
			s.ID = "epmc:" + item.ID
		}

		// Europe PMC provides a single combined author string.
		if item.AuthorString != "" {
			s.Authors = []string{item.AuthorString}
		}

		studies = append(studies, s)
	}
	return studies, nil
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID           string `json:"id"`
	PMID         string `json:"pmid"`
	Title        string `json:"title"`
	AbstractText string `json:"abstractText"`
	AuthorString string `json:"authorString"`
	JournalTitle string `json:"journalTitle"`
	PubYear      string `json:"pubYear"`
	DOI          string `json:"doi"`
}
