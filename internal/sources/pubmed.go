// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

const (
	pubmedHost = "eutils.ncbi.nlm.nih.gov"

	// perQueryTake is how many top-ranked PMIDs each query strategy
	// contributes to the union.
	perQueryTake = 10

	// pubmedMaxStudies caps the PMIDs carried into metadata fetch.
	pubmedMaxStudies = 15
)

// PubMedBackend queries NCBI E-utilities, the primary literature source.
// It runs several query strategies (efficacy, pharmacogenetic, and
// non-response keyword variants) and unions the returned PMIDs before
// fetching metadata in one esummary batch.
type PubMedBackend struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return string(types.SourcePubMed) }

// Search runs the query strategies and returns studies with metadata.
func (b *PubMedBackend) Search(ctx context.Context, q Query, cfg types.SourcesConfig) ([]*types.Study, error) {
	queries := queryStrategies(q)

	var pmids []string
	var errs []error
	seen := make(map[string]bool)

	for _, term := range queries {
		ids, err := b.esearch(ctx, term, cfg)
		if err != nil {
			// A failed strategy degrades coverage only; later
			// strategies may still hit.
			errs = append(errs, err)
			continue
		}
		if len(ids) > perQueryTake {
			ids = ids[:perQueryTake]
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				pmids = append(pmids, id)
			}
		}
		if len(pmids) >= pubmedMaxStudies {
			break
		}
	}

	if len(pmids) > pubmedMaxStudies {
		pmids = pmids[:pubmedMaxStudies]
	}
	if len(pmids) == 0 {
		// No PMIDs with at least one failed strategy is an outage,
		// not a no-match result; the aggregator logs it.
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, nil
	}

	return b.esummary(ctx, pmids, cfg)
}

// queryStrategies builds the PubMed query variants: drug+indication
// efficacy terms first, then pharmacogenetics, then non-response.
func queryStrategies(q Query) []string {
	return []string{
		fmt.Sprintf("%s AND %s AND (efficacy OR response OR treatment outcome)", q.Drug, q.Indication),
		fmt.Sprintf("%s AND (pharmacogenetic OR genetic variant OR polymorphism)", q.Drug),
		fmt.Sprintf("%s AND (non-responder OR treatment failure OR resistance)", q.Drug),
	}
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// esearch returns relevance-ranked PMIDs for one query term.
func (b *PubMedBackend) esearch(ctx context.Context, term string, cfg types.SourcesConfig) ([]string, error) {
	retmax := cfg.PerSourceLimit
	if retmax <= 0 {
		retmax = 20
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {fmt.Sprintf("%d", retmax)},
		"retmode": {"json"},
		"sort":    {"relevance"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	var er esearchResponse
	if err := b.getJSON(ctx, pubmedSearchBase+"?"+params.Encode(), cfg, &er); err != nil {
		return nil, err
	}
	return er.ESearchResult.IDList, nil
}

// esummary JSON: the "result" object maps "uids" to the ID list and each
// UID to its summary record.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryRecord struct {
	Title       string           `json:"title"`
	Source      string           `json:"source"`
	PubDate     string           `json:"pubdate"`
	ELocationID string           `json:"elocationid"`
	Authors     []esummaryAuthor `json:"authors"`
}

type esummaryAuthor struct {
	Name string `json:"name"`
}

// esummary fetches metadata for a batch of PMIDs.
func (b *PubMedBackend) esummary(ctx context.Context, pmids []string, cfg types.SourcesConfig) ([]*types.Study, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	if cfg.NCBIAPIKey != "" {
		params.Set("api_key", cfg.NCBIAPIKey)
	}

	var es esummaryResponse
	if err := b.getJSON(ctx, pubmedSummaryBase+"?"+params.Encode(), cfg, &es); err != nil {
		return nil, err
	}

	var studies []*types.Study
	for _, pmid := range pmids {
		raw, ok := es.Result[pmid]
		if !ok {
			continue
		}
		var rec esummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}

		s := &types.Study{
			ID:      pmid,
			Title:   rec.Title,
			Journal: rec.Source,
			Year:    pubYear(rec.PubDate),
			DOI:     elocationDOI(rec.ELocationID),
			Source:  types.SourcePubMed,
		}
		for _, a := range rec.Authors {
			if a.Name != "" {
				s.Authors = append(s.Authors, a.Name)
			}
		}
		studies = append(studies, s)
	}
	return studies, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response.
func (b *PubMedBackend) getJSON(ctx context.Context, reqURL string, cfg types.SourcesConfig, v any) error {
	if err := b.Limiter.Wait(ctx, pubmedHost); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return fmt.Errorf("PubMed API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing PubMed response: %w", err)
	}
	return nil
}

// pubYear extracts the year from an esummary pubdate like "2020 Jan 15".
func pubYear(pubdate string) string {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// elocationDOI extracts a DOI from an elocationid like "doi: 10.1056/NEJMoa0808227".
func elocationDOI(eloc string) string {
	eloc = strings.TrimSpace(eloc)
	lower := strings.ToLower(eloc)
	if !strings.HasPrefix(lower, "doi:") {
		return ""
	}
	return strings.TrimSpace(eloc[len("doi:"):])
}
