// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/evidence-engine/internal/httputil"
)

// PMC endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	pmcIDConvBase = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"
	pmcOAIBase    = "https://www.ncbi.nlm.nih.gov/pmc/oai/oai.cgi"
)

const pmcHost = "www.ncbi.nlm.nih.gov"

// convertPMID resolves a PMID to its PMC ID via the idconv service.
// Returns "" without error when the article has no live PMC record.
func (r *Resolver) convertPMID(ctx context.Context, pmid string) (string, error) {
	params := url.Values{
		"ids":    {pmid},
		"format": {"json"},
	}

	if err := r.Limiter.Wait(ctx, pmcHost); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pmcIDConvBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("PMC ID converter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PMC ID converter returned HTTP %d", resp.StatusCode)
	}

	var ic idconvResponse
	if err := json.NewDecoder(resp.Body).Decode(&ic); err != nil {
		return "", fmt.Errorf("parsing PMC ID converter response: %w", err)
	}

	for _, rec := range ic.Records {
		if rec.PMCID != "" && rec.Live != "false" {
			return rec.PMCID, nil
		}
	}
	return "", nil
}

// fetchPMC retrieves the JATS article for a PMC ID via OAI-PMH GetRecord.
func (r *Resolver) fetchPMC(ctx context.Context, pmcid string) (jatsContent, error) {
	params := url.Values{
		"verb":           {"GetRecord"},
		"identifier":     {"oai:pubmedcentral.nih.gov:" + pmcid},
		"metadataPrefix": {"pmc"},
	}

	if err := r.Limiter.Wait(ctx, pmcHost); err != nil {
		return jatsContent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pmcOAIBase+"?"+params.Encode(), nil)
	if err != nil {
		return jatsContent{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return jatsContent{}, fmt.Errorf("PMC OAI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jatsContent{}, fmt.Errorf("PMC OAI returned HTTP %d", resp.StatusCode)
	}

	return parseJATS(resp.Body)
}

// idconv JSON structures.
type idconvResponse struct {
	Records []idconvRecord `json:"records"`
}

type idconvRecord struct {
	PMID  string `json:"pmid"`
	PMCID string `json:"pmcid"`
	Live  string `json:"live"`
}
