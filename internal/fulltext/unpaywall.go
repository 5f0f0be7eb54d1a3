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

// unpaywallBase is the Unpaywall v2 API base URL. Declared as a var so
// tests can substitute an httptest server.
var unpaywallBase = "https://api.unpaywall.org/v2"

const unpaywallHost = "api.unpaywall.org"

// unpaywallLink looks up an open-access link for a DOI. Unpaywall serves
// PDF locations, not article text, so the result is a URL to record on the
// study rather than text to extract from. Returns "" without error when
// the article is closed access.
func (r *Resolver) unpaywallLink(ctx context.Context, doi string) (string, error) {
	if r.Config.UnpaywallEmail == "" {
		return "", nil
	}

	reqURL := fmt.Sprintf("%s/%s?email=%s", unpaywallBase,
		url.PathEscape(doi), url.QueryEscape(r.Config.UnpaywallEmail))

	if err := r.Limiter.Wait(ctx, unpaywallHost); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var ur unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if !ur.IsOA || ur.BestOALocation == nil {
		return "", nil
	}
	if ur.BestOALocation.URLForPDF != "" {
		return ur.BestOALocation.URLForPDF, nil
	}
	return ur.BestOALocation.URL, nil
}

// Unpaywall API JSON structures.
type unpaywallResponse struct {
	IsOA           bool               `json:"is_oa"`
	BestOALocation *unpaywallLocation `json:"best_oa_location"`
}

type unpaywallLocation struct {
	URL       string `json:"url"`
	URLForPDF string `json:"url_for_pdf"`
}
