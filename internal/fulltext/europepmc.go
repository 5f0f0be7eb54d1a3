// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pdiddy/evidence-engine/internal/httputil"
)

// europePMCRestBase is the Europe PMC REST base URL. Declared as a var so
// tests can substitute an httptest server.
var europePMCRestBase = "https://www.ebi.ac.uk/europepmc/webservices/rest"

const europePMCHost = "www.ebi.ac.uk"

// fetchEuropePMC retrieves the full-text JATS article for a PMID from the
// Europe PMC fullTextXML endpoint.
func (r *Resolver) fetchEuropePMC(ctx context.Context, pmid string) (jatsContent, error) {
	reqURL := fmt.Sprintf("%s/%s/fullTextXML", europePMCRestBase, pmid)

	if err := r.Limiter.Wait(ctx, europePMCHost); err != nil {
		return jatsContent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return jatsContent{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, r.Client, req, 0)
	if err != nil {
		return jatsContent{}, fmt.Errorf("Europe PMC full text request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jatsContent{}, fmt.Errorf("Europe PMC full text returned HTTP %d", resp.StatusCode)
	}

	return parseJATS(resp.Body)
}
