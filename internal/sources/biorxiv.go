// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// bioRxivDetailsBase is the bioRxiv details endpoint. Declared as a var so
// tests can substitute an httptest server.
var bioRxivDetailsBase = "https://api.biorxiv.org/details/biorxiv"

const (
	bioRxivHost = "api.biorxiv.org"

	// bioRxivWindowYears is how far back the preprint listing reaches.
	bioRxivWindowYears = 5
)

// BioRxivBackend lists recent bioRxiv preprints and filters them for drug
// mentions client-side. The details endpoint has no text search, so the
// backend pages a date window and matches title/abstract locally.
type BioRxivBackend struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter

	// now is replaceable in tests for a stable date window.
	now func() time.Time
}

// Name returns the backend identifier.
func (b *BioRxivBackend) Name() string { return string(types.SourceBioRxiv) }

// Search lists preprints in the date window and keeps those mentioning the
// drug in title or abstract, up to the per-source limit.
func (b *BioRxivBackend) Search(ctx context.Context, q Query, cfg types.SourcesConfig) ([]*types.Study, error) {
	limit := cfg.PerSourceLimit
	if limit <= 0 {
		limit = 10
	}

	nowFn := b.now
	if nowFn == nil {
		nowFn = time.Now
	}
	to := nowFn()
	from := to.AddDate(-bioRxivWindowYears, 0, 0)

	reqURL := fmt.Sprintf("%s/%s/%s/0", bioRxivDetailsBase,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	if err := b.Limiter.Wait(ctx, bioRxivHost); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("bioRxiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bioRxiv API returned HTTP %d", resp.StatusCode)
	}

	var br bioRxivResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing bioRxiv response: %w", err)
	}

	drug := strings.ToLower(q.Drug)
	var studies []*types.Study
	for _, article := range br.Collection {
		if drug == "" {
			break
		}
		title := strings.ToLower(article.Title)
		abstract := strings.ToLower(article.Abstract)
		if !strings.Contains(title, drug) && !strings.Contains(abstract, drug) {
			continue
		}

		s := &types.Study{
			ID:       "biorxiv:" + article.DOI,
			Title:    article.Title,
			Abstract: article.Abstract,
			DOI:      article.DOI,
			Year:     yearFromDate(article.Date),
			Source:   types.SourceBioRxiv,
		}
		if article.Authors != "" {
			s.Authors = []string{article.Authors}
		}
		studies = append(studies, s)

		if len(studies) >= limit {
			break
		}
	}
	return studies, nil
}

// yearFromDate extracts the year from an ISO date like "2023-05-01".
func yearFromDate(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// bioRxiv API JSON structures.
type bioRxivResponse struct {
	Collection []bioRxivArticle `json:"collection"`
}

type bioRxivArticle struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Abstract string `json:"abstract"`
	Date     string `json:"date"`
}
