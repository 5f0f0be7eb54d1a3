// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext upgrades studies from abstract-only metadata to full
// article text. Open repositories are tried in priority order: PMC first,
// Europe PMC second, and Unpaywall last. Unpaywall only yields a link.
package fulltext

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	// defaultMinUsableLength is the shortest retrieved text worth keeping.
	// Anything under this is typically an error page or a stub record.
	defaultMinUsableLength = 500

	// defaultMaxTextLength caps stored article text.
	defaultMaxTextLength = 100_000
)

// Resolver retrieves full article text for studies.
type Resolver struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Config  types.FullTextConfig
}

// Resolve attempts to attach full text to the study. Repositories are
// tried in priority order and the first usable text wins; the study's
// FullTextProvenance records where it came from, or "unavailable" when
// every route fails. Resolution failures degrade the study back to its
// abstract, never abort.
func (r *Resolver) Resolve(ctx context.Context, s *types.Study, w io.Writer) {
	minLen := r.Config.MinUsableLength
	if minLen <= 0 {
		minLen = defaultMinUsableLength
	}

	if len(s.FullText) > minLen {
		return
	}

	if isPMID(s.ID) {
		if r.resolvePMC(ctx, s, minLen, w) {
			return
		}
		if r.resolveEuropePMC(ctx, s, minLen, w) {
			return
		}
	}

	if s.DOI != "" {
		link, err := r.unpaywallLink(ctx, s.DOI)
		if err != nil {
			fmt.Fprintf(w, "warning: Unpaywall lookup failed for %s: %v\n", s.ID, err)
		} else if link != "" {
			s.FullTextURL = link
			s.FullTextProvenance = types.FullTextUnpaywall
			fmt.Fprintf(w, "found open-access link for %s via Unpaywall\n", s.ID)
			return
		}
	}

	s.FullTextProvenance = types.FullTextUnavailable
}

// ResolveAll resolves full text for every study in the list.
func (r *Resolver) ResolveAll(ctx context.Context, studies []*types.Study, w io.Writer) {
	for _, s := range studies {
		if ctx.Err() != nil {
			return
		}
		r.Resolve(ctx, s, w)
	}
}

func (r *Resolver) resolvePMC(ctx context.Context, s *types.Study, minLen int, w io.Writer) bool {
	pmcid, err := r.convertPMID(ctx, s.ID)
	if err != nil {
		fmt.Fprintf(w, "warning: PMC ID lookup failed for %s: %v\n", s.ID, err)
		return false
	}
	if pmcid == "" {
		return false
	}

	content, err := r.fetchPMC(ctx, pmcid)
	if err != nil {
		fmt.Fprintf(w, "warning: PMC fetch failed for %s: %v\n", pmcid, err)
		return false
	}
	return r.apply(s, content, types.FullTextPMC, minLen, w)
}

func (r *Resolver) resolveEuropePMC(ctx context.Context, s *types.Study, minLen int, w io.Writer) bool {
	content, err := r.fetchEuropePMC(ctx, s.ID)
	if err != nil {
		fmt.Fprintf(w, "warning: Europe PMC full text failed for %s: %v\n", s.ID, err)
		return false
	}
	return r.apply(s, content, types.FullTextEuropePMC, minLen, w)
}

// apply stores usable article content on the study. Text below the
// usable threshold is discarded so a stub record never masks a later
// repository that has the real article.
func (r *Resolver) apply(s *types.Study, content jatsContent, prov types.FullTextProvenance, minLen int, w io.Writer) bool {
	text := content.combined()
	if len(text) <= minLen {
		return false
	}

	maxLen := r.Config.MaxTextLength
	if maxLen <= 0 {
		maxLen = defaultMaxTextLength
	}
	if len(text) > maxLen {
		text = text[:maxLen]
	}

	s.FullText = text
	s.FullTextProvenance = prov
	if len(content.Tables) > 0 {
		s.Tables = content.Tables
	}
	if s.Abstract == "" && content.Abstract != "" {
		s.Abstract = content.Abstract
	}
	fmt.Fprintf(w, "retrieved full text for %s via %s (%d chars, %d tables)\n",
		s.ID, prov, len(text), len(content.Tables))
	return true
}

// isPMID reports whether the study ID is a bare PubMed identifier.
// Source-local IDs carry a prefix such as "ss:" or "biorxiv:".
func isPMID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
