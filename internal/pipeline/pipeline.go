// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the evidence stages together: source search,
// full-text resolution, metric extraction, and pooling. It is the one
// entry point callers use to turn a drug/indication pair into an
// evidence bundle.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/evidence-engine/internal/extract"
	"github.com/pdiddy/evidence-engine/internal/fulltext"
	"github.com/pdiddy/evidence-engine/internal/pool"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Pipeline holds the constructed stage instances. Build one with New and
// reuse it across requests; it has no per-request state.
type Pipeline struct {
	Backends []sources.Backend
	Resolver *fulltext.Resolver
	Config   types.PipelineConfig
}

// New constructs a pipeline from config. Optional sources are included
// per their enable flags; all backends share one rate limiter so
// concurrent searches still space their calls per host.
func New(cfg types.PipelineConfig) *Pipeline {
	limiter := ratelimit.New(cfg.Sources.MinRequestDelay)
	client := &http.Client{Timeout: cfg.Sources.Timeout}

	backends := []sources.Backend{
		&sources.PubMedBackend{Client: client, Limiter: limiter},
	}
	if cfg.Sources.EnableSemanticScholar {
		backends = append(backends, &sources.SemanticScholarBackend{Client: client, Limiter: limiter})
	}
	if cfg.Sources.EnableEuropePMC {
		backends = append(backends, &sources.EuropePMCBackend{Client: client, Limiter: limiter})
	}
	if cfg.Sources.EnableBioRxiv {
		backends = append(backends, &sources.BioRxivBackend{Client: client, Limiter: limiter})
	}

	return &Pipeline{
		Backends: backends,
		Resolver: &fulltext.Resolver{
			Client:  &http.Client{Timeout: cfg.FullText.Timeout},
			Limiter: limiter,
			Config:  cfg.FullText,
		},
		Config: cfg,
	}
}

// Run executes the full pipeline for one drug/indication pair. Backend
// failures degrade coverage and are logged to w; Run itself always
// produces a bundle, with the pooled sentinel carrying the reason when
// no evidence survives.
func (p *Pipeline) Run(ctx context.Context, drug, indication string, w io.Writer) types.EvidenceBundle {
	bundle := types.EvidenceBundle{Drug: drug, Indication: indication}

	out := sources.Search(ctx, sources.Query{Drug: drug, Indication: indication},
		p.Backends, p.Config.Sources, w)
	bundle.Studies = out.Studies
	fmt.Fprintf(w, "collected %d studies (%d duplicates removed)\n",
		len(out.Studies), out.DupsRemoved)

	p.Resolver.ResolveAll(ctx, bundle.Studies, w)

	for _, s := range bundle.Studies {
		enrichStudy(s)
	}

	bundle.Pooled = pool.Pool(bundle.Studies)
	if bundle.Pooled.HasData() {
		fmt.Fprintf(w, "pooled non-response %.3f [%.3f, %.3f] from %d studies\n",
			bundle.Pooled.Rate, bundle.Pooled.CILower, bundle.Pooled.CIUpper,
			bundle.Pooled.NStudies)
	} else {
		fmt.Fprintf(w, "no pooled estimate: %s\n", bundle.Pooled.Message)
	}
	return bundle
}

// enrichStudy fills the study's numeric fields from its text, trying
// abstract, full text, and tables. Each route tags its reliability and a
// lower-reliability result never overwrites a higher one.
func enrichStudy(s *types.Study) {
	applyResult(s, extract.Extract(s.Abstract, s.Title), false)

	if s.FullText != "" {
		applyResult(s, extract.Extract(s.FullText, s.Title), true)
	}

	if rate := extract.FromTables(s.Tables); rate != nil {
		if types.MethodTable.Reliability() > s.ExtractionMethod.Reliability() {
			s.ResponseRate = rate
			s.ExtractionMethod = types.MethodTable
		}
	}
}

// applyResult merges an extraction result into the study. Rates move
// together with their method tag; scalar context fields fill in wherever
// they are still missing.
func applyResult(s *types.Study, r extract.Result, fromFullText bool) {
	method := r.Method
	if fromFullText && method == types.MethodAbstractRegex {
		method = types.MethodFullText
	}

	if (r.ResponseRate != nil || r.NonResponseRate != nil) &&
		method.Reliability() > s.ExtractionMethod.Reliability() {
		s.ResponseRate = r.ResponseRate
		s.NonResponseRate = r.NonResponseRate
		s.ExtractionMethod = method
	}

	if s.SampleSize == nil && r.SampleSize != nil {
		s.SampleSize = r.SampleSize
	}
	if s.PValue == nil && r.PValue != nil {
		s.PValue = r.PValue
	}
	if len(s.Subgroups) == 0 && len(r.Subgroups) > 0 {
		s.Subgroups = r.Subgroups
	}
}
