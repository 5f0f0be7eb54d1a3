// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources queries literature APIs for a drug/indication pair and
// returns a unified, deduplicated study set.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// titlePrefixLen bounds the normalized-title dedup key.
const titlePrefixLen = 50

// Backend searches a single literature API. Each backend (PubMed, Semantic
// Scholar, Europe PMC, bioRxiv) implements this interface per the Strategy
// pattern.
type Backend interface {
	Name() string
	Search(ctx context.Context, q Query, cfg types.SourcesConfig) ([]*types.Study, error)
}

// Query holds the search parameters shared by all backends.
type Query struct {
	Drug       string
	Indication string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Drug) == "" && strings.TrimSpace(q.Indication) == ""
}

// Output holds the merged study set and aggregation statistics.
type Output struct {
	Studies      []*types.Study
	DupsRemoved  int
	SourceErrors []string
}

// Search fans the query out to all backends concurrently, deduplicates the
// combined results, and caps the merged set. A backend that errors is
// logged to w and skipped; partial results are expected. Search never
// fails: an empty query or all-failed backends yield an empty Output.
func Search(ctx context.Context, q Query, backends []Backend, cfg types.SourcesConfig, w io.Writer) Output {
	if q.IsEmpty() || len(backends) == 0 {
		return Output{}
	}

	type sourceResult struct {
		studies []*types.Study
		err     error
		name    string
	}

	ch := make(chan sourceResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			studies, err := b.Search(ctx, q, cfg)
			ch <- sourceResult{studies: studies, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	// Collect in a stable order so dedup keeps the first-seen record
	// deterministically: backend order, then each backend's own ranking.
	byName := make(map[string]sourceResult)
	var errs []string
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.name, sr.err)
			errs = append(errs, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		byName[sr.name] = sr
	}

	var all []*types.Study
	for _, b := range backends {
		if sr, ok := byName[b.Name()]; ok {
			all = append(all, sr.studies...)
		}
	}

	deduped, removed := dedupe(all)

	if cfg.MaxStudies > 0 && len(deduped) > cfg.MaxStudies {
		deduped = deduped[:cfg.MaxStudies]
	}

	return Output{
		Studies:      deduped,
		DupsRemoved:  removed,
		SourceErrors: errs,
	}
}

// dedupe merges studies that share a dedup key, keeping the first-seen
// record and filling its empty fields from later duplicates.
func dedupe(studies []*types.Study) ([]*types.Study, int) {
	seen := make(map[string]*types.Study)
	var out []*types.Study
	removed := 0

	for _, s := range studies {
		key := dedupKey(s)
		if key == "" {
			out = append(out, s)
			continue
		}
		if first, ok := seen[key]; ok {
			mergeInto(first, s)
			removed++
			continue
		}
		seen[key] = s
		out = append(out, s)
	}
	return out, removed
}

// dedupKey identifies a study for dedup: the external identifier when
// present, else a normalized title prefix.
func dedupKey(s *types.Study) string {
	if s.ID != "" {
		return "id:" + s.ID
	}
	if t := normalizeTitle(s.Title); t != "" {
		if r := []rune(t); len(r) > titlePrefixLen {
			t = string(r[:titlePrefixLen])
		}
		return "title:" + t
	}
	return ""
}

// mergeInto fills empty metadata fields of dst from src. Extracted numeric
// fields are untouched: dedup runs before enrichment.
func mergeInto(dst *types.Study, src *types.Study) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.DOI == "" && src.DOI != "" {
		dst.DOI = src.DOI
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Journal == "" && src.Journal != "" {
		dst.Journal = src.Journal
	}
	if dst.Year == "" && src.Year != "" {
		dst.Year = src.Year
	}
	if dst.FullTextURL == "" && src.FullTextURL != "" {
		dst.FullTextURL = src.FullTextURL
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatTable writes studies as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Studies) == 0 {
		fmt.Fprintln(w, "No studies found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-14s  %-60s  %-4s  %s\n",
		"Rank", "ID", "Title", "Year", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, s := range out.Studies {
		// Truncate on rune boundaries so non-ASCII titles stay valid UTF-8.
		title := s.Title
		if r := []rune(title); len(r) > 60 {
			title = string(r[:57]) + "..."
		}
		id := s.ID
		if len(id) > 14 {
			id = id[:11] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-14s  %-60s  %-4s  %s\n",
			i+1, id, title, s.Year, s.Source)
	}

	fmt.Fprintf(w, "\n%d studies", len(out.Studies))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes studies as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Studies)
}
