// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// FormatReport writes a human-readable evidence summary to w: the pooled
// estimate with its qualifiers, then citations split into studies that
// contributed efficacy data and additional references.
func FormatReport(bundle types.EvidenceBundle, w io.Writer) {
	fmt.Fprintf(w, "Evidence summary: %s for %s\n", bundle.Drug, bundle.Indication)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	p := bundle.Pooled
	if !p.HasData() {
		fmt.Fprintf(w, "No pooled estimate: %s\n", p.Message)
	} else {
		fmt.Fprintf(w, "Pooled non-response rate: %.1f%% (95%% CI %.1f%%-%.1f%%)\n",
			p.Rate*100, p.CILower*100, p.CIUpper*100)
		fmt.Fprintf(w, "Studies pooled: %d\n", p.NStudies)
		if p.Heterogeneity.Level == types.HeterogeneityNA {
			fmt.Fprintln(w, "Heterogeneity: N/A (requires at least 2 studies)")
		} else {
			fmt.Fprintf(w, "Heterogeneity: %s (CV=%.2f, variance ratio=%.1f%%)\n",
				p.Heterogeneity.Level, p.Heterogeneity.CV, p.Heterogeneity.VarianceRatio)
		}
		fmt.Fprintf(w, "Evidence quality: %s (score %.1f/%.0f)\n",
			p.Quality.Level, p.Quality.Score, p.Quality.MaxScore)
		if derived := derivedCount(p); derived > 0 {
			fmt.Fprintf(w, "Note: %d of %d rates derived from response rates, not directly reported\n",
				derived, len(p.Contributing))
		}
	}

	withData, references := splitStudies(bundle.Studies)

	if len(withData) > 0 {
		fmt.Fprintf(w, "\nStudies with efficacy data (%d):\n", len(withData))
		for _, s := range withData {
			fmt.Fprintf(w, "  - %s\n", Citation(s))
		}
	}
	if len(references) > 0 {
		fmt.Fprintf(w, "\nAdditional references (%d):\n", len(references))
		for _, s := range references {
			fmt.Fprintf(w, "  - %s\n", Citation(s))
		}
	}
}

// Citation formats one study reference line, appending whichever efficacy
// figure the study carries.
func Citation(s *types.Study) string {
	var b strings.Builder

	switch {
	case len(s.Authors) > 1:
		b.WriteString(firstAuthor(s.Authors[0]) + " et al. ")
	case len(s.Authors) == 1:
		b.WriteString(firstAuthor(s.Authors[0]) + ". ")
	}

	if s.Journal != "" {
		b.WriteString(s.Journal)
		if s.Year != "" {
			b.WriteString(" " + s.Year)
		}
		b.WriteString(". ")
	} else if s.Year != "" {
		b.WriteString(s.Year + ". ")
	}

	b.WriteString(studyRef(s))

	if s.ResponseRate != nil {
		fmt.Fprintf(&b, " - Response rate: %.1f%%", *s.ResponseRate*100)
	} else if s.NonResponseRate != nil {
		fmt.Fprintf(&b, " - Non-response rate: %.1f%%", *s.NonResponseRate*100)
	}
	return b.String()
}

// studyRef labels the study by its most citable identifier.
func studyRef(s *types.Study) string {
	switch {
	case isPMIDRef(s.ID):
		return "PMID:" + s.ID
	case s.DOI != "":
		return "doi:" + s.DOI
	case s.ID != "":
		return s.ID
	default:
		return s.Title
	}
}

func isPMIDRef(id string) bool {
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

// firstAuthor trims a combined author string down to its first name.
func firstAuthor(author string) string {
	if i := strings.IndexAny(author, ",;"); i >= 0 {
		author = author[:i]
	}
	return strings.TrimSpace(author)
}

func splitStudies(studies []*types.Study) (withData, references []*types.Study) {
	for _, s := range studies {
		if s.HasEfficacyData() {
			withData = append(withData, s)
		} else {
			references = append(references, s)
		}
	}
	return withData, references
}

func derivedCount(p types.PooledEstimate) int {
	n := 0
	for _, r := range p.Contributing {
		if r.Origin == types.OriginDerived {
			n++
		}
	}
	return n
}
