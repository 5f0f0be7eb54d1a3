// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// StudySource identifies which search backend produced a study record.
type StudySource string

const (
	SourcePubMed          StudySource = "pubmed"
	SourceSemanticScholar StudySource = "semantic_scholar"
	SourceEuropePMC       StudySource = "europe_pmc"
	SourceBioRxiv         StudySource = "biorxiv"
)

// ExtractionMethod records how a study's numeric fields were obtained.
type ExtractionMethod string

const (
	MethodNone          ExtractionMethod = "none"
	MethodAnyPercentage ExtractionMethod = "any_percentage_fallback"
	MethodAbstractRegex ExtractionMethod = "abstract_regex"
	MethodFullText      ExtractionMethod = "fulltext_regex"
	MethodTable         ExtractionMethod = "table"
)

// Reliability orders extraction methods from least (0) to most trustworthy.
// Enrichment never replaces fields set by a higher-reliability method.
func (m ExtractionMethod) Reliability() int {
	switch m {
	case MethodTable:
		return 4
	case MethodFullText:
		return 3
	case MethodAbstractRegex:
		return 2
	case MethodAnyPercentage:
		return 1
	default:
		return 0
	}
}

// RateOrigin distinguishes a directly reported non-response rate from one
// derived as 1 - response_rate during pooling.
type RateOrigin string

const (
	OriginReported RateOrigin = "reported"
	OriginDerived  RateOrigin = "derived"
)

// FullTextProvenance identifies which backend supplied a study's body text.
type FullTextProvenance string

const (
	FullTextPMC         FullTextProvenance = "pmc"
	FullTextEuropePMC   FullTextProvenance = "europe_pmc"
	FullTextUnpaywall   FullTextProvenance = "unpaywall"
	FullTextUnavailable FullTextProvenance = "unavailable"
)

// Subgroup is a genotype-defined patient subgroup mentioned in study text
// (e.g. CYP2C19 poor metabolizers).
type Subgroup struct {
	Gene      string `json:"gene" yaml:"gene"`
	Phenotype string `json:"phenotype" yaml:"phenotype"`
}

// Table holds one table captured from structured full text. Rows preserve
// source order; each row associates a label cell with one or more values.
type Table struct {
	Caption string     `json:"caption,omitempty" yaml:"caption,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Study holds the metadata and extracted efficacy fields for one paper.
// Records are built incrementally: search backends create them, the
// full-text resolver and extractor mutate fields in place. ID is fixed at
// creation and is the dedup key.
type Study struct {
	// ID is an external database identifier (PMID, DOI) or a
	// source-local synthetic one (e.g. "ss:<paperId>").
	ID string `json:"id" yaml:"id"`

	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year    string `json:"year,omitempty" yaml:"year,omitempty"`

	// Source identifies the search backend that produced the record.
	Source StudySource `json:"source" yaml:"source"`

	// FullText is absent until the resolver fills it. Capped at
	// FullTextConfig.MaxTextLength.
	FullText           string             `json:"full_text,omitempty" yaml:"full_text,omitempty"`
	FullTextURL        string             `json:"full_text_url,omitempty" yaml:"full_text_url,omitempty"`
	FullTextProvenance FullTextProvenance `json:"full_text_provenance,omitempty" yaml:"full_text_provenance,omitempty"`

	// Tables holds structured table content when the full-text backend
	// exposes it. Preferred over free-text extraction.
	Tables []Table `json:"tables,omitempty" yaml:"tables,omitempty"`

	// Extracted efficacy fields. Rates are fractions in [0,1]; nil means
	// not extracted, which is distinct from zero.
	ResponseRate    *float64 `json:"response_rate,omitempty" yaml:"response_rate,omitempty"`
	NonResponseRate *float64 `json:"non_response_rate,omitempty" yaml:"non_response_rate,omitempty"`
	SampleSize      *int     `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	PValue          *float64 `json:"p_value,omitempty" yaml:"p_value,omitempty"`

	Subgroups []Subgroup `json:"subgroups,omitempty" yaml:"subgroups,omitempty"`

	ExtractionMethod ExtractionMethod `json:"extraction_method" yaml:"extraction_method"`
}

// HasEfficacyData reports whether extraction produced at least one rate.
func (s *Study) HasEfficacyData() bool {
	return s.ResponseRate != nil || s.NonResponseRate != nil
}
