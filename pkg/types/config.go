package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "evidence-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourcesConfig holds settings for the literature aggregation stage.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// PerSourceLimit caps results requested from each backend (default 10).
	PerSourceLimit int `json:"per_source_limit" yaml:"per_source_limit"`

	// MaxStudies caps the merged study set passed downstream (default 15).
	MaxStudies int `json:"max_studies" yaml:"max_studies"`

	// MinRequestDelay is the minimum delay between requests to the same
	// target host (default 1s).
	MinRequestDelay time.Duration `json:"min_request_delay" yaml:"min_request_delay"`

	// NCBIAPIKey raises the E-utilities rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableEuropePMC controls whether the Europe PMC backend is used.
	EnableEuropePMC bool `json:"enable_europe_pmc" yaml:"enable_europe_pmc"`

	// EnableBioRxiv controls whether the bioRxiv preprint backend is used.
	EnableBioRxiv bool `json:"enable_biorxiv" yaml:"enable_biorxiv"`
}

// FullTextConfig holds settings for the full-text resolution stage.
type FullTextConfig struct {
	HTTPConfig `yaml:",inline"`

	// UnpaywallEmail is required by the Unpaywall API.
	UnpaywallEmail string `json:"unpaywall_email,omitempty" yaml:"unpaywall_email,omitempty"`

	// MaxTextLength caps captured body text (default 100_000 characters).
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length"`

	// MinUsableLength is the threshold below which captured text does not
	// count as a successful resolution (default 500 characters).
	MinUsableLength int `json:"min_usable_length" yaml:"min_usable_length"`
}

// PipelineConfig groups all stage configurations for one request.
type PipelineConfig struct {
	Sources  SourcesConfig  `json:"sources" yaml:"sources"`
	FullText FullTextConfig `json:"fulltext" yaml:"fulltext"`
}
