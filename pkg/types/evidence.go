// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// HeterogeneityLevel classifies between-study variability.
type HeterogeneityLevel string

const (
	HeterogeneityLow      HeterogeneityLevel = "low"
	HeterogeneityModerate HeterogeneityLevel = "moderate"
	HeterogeneityHigh     HeterogeneityLevel = "high"
	// HeterogeneityNA applies when fewer than two studies contributed a rate.
	HeterogeneityNA HeterogeneityLevel = "N/A"
)

// Heterogeneity holds the classification plus the underlying statistics.
type Heterogeneity struct {
	Level HeterogeneityLevel `json:"level" yaml:"level"`

	// CV is the coefficient of variation of the raw rates
	// (population standard deviation / mean).
	CV float64 `json:"cv" yaml:"cv"`

	// VarianceRatio compares observed variance against expected binomial
	// variance, expressed as a percentage (an I²-like statistic).
	VarianceRatio float64 `json:"variance_ratio" yaml:"variance_ratio"`
}

// QualityLevel grades the overall evidence quality.
type QualityLevel string

const (
	QualityVeryLow  QualityLevel = "very low"
	QualityLow      QualityLevel = "low"
	QualityModerate QualityLevel = "moderate"
	QualityHigh     QualityLevel = "high"
)

// Quality holds the evidence grade and the weighted score behind it.
type Quality struct {
	Level    QualityLevel `json:"level" yaml:"level"`
	Score    float64      `json:"score" yaml:"score"`
	MaxScore float64      `json:"max_score" yaml:"max_score"`
}

// PooledRate is one (rate, sample size) pair that contributed to pooling,
// tagged with whether the rate was reported directly or derived from a
// response rate.
type PooledRate struct {
	StudyID    string     `json:"study_id" yaml:"study_id"`
	Rate       float64    `json:"rate" yaml:"rate"`
	SampleSize int        `json:"sample_size" yaml:"sample_size"`
	Origin     RateOrigin `json:"origin" yaml:"origin"`
}

// PooledEstimate is the inverse-variance pooled non-response rate with its
// confidence interval and evidence grading. Immutable once computed.
//
// NStudies == 0 marks the no-data sentinel; Message then distinguishes
// "no studies found" from "studies found but no extractable data".
type PooledEstimate struct {
	Rate    float64 `json:"rate" yaml:"rate"`
	CILower float64 `json:"ci_lower" yaml:"ci_lower"`
	CIUpper float64 `json:"ci_upper" yaml:"ci_upper"`

	NStudies int `json:"n_studies" yaml:"n_studies"`

	Heterogeneity Heterogeneity `json:"heterogeneity" yaml:"heterogeneity"`
	Quality       Quality       `json:"quality" yaml:"quality"`

	// Contributing lists the per-study rates that were pooled.
	Contributing []PooledRate `json:"contributing,omitempty" yaml:"contributing,omitempty"`

	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// HasData reports whether any study contributed a usable rate.
func (p PooledEstimate) HasData() bool { return p.NStudies > 0 }

// EvidenceBundle is the upward interface of the core: the deduplicated,
// enriched study set plus the pooled estimate (or its sentinel) for one
// drug/indication request.
type EvidenceBundle struct {
	Drug       string         `json:"drug" yaml:"drug"`
	Indication string         `json:"indication" yaml:"indication"`
	Studies    []*Study       `json:"studies" yaml:"studies"`
	Pooled     PooledEstimate `json:"pooled_estimate" yaml:"pooled_estimate"`
}
