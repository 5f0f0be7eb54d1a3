// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool reduces per-study non-response rates to a single pooled
// estimate with inverse-variance weighting, a 95% confidence interval,
// a heterogeneity classification, and a quality grade.
package pool

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	// epsilon guards the degenerate zero-variance case (rate 0 or 1).
	epsilon = 1e-10

	// defaultSampleSize stands in for studies that report a rate but no
	// cohort size.
	defaultSampleSize = 500

	// z95 is the normal-approximation critical value for a 95% CI.
	z95 = 1.96
)

// Pool computes the pooled non-response estimate for a study set.
// Directly reported non-response rates are used when any study has one;
// only when none do does it fall back to deriving 1-response across the
// set, so a reported rate is never averaged with its own complement.
// Zero usable rates yields a sentinel whose message distinguishes an
// empty study list from an unextractable one.
func Pool(studies []*types.Study) types.PooledEstimate {
	if len(studies) == 0 {
		return types.PooledEstimate{
			NStudies:      0,
			Heterogeneity: types.Heterogeneity{Level: types.HeterogeneityNA},
			Quality:       types.Quality{Level: types.QualityVeryLow, MaxScore: 5},
			Message:       "no studies found",
		}
	}

	rates := collectRates(studies)
	if len(rates) == 0 {
		return types.PooledEstimate{
			NStudies:      0,
			Heterogeneity: types.Heterogeneity{Level: types.HeterogeneityNA},
			Quality:       types.Quality{Level: types.QualityVeryLow, MaxScore: 5},
			Message: fmt.Sprintf("found %d studies but could not extract efficacy data",
				len(studies)),
		}
	}

	pooled, lower, upper := pooledEstimate(rates)

	return types.PooledEstimate{
		Rate:          pooled,
		CILower:       lower,
		CIUpper:       upper,
		NStudies:      len(rates),
		Heterogeneity: assessHeterogeneity(rates),
		Quality:       assessQuality(studies),
		Contributing:  rates,
	}
}

// collectRates gathers (rate, sample size) pairs. Studies missing a
// sample size contribute the default.
func collectRates(studies []*types.Study) []types.PooledRate {
	var rates []types.PooledRate
	for _, s := range studies {
		if s.NonResponseRate == nil {
			continue
		}
		rates = append(rates, types.PooledRate{
			StudyID:    s.ID,
			Rate:       *s.NonResponseRate,
			SampleSize: sampleOrDefault(s),
			Origin:     types.OriginReported,
		})
	}
	if len(rates) > 0 {
		return rates
	}

	// No study reports non-response directly; derive it from response
	// rates instead and tag the values accordingly.
	for _, s := range studies {
		if s.ResponseRate == nil {
			continue
		}
		rates = append(rates, types.PooledRate{
			StudyID:    s.ID,
			Rate:       1 - *s.ResponseRate,
			SampleSize: sampleOrDefault(s),
			Origin:     types.OriginDerived,
		})
	}
	return rates
}

func sampleOrDefault(s *types.Study) int {
	if s.SampleSize != nil {
		return *s.SampleSize
	}
	return defaultSampleSize
}

// pooledEstimate computes the inverse-variance-weighted mean and its
// 95% CI, clamped to [0, 1].
func pooledEstimate(rates []types.PooledRate) (pooled, lower, upper float64) {
	var sumW, sumWR float64
	for _, r := range rates {
		variance := r.Rate * (1 - r.Rate) / float64(r.SampleSize)
		w := 1 / (variance + epsilon)
		sumW += w
		sumWR += w * r.Rate
	}

	pooled = sumWR / sumW
	se := math.Sqrt(1 / sumW)
	lower = math.Max(0, pooled-z95*se)
	upper = math.Min(1, pooled+z95*se)
	return pooled, lower, upper
}

// assessHeterogeneity classifies between-study spread using the
// coefficient of variation and a variance-ratio proxy comparing observed
// variance against expected binomial variance. Needs at least two rates.
func assessHeterogeneity(rates []types.PooledRate) types.Heterogeneity {
	if len(rates) < 2 {
		return types.Heterogeneity{Level: types.HeterogeneityNA}
	}

	var sum float64
	for _, r := range rates {
		sum += r.Rate
	}
	mean := sum / float64(len(rates))

	var variance float64
	for _, r := range rates {
		d := r.Rate - mean
		variance += d * d
	}
	variance /= float64(len(rates))

	cv := math.Sqrt(variance) / (mean + epsilon)

	expected := mean * (1 - mean) / 100
	var ratio float64
	if expected > 0 {
		ratio = math.Max(0, (variance-expected)/(variance+epsilon)) * 100
	}

	h := types.Heterogeneity{CV: cv, VarianceRatio: ratio}
	switch {
	case cv < 0.15 && ratio < 25:
		h.Level = types.HeterogeneityLow
	case cv < 0.30 && ratio < 50:
		h.Level = types.HeterogeneityModerate
	default:
		h.Level = types.HeterogeneityHigh
	}
	return h
}

// assessQuality grades the evidence on a 5-point scale: study count,
// average sample size, the best extraction method present, and a study
// design bonus from title keywords.
func assessQuality(studies []*types.Study) types.Quality {
	const maxScore = 5.0
	var score float64

	switch {
	case len(studies) >= 5:
		score += 2
	case len(studies) >= 3:
		score += 1.5
	case len(studies) >= 2:
		score += 1
	}

	// Studies without a reported size drag the average down. That is
	// deliberate: unreported cohorts are weak evidence.
	var totalSample int
	for _, s := range studies {
		if s.SampleSize != nil {
			totalSample += *s.SampleSize
		}
	}
	avgSample := float64(totalSample) / float64(len(studies))
	switch {
	case avgSample >= 1000:
		score += 1
	case avgSample >= 500:
		score += 0.7
	case avgSample >= 100:
		score += 0.4
	}

	best := types.MethodNone
	for _, s := range studies {
		if s.ExtractionMethod.Reliability() > best.Reliability() {
			best = s.ExtractionMethod
		}
	}
	switch best {
	case types.MethodTable:
		score += 1
	case types.MethodFullText:
		score += 0.7
	case types.MethodAbstractRegex:
		score += 0.4
	case types.MethodAnyPercentage:
		score += 0.2
	}

	score += designBonus(studies)

	q := types.Quality{Score: score, MaxScore: maxScore}
	switch pct := score / maxScore * 100; {
	case pct >= 75:
		q.Level = types.QualityHigh
	case pct >= 50:
		q.Level = types.QualityModerate
	case pct >= 25:
		q.Level = types.QualityLow
	default:
		q.Level = types.QualityVeryLow
	}
	return q
}

// designBonus rewards study designs signaled in titles. A meta-analysis
// anywhere in the set outranks a randomized trial.
func designBonus(studies []*types.Study) float64 {
	var bonus float64
	for _, s := range studies {
		title := strings.ToLower(s.Title)
		switch {
		case strings.Contains(title, "meta-analysis") || strings.Contains(title, "systematic review"):
			return 1
		case strings.Contains(title, "randomized") || strings.Contains(title, "rct"):
			bonus = 0.5
		}
	}
	return bonus
}
