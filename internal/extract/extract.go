// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls structured efficacy metrics out of unstructured
// study text with ordered regex pattern families. Within a family the
// first matching pattern wins; every captured value is sanity-checked
// before use.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Result holds the metrics recovered from one piece of study text.
// Pointer fields are nil when nothing usable was found.
type Result struct {
	ResponseRate    *float64               `json:"response_rate,omitempty"`
	NonResponseRate *float64               `json:"non_response_rate,omitempty"`
	SampleSize      *int                   `json:"sample_size,omitempty"`
	PValue          *float64               `json:"p_value,omitempty"`
	Subgroups       []types.Subgroup       `json:"subgroups,omitempty"`
	Method          types.ExtractionMethod `json:"extraction_method"`
}

// Extract runs the pattern families over the study text. The title is
// prepended for context since titles often state the headline result.
// Method records how the rates were found: targeted patterns, the
// any-percentage fallback, or nothing.
func Extract(text, title string) Result {
	if text == "" {
		return Result{Method: types.MethodNone}
	}

	full := text
	if title != "" {
		full = title + ". " + text
	}

	r := Result{
		ResponseRate:    matchRate(responsePatterns, full),
		NonResponseRate: matchRate(nonResponsePatterns, full),
		SampleSize:      matchSampleSize(full),
		PValue:          matchPValue(full),
		Subgroups:       matchSubgroups(full),
	}

	switch {
	case r.ResponseRate != nil || r.NonResponseRate != nil:
		r.Method = types.MethodAbstractRegex
	default:
		if p := anyPercentage(full); p != nil {
			r.ResponseRate = p
			r.Method = types.MethodAnyPercentage
		} else {
			r.Method = types.MethodNone
		}
	}
	return r
}

// matchRate returns the first pattern hit that parses to a percentage in
// [0, 100], converted to a fraction.
func matchRate(patterns []*regexp.Regexp, text string) *float64 {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		rate, err := strconv.ParseFloat(m[1], 64)
		if err != nil || rate < 0 || rate > 100 {
			continue
		}
		rate /= 100
		return &rate
	}
	return nil
}

// matchSampleSize returns the first sample size in the plausible range
// [10, 1e6]. Thousands commas are stripped before parsing.
func matchSampleSize(text string) *int {
	for _, p := range samplePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		size, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || size < 10 || size > 1_000_000 {
			continue
		}
		return &size
	}
	return nil
}

// matchPValue returns the first p-value in [0, 1]. Scientific notation
// like "p<1e-5" parses too.
func matchPValue(text string) *float64 {
	m := pValuePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	p, err := strconv.ParseFloat(m[1], 64)
	if err != nil || p < 0 || p > 1 {
		return nil
	}
	return &p
}

// matchSubgroups collects genotype subgroups, deduplicated.
func matchSubgroups(text string) []types.Subgroup {
	var subgroups []types.Subgroup
	seen := make(map[string]bool)

	for i, p := range subgroupPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			var sg types.Subgroup
			if i == 0 {
				sg = types.Subgroup{Gene: strings.ToUpper(m[1]), Phenotype: strings.ToLower(m[2])}
			} else {
				sg = types.Subgroup{Phenotype: strings.ToLower(m[2])}
			}
			key := sg.Gene + "/" + sg.Phenotype
			if !seen[key] {
				seen[key] = true
				subgroups = append(subgroups, sg)
			}
		}
	}
	return subgroups
}

// anyPercentage is the last-resort fallback: find any percentage in the
// text, preferring values that look like clinical response rates. The
// preference order is the first value in [30, 80], then the first in
// [5, 95], then the first in (0, 100).
func anyPercentage(text string) *float64 {
	matches := anyPercentagePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var all, plausible []float64
	for _, m := range matches {
		p, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		all = append(all, p)
		if p >= 5 && p <= 95 {
			plausible = append(plausible, p)
		}
	}

	if len(plausible) == 0 {
		for _, p := range all {
			if p > 0 && p < 100 {
				frac := p / 100
				return &frac
			}
		}
		return nil
	}

	for _, p := range plausible {
		if p >= 30 && p <= 80 {
			frac := p / 100
			return &frac
		}
	}
	frac := plausible[0] / 100
	return &frac
}
