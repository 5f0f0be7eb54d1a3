// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func fptr(f float64) *float64 { return &f }
func iptr(i int) *int         { return &i }

func TestPoolWeightsTowardLargerStudy(t *testing.T) {
	studies := []*types.Study{
		{ID: "1", NonResponseRate: fptr(0.45), SampleSize: iptr(200)},
		{ID: "2", NonResponseRate: fptr(0.22), SampleSize: iptr(800)},
	}

	est := Pool(studies)

	if !est.HasData() {
		t.Fatalf("HasData() = false, want true: %+v", est)
	}
	if est.NStudies != 2 {
		t.Errorf("NStudies = %d, want 2", est.NStudies)
	}
	if est.Rate <= 0.22 || est.Rate >= 0.45 {
		t.Errorf("Rate = %v, want strictly between 0.22 and 0.45", est.Rate)
	}
	// The larger study has smaller variance, hence more weight.
	mid := (0.45 + 0.22) / 2
	if est.Rate >= mid {
		t.Errorf("Rate = %v, want closer to 0.22 than to 0.45", est.Rate)
	}
	if est.CILower < 0 || est.CIUpper > 1 {
		t.Errorf("CI [%v, %v] outside [0, 1]", est.CILower, est.CIUpper)
	}
	if est.CILower > est.Rate || est.CIUpper < est.Rate {
		t.Errorf("CI [%v, %v] does not bracket rate %v", est.CILower, est.CIUpper, est.Rate)
	}
}

func TestPoolIdempotent(t *testing.T) {
	studies := []*types.Study{
		{ID: "1", NonResponseRate: fptr(0.30), SampleSize: iptr(400)},
		{ID: "2", NonResponseRate: fptr(0.35), SampleSize: iptr(600)},
		{ID: "3", NonResponseRate: fptr(0.28)},
	}

	first := Pool(studies)
	second := Pool(studies)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Pool() is not deterministic:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestPoolEmptyStudyList(t *testing.T) {
	est := Pool(nil)

	if est.HasData() {
		t.Fatalf("HasData() = true, want false")
	}
	if est.NStudies != 0 {
		t.Errorf("NStudies = %d, want 0", est.NStudies)
	}
	if want := "no studies found"; est.Message != want {
		t.Errorf("Message = %q, want %q", est.Message, want)
	}
}

func TestPoolUnextractableStudies(t *testing.T) {
	studies := []*types.Study{
		{ID: "1", Title: "A study without numbers"},
		{ID: "2", Title: "Another one"},
	}

	est := Pool(studies)

	if est.HasData() {
		t.Fatalf("HasData() = true, want false")
	}
	if want := "found 2 studies but could not extract efficacy data"; est.Message != want {
		t.Errorf("Message = %q, want %q", est.Message, want)
	}
}

func TestPoolSingleStudyHeterogeneityNA(t *testing.T) {
	est := Pool([]*types.Study{
		{ID: "1", NonResponseRate: fptr(0.3), SampleSize: iptr(100)},
	})

	if est.NStudies != 1 {
		t.Errorf("NStudies = %d, want 1", est.NStudies)
	}
	if est.Heterogeneity.Level != types.HeterogeneityNA {
		t.Errorf("Heterogeneity.Level = %q, want %q", est.Heterogeneity.Level, types.HeterogeneityNA)
	}
	if math.Abs(est.Rate-0.3) > 1e-6 {
		t.Errorf("Rate = %v, want 0.3", est.Rate)
	}
}

func TestPoolPrefersReportedNonResponse(t *testing.T) {
	// One study reports non-response directly; the other only reports
	// response. The derived complement must not enter the pool, so each
	// study contributes at most one value and the reported study alone
	// drives the estimate.
	studies := []*types.Study{
		{ID: "1", NonResponseRate: fptr(0.40), SampleSize: iptr(500)},
		{ID: "2", ResponseRate: fptr(0.90), SampleSize: iptr(500)},
	}

	est := Pool(studies)

	if est.NStudies != 1 {
		t.Fatalf("NStudies = %d, want 1 (reported rates only)", est.NStudies)
	}
	if est.Contributing[0].StudyID != "1" {
		t.Errorf("Contributing[0].StudyID = %q, want %q", est.Contributing[0].StudyID, "1")
	}
	if est.Contributing[0].Origin != types.OriginReported {
		t.Errorf("Origin = %q, want %q", est.Contributing[0].Origin, types.OriginReported)
	}
}

func TestPoolDerivesFromResponseWhenNoDirectRates(t *testing.T) {
	studies := []*types.Study{
		{ID: "1", ResponseRate: fptr(0.70), SampleSize: iptr(300)},
		{ID: "2", ResponseRate: fptr(0.60), SampleSize: iptr(300)},
	}

	est := Pool(studies)

	if est.NStudies != 2 {
		t.Fatalf("NStudies = %d, want 2", est.NStudies)
	}
	for _, r := range est.Contributing {
		if r.Origin != types.OriginDerived {
			t.Errorf("study %s Origin = %q, want %q", r.StudyID, r.Origin, types.OriginDerived)
		}
	}
	if est.Rate <= 0.29 || est.Rate >= 0.41 {
		t.Errorf("Rate = %v, want between 0.3 and 0.4", est.Rate)
	}
}

func TestPoolDefaultSampleSize(t *testing.T) {
	est := Pool([]*types.Study{
		{ID: "1", NonResponseRate: fptr(0.25)},
	})

	if est.Contributing[0].SampleSize != defaultSampleSize {
		t.Errorf("SampleSize = %d, want %d", est.Contributing[0].SampleSize, defaultSampleSize)
	}
}

func TestAssessHeterogeneity(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
		want  types.HeterogeneityLevel
	}{
		{"tight cluster", []float64{0.30, 0.31, 0.32}, types.HeterogeneityLow},
		{"wide spread", []float64{0.10, 0.45, 0.80}, types.HeterogeneityHigh},
		{"single rate", []float64{0.30}, types.HeterogeneityNA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rates []types.PooledRate
			for _, r := range tt.rates {
				rates = append(rates, types.PooledRate{Rate: r, SampleSize: 500})
			}
			h := assessHeterogeneity(rates)
			if h.Level != tt.want {
				t.Errorf("Level = %q (CV=%v, ratio=%v), want %q", h.Level, h.CV, h.VarianceRatio, tt.want)
			}
		})
	}
}

func TestAssessQuality(t *testing.T) {
	tests := []struct {
		name    string
		studies []*types.Study
		want    types.QualityLevel
	}{
		{
			name: "five large table studies with meta-analysis",
			studies: []*types.Study{
				{Title: "A meta-analysis of treatment response", SampleSize: iptr(2000), ExtractionMethod: types.MethodTable},
				{SampleSize: iptr(1500), ExtractionMethod: types.MethodFullText},
				{SampleSize: iptr(1200), ExtractionMethod: types.MethodAbstractRegex},
				{SampleSize: iptr(900), ExtractionMethod: types.MethodAbstractRegex},
				{SampleSize: iptr(800), ExtractionMethod: types.MethodAbstractRegex},
			},
			// 2 + 1 + 1 + 1 = 5/5.
			want: types.QualityHigh,
		},
		{
			name: "single small fallback study",
			studies: []*types.Study{
				{SampleSize: iptr(40), ExtractionMethod: types.MethodAnyPercentage},
			},
			// 0 + 0 + 0.2 = 0.2/5.
			want: types.QualityVeryLow,
		},
		{
			name: "three mid-size regex studies",
			studies: []*types.Study{
				{Title: "A randomized trial of X", SampleSize: iptr(600), ExtractionMethod: types.MethodAbstractRegex},
				{SampleSize: iptr(500), ExtractionMethod: types.MethodAbstractRegex},
				{SampleSize: iptr(400), ExtractionMethod: types.MethodAbstractRegex},
			},
			// 1.5 + 0.7 + 0.4 + 0.5 = 3.1/5.
			want: types.QualityModerate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := assessQuality(tt.studies)
			if q.Level != tt.want {
				t.Errorf("Level = %q (score %.1f), want %q", q.Level, q.Score, tt.want)
			}
		})
	}
}

func TestDesignBonusMetaAnalysisOutranksRCT(t *testing.T) {
	studies := []*types.Study{
		{Title: "A randomized controlled trial of sertraline"},
		{Title: "Systematic review and meta-analysis of SSRI response"},
	}
	if got := designBonus(studies); got != 1 {
		t.Errorf("designBonus() = %v, want 1", got)
	}
}
