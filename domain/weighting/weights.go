// Package weighting derives response-propensity case weights for survey
// nonresponse correction. Given a per-unit respondent flag and the fitted
// probability of response from a propensity model, it assigns every
// respondent an inverse-probability weight and rescales the respondent group
// so the weights sum back to the group's unweighted size. Non-respondents
// carry weight zero.
package weighting

import (
	"math"

	"surveyweight/domain/core"
)

// Weights is the immutable result of a derivation. All slices are aligned to
// the input row order.
type Weights struct {
	// Raw holds 1/(1-p) for every row. It is computed for non-respondents
	// too, but only respondent entries feed the normalization.
	Raw []float64

	// Normalized is zero for non-respondents; for respondents it is
	// Raw * RespondentCount / RawSum, so the normalized weights sum to the
	// respondent count.
	Normalized []float64

	// RespondentCount is the number of rows flagged as respondents.
	RespondentCount int

	// RawSum is the sum of Raw over respondent rows.
	RawSum float64
}

// Derive converts fitted response propensities into normalized case weights.
//
// Preconditions: respondent and propensities must have equal length, and
// every propensity must lie in (0,1) strictly on the respondent rows that
// feed the weights - a propensity of exactly 0 is degenerate by contract,
// and a propensity of 1 makes the raw weight non-finite. Both are rejected
// with the offending row index. Either failure aborts the whole derivation;
// no partial result is returned.
func Derive(respondent []bool, propensities []float64) (*Weights, error) {
	if len(respondent) != len(propensities) {
		return nil, core.NewDimensionMismatchError("propensities", len(propensities), len(respondent))
	}
	if len(respondent) == 0 {
		return nil, core.ErrEmptyRespondentGroup
	}

	raw := make([]float64, len(propensities))
	for i, p := range propensities {
		if p <= 0 {
			return nil, core.NewDegenerateProbabilityError(i, p)
		}
		missingProb := 1 - p
		if respondent[i] && missingProb <= 0 {
			return nil, core.NewDegenerateProbabilityError(i, p)
		}
		raw[i] = 1 / missingProb
	}

	// First pass: respondent-group count and raw-weight mass.
	var (
		count int
		sum   float64
	)
	for i, r := range respondent {
		if !r {
			continue
		}
		count++
		sum += raw[i]
	}
	if count == 0 || sum == 0 {
		return nil, core.ErrEmptyRespondentGroup
	}

	// Second pass: redistribute respondent mass back to the group size.
	normalized := make([]float64, len(raw))
	scale := float64(count) / sum
	for i, r := range respondent {
		if r {
			normalized[i] = raw[i] * scale
		}
	}

	return &Weights{
		Raw:             raw,
		Normalized:      normalized,
		RespondentCount: count,
		RawSum:          sum,
	}, nil
}

// Uniform returns a weight vector of n copies of c. Comparative reporting
// uses Uniform(n, 1) as the unweighted arm.
func Uniform(n int, c float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = c
	}
	return w
}

// Sum returns the total of a weight vector, ignoring nothing; NaNs propagate.
func Sum(weights []float64) float64 {
	var s float64
	for _, w := range weights {
		s += w
	}
	return s
}

// CheckMassInvariant verifies that the normalized weights sum to the
// respondent count within the given relative tolerance.
func (w *Weights) CheckMassInvariant(relTol float64) bool {
	total := Sum(w.Normalized)
	want := float64(w.RespondentCount)
	if want == 0 {
		return total == 0
	}
	return math.Abs(total-want)/want <= relTol
}
