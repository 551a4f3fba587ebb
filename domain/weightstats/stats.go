// Package weightstats computes weighted summary statistics using normalized
// case weights, and pairs every weighted estimate with its unweighted
// counterpart for side-by-side inspection. The regression solve itself is a
// collaborator behind the RegressionSolver interface; this package owns the
// contract for how weights are threaded through it.
package weightstats

import (
	"fmt"
	"math"

	"surveyweight/domain/core"
)

// Mean returns the weighted arithmetic mean sum(w*v)/sum(w).
func Mean(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, core.NewDimensionMismatchError("weights", len(weights), len(values))
	}

	var wsum, vsum float64
	for i, v := range values {
		wsum += weights[i]
		vsum += weights[i] * v
	}
	if wsum == 0 {
		return 0, core.ErrZeroWeightSum
	}
	return vsum / wsum, nil
}

// PearsonCorrelation returns the weighted Pearson correlation coefficient:
// the weighted covariance over the product of weighted standard deviations.
// With uniform weights this reduces to the standard unweighted coefficient.
func PearsonCorrelation(x, y, weights []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, core.NewDimensionMismatchError("y", len(y), len(x))
	}
	if len(x) != len(weights) {
		return 0, core.NewDimensionMismatchError("weights", len(weights), len(x))
	}

	var wsum float64
	for _, w := range weights {
		wsum += w
	}
	if wsum == 0 {
		return 0, core.ErrZeroWeightSum
	}

	var mx, my float64
	for i := range x {
		mx += weights[i] * x[i]
		my += weights[i] * y[i]
	}
	mx /= wsum
	my /= wsum

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		cov += weights[i] * dx * dy
		varX += weights[i] * dx * dx
		varY += weights[i] * dy * dy
	}

	den := math.Sqrt(varX * varY)
	if den == 0 {
		return 0, fmt.Errorf("%w: a variable has zero weighted variance", core.ErrInsufficientData)
	}
	return cov / den, nil
}

// Variance returns the weighted population variance about the weighted mean.
func Variance(values, weights []float64) (float64, error) {
	m, err := Mean(values, weights)
	if err != nil {
		return 0, err
	}
	var wsum, acc float64
	for i, v := range values {
		d := v - m
		acc += weights[i] * d * d
		wsum += weights[i]
	}
	return acc / wsum, nil
}
