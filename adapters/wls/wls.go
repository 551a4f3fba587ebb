// Package wls solves weighted least-squares problems and implements the
// RegressionSolver port. Each row's residual contribution is scaled by its
// weight, so minimising sum(w*(y-Xb)^2); zero-weight rows drop out of both
// the fit and the degrees of freedom. The normal-equations solve and the
// covariance inversion are delegated to gonum.
package wls

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"surveyweight/domain/core"
	"surveyweight/domain/weightstats"
)

// Solver is a stateless weighted least-squares solver.
type Solver struct {
	confidence float64
}

// NewSolver creates a solver producing 95% confidence intervals.
func NewSolver() *Solver {
	return &Solver{confidence: 0.95}
}

// Confidence sets the confidence level for coefficient intervals.
func (s *Solver) Confidence(level float64) *Solver {
	s.confidence = level
	return s
}

// Solve fits y on the column-major predictors under the given case weights.
func (s *Solver) Solve(ctx context.Context, y []float64, predictors [][]float64, names []string, weights []float64) (*weightstats.Fit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(y)
	p := len(predictors)
	if p == 0 {
		return nil, fmt.Errorf("%w: no predictors", core.ErrInsufficientData)
	}
	if len(names) != p {
		return nil, core.NewDimensionMismatchError("names", len(names), p)
	}
	if len(weights) != n {
		return nil, core.NewDimensionMismatchError("weights", len(weights), n)
	}
	for j, col := range predictors {
		if len(col) != n {
			return nil, core.NewDimensionMismatchError(names[j], len(col), n)
		}
	}

	var wsum float64
	used := 0
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative weight %g at row %d", w, i)
		}
		if w > 0 {
			used++
		}
		wsum += w
	}
	if wsum == 0 {
		return nil, core.ErrZeroWeightSum
	}
	if used <= p {
		return nil, fmt.Errorf("%w: %d weighted rows for %d parameters", core.ErrInsufficientData, used, p)
	}

	// Weighted moment matrices X'WX and X'Wy.
	xtx := make([]float64, p*p)
	xty := make([]float64, p)
	for j1 := 0; j1 < p; j1++ {
		xa := predictors[j1]
		var u float64
		for i := range y {
			u += weights[i] * xa[i] * y[i]
		}
		xty[j1] = u
		for j2 := 0; j2 <= j1; j2++ {
			xb := predictors[j2]
			var v float64
			for i := range xa {
				v += weights[i] * xa[i] * xb[i]
			}
			xtx[j1*p+j2] = v
			xtx[j2*p+j1] = v
		}
	}

	xtxm := mat.NewDense(p, p, xtx)
	xtyv := mat.NewVecDense(p, xty)

	var beta mat.VecDense
	if err := beta.SolveVec(xtxm, xtyv); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularFit, err)
	}
	coeffs := beta.RawVector().Data

	// Weighted residual and total sums of squares.
	var rss, tss, ybar float64
	for i := range y {
		ybar += weights[i] * y[i]
	}
	ybar /= wsum
	for i := range y {
		var fit float64
		for j := 0; j < p; j++ {
			fit += predictors[j][i] * coeffs[j]
		}
		r := y[i] - fit
		rss += weights[i] * r * r
		d := y[i] - ybar
		tss += weights[i] * d * d
	}

	df := used - p
	sigma2 := rss / float64(df)

	// vcov = sigma^2 * (X'WX)^-1.
	var inv mat.Dense
	if err := inv.Inverse(xtxm); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularFit, err)
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	tcrit := tdist.Quantile(1 - (1-s.confidence)/2)

	out := make([]weightstats.Coefficient, p)
	for j := 0; j < p; j++ {
		se := math.Sqrt(sigma2 * inv.At(j, j))
		est := coeffs[j]
		c := weightstats.Coefficient{
			Name:     names[j],
			Estimate: est,
			StdErr:   se,
		}
		if se > 0 {
			c.TStat = est / se
			c.PValue = 2 * (1 - tdist.CDF(math.Abs(c.TStat)))
			c.CILower = est - tcrit*se
			c.CIUpper = est + tcrit*se
		}
		out[j] = c
	}

	rsq := 0.0
	if tss > 0 {
		rsq = 1 - rss/tss
	}

	return &weightstats.Fit{
		Coefficients: out,
		RSquared:     rsq,
		ResidualDF:   df,
		Observations: used,
		WeightSum:    wsum,
	}, nil
}
