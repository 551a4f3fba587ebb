// Package probit fits a probit regression of a binary response indicator on
// fully observed covariates by iteratively reweighted least squares, and
// implements the PropensityFitter port. It is deliberately not a
// general-purpose GLM: one family, one link, dense in-memory data.
package probit

import (
	"context"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"

	"surveyweight/domain/core"
)

// Fitter estimates response propensities under a probit link.
type Fitter struct {
	maxIter int
	devTol  float64
	verbose bool
}

// NewFitter creates a fitter with the default iteration budget.
func NewFitter() *Fitter {
	return &Fitter{maxIter: 100, devTol: 1e-8}
}

// MaxIter sets the IRLS iteration budget.
func (f *Fitter) MaxIter(n int) *Fitter {
	f.maxIter = n
	return f
}

// Verbose enables per-iteration deviance logging.
func (f *Fitter) Verbose(v bool) *Fitter {
	f.verbose = v
	return f
}

// Fit returns the fitted probability of response for every row. The
// indicator must be coded 0/1; covariates are column-major and must each
// match the indicator length. Callers supply their own intercept column.
func (f *Fitter) Fit(ctx context.Context, indicator []float64, covariates [][]float64, names []string) ([]float64, error) {
	n := len(indicator)
	nvar := len(covariates)

	if nvar == 0 {
		return nil, fmt.Errorf("%w: no covariates", core.ErrInsufficientData)
	}
	if len(names) != nvar {
		return nil, core.NewDimensionMismatchError("names", len(names), nvar)
	}
	for j, col := range covariates {
		if len(col) != n {
			return nil, core.NewDimensionMismatchError(names[j], len(col), n)
		}
	}
	if n <= nvar {
		return nil, fmt.Errorf("%w: %d rows for %d parameters", core.ErrInsufficientData, n, nvar)
	}
	for i, y := range indicator {
		if y != 0 && y != 1 {
			return nil, fmt.Errorf("indicator must be coded 0/1, row %d has %g", i, y)
		}
	}

	params, err := f.fitIRLS(ctx, indicator, covariates)
	if err != nil {
		return nil, err
	}

	// Fitted propensities from the converged linear predictor.
	linpred := make([]float64, n)
	for j := range covariates {
		for i := range linpred {
			linpred[i] += covariates[j][i] * params[j]
		}
	}
	fitted := make([]float64, n)
	probitInvLink(linpred, fitted)
	return fitted, nil
}

func (f *Fitter) fitIRLS(ctx context.Context, yda []float64, xdat [][]float64) ([]float64, error) {
	n := len(yda)
	nvar := len(xdat)

	linpred := make([]float64, n)
	mn := make([]float64, n)
	va := make([]float64, n)
	lderiv := make([]float64, n)
	irlsw := make([]float64, n)
	adjy := make([]float64, n)

	xty := make([]float64, nvar)
	xtx := make([]float64, nvar*nvar)

	params := make([]float64, nvar)

	var nparam mat.VecDense
	var dev []float64

	for iter := 0; iter < f.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		zero(xtx)
		zero(xty)

		zero(linpred)
		for j := range xdat {
			for i := range linpred {
				linpred[i] += xdat[j][i] * params[j]
			}
		}

		if iter == 0 {
			startingMu(yda, mn)
		} else {
			probitInvLink(linpred, mn)
		}

		probitLinkDeriv(mn, lderiv)
		binomialVariance(mn, va)

		devi := binomialDeviance(yda, mn)

		// Weights and adjusted response for the inner WLS step.
		for i := range yda {
			irlsw[i] = 1 / (lderiv[i] * lderiv[i] * va[i])
			adjy[i] = linpred[i] + lderiv[i]*(yda[i]-mn[i])
		}

		// Weighted moment matrices.
		for j1 := 0; j1 < nvar; j1++ {
			xda := xdat[j1]
			var u float64
			for i := range adjy {
				u += adjy[i] * xda[i] * irlsw[i]
			}
			xty[j1] = u

			for j2 := 0; j2 <= j1; j2++ {
				xdb := xdat[j2]
				var v float64
				for i := range xda {
					v += xda[i] * xdb[i] * irlsw[i]
				}
				xtx[j1*nvar+j2] = v
				xtx[j2*nvar+j1] = v
			}
		}

		xtxm := mat.NewDense(nvar, nvar, xtx)
		xtyv := mat.NewVecDense(nvar, xty)
		if err := nparam.SolveVec(xtxm, xtyv); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSingularFit, err)
		}
		copy(params, nparam.RawVector().Data)

		if f.verbose {
			log.Printf("[Probit] iteration %d: deviance=%.10f", iter+1, devi)
		}

		dev = append(dev, devi)
		if len(dev) > 3 && math.Abs(dev[len(dev)-1]-dev[len(dev)-2]) < f.devTol {
			return params, nil
		}
	}

	return nil, fmt.Errorf("%w: deviance still moving after %d iterations", core.ErrFitDiverged, f.maxIter)
}

// startingMu seeds the means the way binomial IRLS conventionally does,
// shrinking each observation halfway toward one-half.
func startingMu(y []float64, mn []float64) {
	for i := range y {
		mn[i] = (y[i] + 0.5) / 2
		if mn[i] < 0.1 {
			mn[i] = 0.1
		}
	}
}

// binomialDeviance is 2*sum(y log(y/mu) + (1-y) log((1-y)/(1-mu))) with the
// 0*log(0) terms dropped.
func binomialDeviance(y, mu []float64) float64 {
	var dev float64
	for i := range y {
		m := clampMu(mu[i])
		if y[i] == 1 {
			dev += math.Log(m)
		} else {
			dev += math.Log(1 - m)
		}
	}
	return -2 * dev
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
