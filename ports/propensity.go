package ports

import (
	"context"
)

// PropensityFitter fits a binary response indicator against fully observed
// covariates and returns the per-row fitted probability of response, aligned
// with the input order. The numerical estimation (iteratively reweighted
// least squares under a probit link, or any equivalent) is entirely the
// implementation's concern.
type PropensityFitter interface {
	Fit(ctx context.Context, indicator []float64, covariates [][]float64, names []string) ([]float64, error)
}
