package weightstats

import (
	"context"

	"surveyweight/domain/core"
	"surveyweight/domain/weighting"
)

// RegressionSolver is the contract for the external least-squares
// collaborator. Implementations minimise sum(w * (y - Xb)^2); a constant
// positive weight vector must reproduce the unweighted OLS fit within
// floating-point tolerance, independent of the constant.
type RegressionSolver interface {
	Solve(ctx context.Context, y []float64, predictors [][]float64, names []string, weights []float64) (*Fit, error)
}

// Coefficient is one fitted regression term.
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	TStat    float64 `json:"t_stat"`
	PValue   float64 `json:"p_value"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// Fit is the structured result of a (weighted) least-squares solve.
type Fit struct {
	Coefficients []Coefficient `json:"coefficients"`
	RSquared     float64       `json:"r_squared"`
	ResidualDF   int           `json:"residual_df"`
	Observations int           `json:"observations"`
	WeightSum    float64       `json:"weight_sum"`
}

// MeanComparison pairs the unweighted and weighted mean of one variable.
type MeanComparison struct {
	Variable   core.VariableKey `json:"variable"`
	Unweighted float64          `json:"unweighted"`
	Weighted   float64          `json:"weighted"`
	Error      string           `json:"error,omitempty"`
}

// CorrelationComparison pairs the unweighted and weighted Pearson coefficient
// of one variable pair.
type CorrelationComparison struct {
	VariableX  core.VariableKey `json:"variable_x"`
	VariableY  core.VariableKey `json:"variable_y"`
	Unweighted float64          `json:"unweighted"`
	Weighted   float64          `json:"weighted"`
	Error      string           `json:"error,omitempty"`
}

// RegressionComparison pairs the unweighted and weighted fit of one formula.
type RegressionComparison struct {
	Outcome    core.VariableKey   `json:"outcome"`
	Predictors []core.VariableKey `json:"predictors"`
	Unweighted *Fit               `json:"unweighted,omitempty"`
	Weighted   *Fit               `json:"weighted,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// CompareMeans computes the mean of values twice: once with unit weights and
// once with the supplied weights.
func CompareMeans(variable core.VariableKey, values, weights []float64) (*MeanComparison, error) {
	unweighted, err := Mean(values, weighting.Uniform(len(values), 1))
	if err != nil {
		return nil, err
	}
	weighted, err := Mean(values, weights)
	if err != nil {
		return nil, err
	}
	return &MeanComparison{
		Variable:   variable,
		Unweighted: unweighted,
		Weighted:   weighted,
	}, nil
}

// CompareCorrelations computes the Pearson coefficient of (x, y) twice: once
// with unit weights and once with the supplied weights.
func CompareCorrelations(varX, varY core.VariableKey, x, y, weights []float64) (*CorrelationComparison, error) {
	unweighted, err := PearsonCorrelation(x, y, weighting.Uniform(len(x), 1))
	if err != nil {
		return nil, err
	}
	weighted, err := PearsonCorrelation(x, y, weights)
	if err != nil {
		return nil, err
	}
	return &CorrelationComparison{
		VariableX:  varX,
		VariableY:  varY,
		Unweighted: unweighted,
		Weighted:   weighted,
	}, nil
}

// CompareRegressions invokes the solver twice, once with unit weights and
// once with the supplied weights, and pairs the fits.
func CompareRegressions(ctx context.Context, solver RegressionSolver, outcome core.VariableKey,
	y []float64, predictors [][]float64, predictorKeys []core.VariableKey, weights []float64) (*RegressionComparison, error) {

	names := make([]string, len(predictorKeys))
	for i, k := range predictorKeys {
		names[i] = k.String()
	}

	unweighted, err := solver.Solve(ctx, y, predictors, names, weighting.Uniform(len(y), 1))
	if err != nil {
		return nil, err
	}
	weighted, err := solver.Solve(ctx, y, predictors, names, weights)
	if err != nil {
		return nil, err
	}

	return &RegressionComparison{
		Outcome:    outcome,
		Predictors: predictorKeys,
		Unweighted: unweighted,
		Weighted:   weighted,
	}, nil
}
