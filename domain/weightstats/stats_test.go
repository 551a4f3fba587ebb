package weightstats

import (
	"context"
	"errors"
	"math"
	"testing"

	"surveyweight/domain/core"
	"surveyweight/domain/weighting"
)

const tol = 1e-9

func TestMean_Weighted(t *testing.T) {
	values := []float64{2, 4, 6}
	weights := []float64{1, 1, 2}

	got, err := Mean(values, weights)
	if err != nil {
		t.Fatalf("Mean failed: %v", err)
	}
	want := (2 + 4 + 12) / 4.0
	if math.Abs(got-want) > tol {
		t.Errorf("Mean = %f, want %f", got, want)
	}
}

// TestMean_EqualWeights verifies that a constant weight vector reproduces the
// plain arithmetic mean regardless of the constant.
func TestMean_EqualWeights(t *testing.T) {
	values := []float64{1.5, -2, 7, 3.25, 0}
	plain := 0.0
	for _, v := range values {
		plain += v
	}
	plain /= float64(len(values))

	for _, c := range []float64{1, 0.25, 17.5} {
		got, err := Mean(values, weighting.Uniform(len(values), c))
		if err != nil {
			t.Fatalf("Mean with constant weight %f failed: %v", c, err)
		}
		if math.Abs(got-plain) > tol {
			t.Errorf("Mean with constant weight %f = %f, want %f", c, got, plain)
		}
	}
}

func TestMean_ZeroWeightSum(t *testing.T) {
	_, err := Mean([]float64{1, 2}, []float64{0, 0})
	if !errors.Is(err, core.ErrZeroWeightSum) {
		t.Errorf("got %v, want ErrZeroWeightSum", err)
	}
}

func TestMean_DimensionMismatch(t *testing.T) {
	_, err := Mean([]float64{1, 2, 3}, []float64{1})
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

// unweightedPearson is the textbook single-pass formula, kept independent of
// the weighted implementation under test.
func unweightedPearson(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	num := n*sumXY - sumX*sumY
	den := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	return num / den
}

func TestPearsonCorrelation_UniformWeightsMatchUnweighted(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7}
	y := []float64{2.1, 3.9, 6.2, 8.1, 9.7, 12.3, 13.8}

	want := unweightedPearson(x, y)
	for _, c := range []float64{1, 3, 0.5} {
		got, err := PearsonCorrelation(x, y, weighting.Uniform(len(x), c))
		if err != nil {
			t.Fatalf("PearsonCorrelation failed: %v", err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("weighted Pearson with uniform weight %f = %f, want %f", c, got, want)
		}
	}
}

func TestPearsonCorrelation_Bounds(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}
	w := []float64{1, 2, 1, 0.5}

	got, err := PearsonCorrelation(x, y, w)
	if err != nil {
		t.Fatalf("PearsonCorrelation failed: %v", err)
	}
	if math.Abs(got-1) > tol {
		t.Errorf("exact linear relation: r = %f, want 1", got)
	}
}

func TestPearsonCorrelation_Errors(t *testing.T) {
	_, err := PearsonCorrelation([]float64{1, 2}, []float64{1, 2}, []float64{0, 0})
	if !errors.Is(err, core.ErrZeroWeightSum) {
		t.Errorf("got %v, want ErrZeroWeightSum", err)
	}

	_, err = PearsonCorrelation([]float64{1, 2}, []float64{1}, []float64{1, 1})
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}

	// Constant variable has no defined correlation.
	_, err = PearsonCorrelation([]float64{3, 3, 3}, []float64{1, 2, 3}, []float64{1, 1, 1})
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData for zero variance", err)
	}
}

func TestCompareMeans(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	weights := []float64{2, 1, 1, 0}

	cmp, err := CompareMeans(core.VariableKey("income"), values, weights)
	if err != nil {
		t.Fatalf("CompareMeans failed: %v", err)
	}
	if math.Abs(cmp.Unweighted-25) > tol {
		t.Errorf("Unweighted = %f, want 25", cmp.Unweighted)
	}
	want := (20.0 + 20 + 30) / 4.0
	if math.Abs(cmp.Weighted-want) > tol {
		t.Errorf("Weighted = %f, want %f", cmp.Weighted, want)
	}
	if cmp.Variable != core.VariableKey("income") {
		t.Errorf("Variable = %s, want income", cmp.Variable)
	}
}

// stubSolver records the weight vectors it was handed.
type stubSolver struct {
	calls [][]float64
}

func (s *stubSolver) Solve(_ context.Context, y []float64, _ [][]float64, names []string, weights []float64) (*Fit, error) {
	w := make([]float64, len(weights))
	copy(w, weights)
	s.calls = append(s.calls, w)

	coeffs := make([]Coefficient, len(names))
	for i, n := range names {
		coeffs[i] = Coefficient{Name: n}
	}
	return &Fit{Coefficients: coeffs, Observations: len(y)}, nil
}

func TestCompareRegressions_ThreadsWeights(t *testing.T) {
	solver := &stubSolver{}
	y := []float64{1, 2, 3}
	x := [][]float64{{1, 1, 1}, {0.5, 1.5, 2.5}}
	keys := []core.VariableKey{"intercept", "age"}
	weights := []float64{0.5, 2, 0.5}

	cmp, err := CompareRegressions(context.Background(), solver, core.VariableKey("income"), y, x, keys, weights)
	if err != nil {
		t.Fatalf("CompareRegressions failed: %v", err)
	}

	if len(solver.calls) != 2 {
		t.Fatalf("solver called %d times, want 2", len(solver.calls))
	}
	for i, w := range solver.calls[0] {
		if w != 1 {
			t.Errorf("unweighted arm weight[%d] = %f, want 1", i, w)
		}
	}
	for i, w := range solver.calls[1] {
		if w != weights[i] {
			t.Errorf("weighted arm weight[%d] = %f, want %f", i, w, weights[i])
		}
	}

	if cmp.Unweighted == nil || cmp.Weighted == nil {
		t.Fatal("comparison must carry both fits")
	}
	if cmp.Outcome != core.VariableKey("income") {
		t.Errorf("Outcome = %s, want income", cmp.Outcome)
	}
}
