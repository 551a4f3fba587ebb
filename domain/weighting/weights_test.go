package weighting

import (
	"errors"
	"math"
	"strings"
	"testing"

	"surveyweight/domain/core"
)

const relTol = 1e-9

func almostEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return false
	}
	return math.Abs(a-b)/scale <= tol
}

// TestDerive_TextbookScenario reproduces the worked example: 10 respondents
// with fitted response probability 0.8 and 10 non-respondents.
func TestDerive_TextbookScenario(t *testing.T) {
	n := 20
	respondent := make([]bool, n)
	propensities := make([]float64, n)
	for i := 0; i < n; i++ {
		respondent[i] = i < 10
		propensities[i] = 0.8
	}

	w, err := Derive(respondent, propensities)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if w.RespondentCount != 10 {
		t.Errorf("RespondentCount = %d, want 10", w.RespondentCount)
	}
	if !almostEqual(w.RawSum, 50, relTol) {
		t.Errorf("RawSum = %f, want 50", w.RawSum)
	}
	for i := 0; i < n; i++ {
		if !almostEqual(w.Raw[i], 5, relTol) {
			t.Errorf("Raw[%d] = %f, want 5 (1/(1-0.8))", i, w.Raw[i])
		}
	}
	for i := 0; i < 10; i++ {
		if !almostEqual(w.Normalized[i], 1, relTol) {
			t.Errorf("Normalized[%d] = %f, want 1.0", i, w.Normalized[i])
		}
	}
	for i := 10; i < n; i++ {
		if w.Normalized[i] != 0 {
			t.Errorf("Normalized[%d] = %f, want exactly 0 for non-respondent", i, w.Normalized[i])
		}
	}
	if !almostEqual(Sum(w.Normalized), 10, relTol) {
		t.Errorf("sum of normalized weights = %f, want 10", Sum(w.Normalized))
	}
}

// TestDerive_MassInvariant checks sum(Normalized) == respondent count for
// uneven propensities.
func TestDerive_MassInvariant(t *testing.T) {
	respondent := []bool{true, true, true, false, true, false, true}
	propensities := []float64{0.9, 0.5, 0.25, 0.6, 0.75, 0.1, 0.5}

	w, err := Derive(respondent, propensities)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	if w.RespondentCount != 5 {
		t.Fatalf("RespondentCount = %d, want 5", w.RespondentCount)
	}
	if !w.CheckMassInvariant(relTol) {
		t.Errorf("mass invariant violated: sum = %f, count = %d",
			Sum(w.Normalized), w.RespondentCount)
	}
	for i, r := range respondent {
		if !r && w.Normalized[i] != 0 {
			t.Errorf("Normalized[%d] = %f for non-respondent, want 0", i, w.Normalized[i])
		}
	}

	// Raw weights follow 1/(1-p) on every row, respondent or not.
	for i, p := range propensities {
		if !almostEqual(w.Raw[i], 1/(1-p), relTol) {
			t.Errorf("Raw[%d] = %f, want %f", i, w.Raw[i], 1/(1-p))
		}
	}
}

// TestDerive_ReplicationInvariance verifies that weights are a per-unit
// property: replicating the input k times scales group count and raw sum by k
// but leaves every per-row normalized weight unchanged.
func TestDerive_ReplicationInvariance(t *testing.T) {
	respondent := []bool{true, false, true, true}
	propensities := []float64{0.7, 0.4, 0.55, 0.85}

	base, err := Derive(respondent, propensities)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	k := 3
	bigResp := make([]bool, 0, len(respondent)*k)
	bigProp := make([]float64, 0, len(propensities)*k)
	for r := 0; r < k; r++ {
		bigResp = append(bigResp, respondent...)
		bigProp = append(bigProp, propensities...)
	}

	repl, err := Derive(bigResp, bigProp)
	if err != nil {
		t.Fatalf("Derive on replicated input failed: %v", err)
	}

	if repl.RespondentCount != k*base.RespondentCount {
		t.Errorf("replicated RespondentCount = %d, want %d", repl.RespondentCount, k*base.RespondentCount)
	}
	if !almostEqual(repl.RawSum, float64(k)*base.RawSum, relTol) {
		t.Errorf("replicated RawSum = %f, want %f", repl.RawSum, float64(k)*base.RawSum)
	}
	for i := range bigResp {
		if !almostEqual(repl.Normalized[i], base.Normalized[i%len(respondent)], relTol) {
			t.Errorf("Normalized[%d] = %f changed under replication, want %f",
				i, repl.Normalized[i], base.Normalized[i%len(respondent)])
		}
	}
}

func TestDerive_DimensionMismatch(t *testing.T) {
	_, err := Derive([]bool{true, false}, []float64{0.5})
	if !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestDerive_DegenerateProbability(t *testing.T) {
	// A respondent with fitted response probability exactly 0.
	_, err := Derive([]bool{true, true}, []float64{0.5, 0})
	if !errors.Is(err, core.ErrDegenerateProbability) {
		t.Fatalf("got %v, want ErrDegenerateProbability", err)
	}

	// The error carries the offending row index.
	if got := err.Error(); !strings.Contains(got, "row 1") {
		t.Errorf("error %q does not name the offending row", got)
	}

	// A respondent propensity of exactly 1 has no finite raw weight.
	_, err = Derive([]bool{true}, []float64{1})
	if !errors.Is(err, core.ErrDegenerateProbability) {
		t.Errorf("got %v, want ErrDegenerateProbability for p=1", err)
	}

	// p=1 on a non-respondent row never feeds the normalization and is kept
	// as the discarded intermediate, were it finite; since it is not, the
	// computed raw weight is +Inf but derivation still succeeds.
	w, err := Derive([]bool{true, false}, []float64{0.5, 1})
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if !math.IsInf(w.Raw[1], 1) {
		t.Errorf("Raw[1] = %f, want +Inf for discarded non-respondent row", w.Raw[1])
	}
	if w.Normalized[1] != 0 {
		t.Errorf("Normalized[1] = %f, want 0", w.Normalized[1])
	}
}

func TestDerive_EmptyRespondentGroup(t *testing.T) {
	_, err := Derive([]bool{false, false, false}, []float64{0.5, 0.5, 0.5})
	if !errors.Is(err, core.ErrEmptyRespondentGroup) {
		t.Errorf("got %v, want ErrEmptyRespondentGroup", err)
	}

	_, err = Derive(nil, nil)
	if !errors.Is(err, core.ErrEmptyRespondentGroup) {
		t.Errorf("got %v, want ErrEmptyRespondentGroup for empty input", err)
	}
}

func TestUniform(t *testing.T) {
	w := Uniform(4, 2.5)
	if len(w) != 4 {
		t.Fatalf("len = %d, want 4", len(w))
	}
	for i, v := range w {
		if v != 2.5 {
			t.Errorf("w[%d] = %f, want 2.5", i, v)
		}
	}
	if got := Sum(w); got != 10 {
		t.Errorf("Sum = %f, want 10", got)
	}
}
