package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyweight/domain/analysis"
	"surveyweight/domain/core"
	"surveyweight/domain/weightstats"
)

func sampleReport() *analysis.Report {
	return &analysis.Report{
		RunID:      core.RunID("run-42"),
		CreatedAt:  core.Now(),
		Indicator:  core.VariableKey("respond"),
		Covariates: []core.VariableKey{"age", "education"},
		Rows:       20,
		Weights: analysis.WeightSummary{
			RespondentCount: 10,
			NonRespondents:  10,
			RawSum:          50,
			NormalizedSum:   10,
			MinNormalized:   1,
			MaxNormalized:   1,
		},
		Means: []weightstats.MeanComparison{
			{Variable: "income", Unweighted: 51000, Weighted: 49750.25},
			{Variable: "hours", Error: "weights sum to zero"},
		},
		Correlations: []weightstats.CorrelationComparison{
			{VariableX: "income", VariableY: "hours", Unweighted: 0.42, Weighted: 0.39},
		},
		Regression: &weightstats.RegressionComparison{
			Outcome:    "income",
			Predictors: []core.VariableKey{"intercept", "age"},
			Unweighted: &weightstats.Fit{
				Coefficients: []weightstats.Coefficient{
					{Name: "intercept", Estimate: 30000, StdErr: 1200, TStat: 25, PValue: 0.0001, CILower: 27500, CIUpper: 32500},
					{Name: "age", Estimate: 480, StdErr: 50, TStat: 9.6, PValue: 0.0001, CILower: 377, CIUpper: 583},
				},
				RSquared: 0.61, ResidualDF: 8, Observations: 10,
			},
			Weighted: &weightstats.Fit{
				Coefficients: []weightstats.Coefficient{
					{Name: "intercept", Estimate: 29500, StdErr: 1300, TStat: 22.7, PValue: 0.0001, CILower: 26800, CIUpper: 32200},
					{Name: "age", Estimate: 495, StdErr: 55, TStat: 9.0, PValue: 0.0001, CILower: 382, CIUpper: 608},
				},
				RSquared: 0.59, ResidualDF: 8, Observations: 10,
			},
		},
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	err := NewRenderer().Render(&sb, sampleReport())
	require.NoError(t, err)
	out := sb.String()

	assert.Contains(t, out, "Response-Propensity Weighting Analysis")
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "age, education")
	assert.Contains(t, out, "Respondents:     10")
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "failed: weights sum to zero")
	assert.Contains(t, out, "income ~ hours")
	assert.Contains(t, out, "Unweighted (OLS)")
	assert.Contains(t, out, "Weighted (WLS, normalized propensity weights)")
	assert.Contains(t, out, "1 statistic(s) failed")
}

func TestRender_MinimalReport(t *testing.T) {
	rep := &analysis.Report{
		RunID:     core.RunID("run-1"),
		CreatedAt: core.Now(),
		Indicator: core.VariableKey("respond"),
		Rows:      4,
	}

	var sb strings.Builder
	err := NewRenderer().Render(&sb, rep)
	require.NoError(t, err)
	assert.NotContains(t, sb.String(), "Means:")
	assert.NotContains(t, sb.String(), "Regression:")
}
