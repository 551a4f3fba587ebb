// Package analysis defines the structured output of one weighting run: the
// paired weighted/unweighted estimates, the weight summary, and enough
// context to replay the run. Rendering is the report adapter's job.
package analysis

import (
	"surveyweight/domain/core"
	"surveyweight/domain/survey"
	"surveyweight/domain/weighting"
	"surveyweight/domain/weightstats"
)

// WeightSummary captures the derived weights at group level.
type WeightSummary struct {
	RespondentCount int     `json:"respondent_count"`
	NonRespondents  int     `json:"non_respondents"`
	RawSum          float64 `json:"raw_sum"`
	NormalizedSum   float64 `json:"normalized_sum"`
	MinNormalized   float64 `json:"min_normalized"`
	MaxNormalized   float64 `json:"max_normalized"`
}

// NewWeightSummary condenses a derived weight set. Min and max are taken
// over respondent rows only; non-respondents sit at zero by construction.
func NewWeightSummary(w *weighting.Weights, rows int) WeightSummary {
	s := WeightSummary{
		RespondentCount: w.RespondentCount,
		NonRespondents:  rows - w.RespondentCount,
		RawSum:          w.RawSum,
		NormalizedSum:   weighting.Sum(w.Normalized),
	}

	first := true
	for _, v := range w.Normalized {
		if v == 0 {
			continue
		}
		if first || v < s.MinNormalized {
			s.MinNormalized = v
		}
		if first || v > s.MaxNormalized {
			s.MaxNormalized = v
		}
		first = false
	}
	return s
}

// Report is the complete result of one analysis run.
type Report struct {
	RunID     core.RunID     `json:"run_id"`
	CreatedAt core.Timestamp `json:"created_at"`

	Indicator  core.VariableKey   `json:"indicator"`
	Covariates []core.VariableKey `json:"covariates"`
	Rows       int                `json:"rows"`

	Weights  WeightSummary          `json:"weights"`
	Profiles []survey.ColumnProfile `json:"profiles,omitempty"`

	Means        []weightstats.MeanComparison        `json:"means"`
	Correlations []weightstats.CorrelationComparison `json:"correlations"`
	Regression   *weightstats.RegressionComparison   `json:"regression,omitempty"`

	RuntimeMs int64 `json:"runtime_ms"`
}

// FailedStatistics counts comparison entries that carry an error.
func (r *Report) FailedStatistics() int {
	n := 0
	for _, m := range r.Means {
		if m.Error != "" {
			n++
		}
	}
	for _, c := range r.Correlations {
		if c.Error != "" {
			n++
		}
	}
	if r.Regression != nil && r.Regression.Error != "" {
		n++
	}
	return n
}
