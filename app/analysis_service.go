package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"surveyweight/domain/analysis"
	"surveyweight/domain/core"
	"surveyweight/domain/survey"
	"surveyweight/domain/weighting"
	"surveyweight/domain/weightstats"
	"surveyweight/ports"
)

// AnalysisService runs the full weighting pipeline: propensity fit, weight
// derivation, and the weighted/unweighted comparison battery.
type AnalysisService struct {
	fitter ports.PropensityFitter
	solver ports.RegressionSolver
	runs   ports.RunRepository // optional
}

// AnalysisRequest defines one analysis run over a loaded frame.
type AnalysisRequest struct {
	Frame      *survey.Frame
	Indicator  core.VariableKey   // respondent indicator source column
	Covariates []core.VariableKey // propensity model covariates, fully observed

	MeanVars         []core.VariableKey    // outcome variables for mean comparisons
	CorrelationPairs [][2]core.VariableKey // outcome pairs for correlation comparisons

	Outcome    core.VariableKey   // regression outcome; empty disables the regression
	Predictors []core.VariableKey // regression predictors, intercept added automatically

	Profile bool       // include per-column profiles in the report
	RunID   core.RunID // optional, generated when empty
}

// NewAnalysisService creates an analysis service. The run repository may be
// nil, in which case reports are not persisted.
func NewAnalysisService(fitter ports.PropensityFitter, solver ports.RegressionSolver, runs ports.RunRepository) *AnalysisService {
	return &AnalysisService{fitter: fitter, solver: solver, runs: runs}
}

// Run executes the pipeline. Weight-derivation failures abort the run; a
// failure inside one comparison statistic is recorded on that entry and the
// siblings still complete.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*analysis.Report, error) {
	started := time.Now()

	if req.Frame == nil {
		return nil, fmt.Errorf("%w: no frame", core.ErrInsufficientData)
	}
	if err := req.Frame.Validate(); err != nil {
		return nil, err
	}

	respondent, err := req.Frame.ResponseIndicator(req.Indicator)
	if err != nil {
		return nil, err
	}
	if err := req.Frame.CheckFullyObserved(req.Covariates); err != nil {
		return nil, err
	}

	propensities, err := s.fitPropensities(ctx, req, respondent)
	if err != nil {
		return nil, fmt.Errorf("propensity fit failed: %w", err)
	}

	weights, err := weighting.Derive(respondent, propensities)
	if err != nil {
		return nil, err
	}
	log.Printf("[Analysis] derived weights: %d respondents, raw sum %.4f",
		weights.RespondentCount, weights.RawSum)

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}
	report := &analysis.Report{
		RunID:      runID,
		CreatedAt:  core.Now(),
		Indicator:  req.Indicator,
		Covariates: req.Covariates,
		Rows:       req.Frame.RowCount(),
		Weights:    analysis.NewWeightSummary(weights, req.Frame.RowCount()),
	}
	if req.Profile {
		report.Profiles = req.Frame.Profile()
	}

	if err := s.runComparisons(ctx, req, respondent, weights, report); err != nil {
		return nil, err
	}

	report.RuntimeMs = time.Since(started).Milliseconds()

	if s.runs != nil {
		if err := s.runs.Save(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to persist run: %w", err)
		}
	}
	return report, nil
}

func (s *AnalysisService) fitPropensities(ctx context.Context, req AnalysisRequest, respondent []bool) ([]float64, error) {
	indicator := make([]float64, len(respondent))
	for i, r := range respondent {
		if r {
			indicator[i] = 1
		}
	}

	cols, err := req.Frame.Columns(req.Covariates)
	if err != nil {
		return nil, err
	}

	covariates := make([][]float64, 0, len(cols)+1)
	names := make([]string, 0, len(cols)+1)
	covariates = append(covariates, weighting.Uniform(len(indicator), 1))
	names = append(names, "intercept")
	for i, col := range cols {
		covariates = append(covariates, col)
		names = append(names, req.Covariates[i].String())
	}

	return s.fitter.Fit(ctx, indicator, covariates, names)
}

// runComparisons fans out over the independent statistics. Each entry is
// written by exactly one goroutine; failures land in the entry's Error field
// so siblings are unaffected.
func (s *AnalysisService) runComparisons(ctx context.Context, req AnalysisRequest,
	respondent []bool, weights *weighting.Weights, report *analysis.Report) error {

	report.Means = make([]weightstats.MeanComparison, len(req.MeanVars))
	report.Correlations = make([]weightstats.CorrelationComparison, len(req.CorrelationPairs))

	g, gctx := errgroup.WithContext(ctx)

	for i, key := range req.MeanVars {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values, err := req.Frame.Column(key)
			if err != nil {
				report.Means[i] = weightstats.MeanComparison{Variable: key, Error: err.Error()}
				return nil
			}
			vals, w := respondentSubset(values, nil, respondent, weights.Normalized)
			cmp, err := weightstats.CompareMeans(key, vals, w)
			if err != nil {
				report.Means[i] = weightstats.MeanComparison{Variable: key, Error: err.Error()}
				return nil
			}
			report.Means[i] = *cmp
			return nil
		})
	}

	for i, pair := range req.CorrelationPairs {
		i, pair := i, pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := weightstats.CorrelationComparison{VariableX: pair[0], VariableY: pair[1]}
			x, err := req.Frame.Column(pair[0])
			if err != nil {
				entry.Error = err.Error()
				report.Correlations[i] = entry
				return nil
			}
			y, err := req.Frame.Column(pair[1])
			if err != nil {
				entry.Error = err.Error()
				report.Correlations[i] = entry
				return nil
			}
			xs, w := respondentSubset(x, y, respondent, weights.Normalized)
			ys, _ := respondentSubset(y, x, respondent, weights.Normalized)
			cmp, err := weightstats.CompareCorrelations(pair[0], pair[1], xs, ys, w)
			if err != nil {
				entry.Error = err.Error()
				report.Correlations[i] = entry
				return nil
			}
			report.Correlations[i] = *cmp
			return nil
		})
	}

	if req.Outcome != "" {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Regression = s.regressionComparison(gctx, req, respondent, weights)
			return nil
		})
	}

	return g.Wait()
}

func (s *AnalysisService) regressionComparison(ctx context.Context, req AnalysisRequest,
	respondent []bool, weights *weighting.Weights) *weightstats.RegressionComparison {

	entry := &weightstats.RegressionComparison{Outcome: req.Outcome}

	y, err := req.Frame.Column(req.Outcome)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	cols, err := req.Frame.Columns(req.Predictors)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	ySub, wSub := respondentSubset(y, nil, respondent, weights.Normalized)

	keys := make([]core.VariableKey, 0, len(req.Predictors)+1)
	predictors := make([][]float64, 0, len(req.Predictors)+1)
	keys = append(keys, core.VariableKey("intercept"))
	predictors = append(predictors, weighting.Uniform(len(ySub), 1))
	for i, col := range cols {
		sub, _ := respondentSubset(col, y, respondent, weights.Normalized)
		keys = append(keys, req.Predictors[i])
		predictors = append(predictors, sub)
	}
	entry.Predictors = keys

	cmp, err := weightstats.CompareRegressions(ctx, s.solver, req.Outcome, ySub, predictors, keys, wSub)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	return cmp
}

// respondentSubset keeps the respondent rows where primary (and, when given,
// companion) are observed, returning the values and the matching weights.
// Outcomes are only guaranteed for respondents, so every statistic runs over
// this subset; the weighted arm would otherwise multiply NaN by zero.
func respondentSubset(primary, companion []float64, respondent []bool, weights []float64) ([]float64, []float64) {
	vals := make([]float64, 0, len(primary))
	w := make([]float64, 0, len(primary))
	for i, r := range respondent {
		if !r || math.IsNaN(primary[i]) {
			continue
		}
		if companion != nil && math.IsNaN(companion[i]) {
			continue
		}
		vals = append(vals, primary[i])
		w = append(w, weights[i])
	}
	return vals, w
}
