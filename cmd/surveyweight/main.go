package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"surveyweight/adapters/postgres"
	"surveyweight/adapters/probit"
	"surveyweight/adapters/report"
	"surveyweight/adapters/tabular"
	"surveyweight/adapters/wls"
	"surveyweight/app"
	"surveyweight/domain/core"
	"surveyweight/domain/survey"
	"surveyweight/internal/testkit"
	"surveyweight/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	setupLogOutput()

	rootCmd := &cobra.Command{
		Use:   "surveyweight",
		Short: "Response-propensity weighting for survey nonresponse",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogOutput tees the log to a file when SURVEYWEIGHT_LOG is set.
func setupLogOutput() {
	path := os.Getenv("SURVEYWEIGHT_LOG")
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("Cannot open log file %s: %v", path, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

func newAnalyzeCmd() *cobra.Command {
	var indicator string
	var covariates, outcomes, pairs []string
	var regression string
	var store, jsonOut, profile bool

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Run the weighting pipeline over a CSV or Excel file",
		Long: `Fit a probit response-propensity model, derive inverse-propensity
weights, and compare weighted against unweighted estimates.

Example: surveyweight analyze survey.csv --indicator respond \
  --covariates age,education --outcomes income,hours \
  --pairs income:hours --regression income=age,education`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := tabular.NewFrameReader(args[0]).ReadFrame(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			req, err := buildRequest(frame, indicator, covariates, outcomes, pairs, regression, profile)
			if err != nil {
				return err
			}
			return runAnalysis(cmd.Context(), req, store, jsonOut)
		},
	}

	cmd.Flags().StringVar(&indicator, "indicator", "", "Respondent indicator column (required)")
	cmd.Flags().StringSliceVar(&covariates, "covariates", nil, "Fully observed propensity covariates (required)")
	cmd.Flags().StringSliceVar(&outcomes, "outcomes", nil, "Outcome variables for mean comparisons")
	cmd.Flags().StringSliceVar(&pairs, "pairs", nil, "Correlation pairs as x:y")
	cmd.Flags().StringVar(&regression, "regression", "", "Regression as outcome=pred1,pred2")
	cmd.Flags().BoolVar(&store, "store", false, "Persist the report to Postgres (DATABASE_URL)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON instead of text")
	cmd.Flags().BoolVar(&profile, "profile", true, "Include per-column profiles")
	cobra.CheckErr(cmd.MarkFlagRequired("indicator"))
	cobra.CheckErr(cmd.MarkFlagRequired("covariates"))

	return cmd
}

func newDemoCmd() *cobra.Command {
	var seed int64
	var rows int
	var store, jsonOut bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline on a synthetic survey with known nonresponse bias",
		Long: `Generate a deterministic synthetic survey where older units respond
more often and income rises with age, then run the full pipeline. The
weighted estimates should sit closer to the full-population truth than
the unweighted ones.

Example: surveyweight demo --seed 42 --rows 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := testkit.NewGenerator(seed).SurveyFrame(rows)
			if err != nil {
				return fmt.Errorf("generating synthetic survey: %w", err)
			}

			req := app.AnalysisRequest{
				Frame:      frame,
				Indicator:  "respond",
				Covariates: core.VariableKeys([]string{"age", "education"}),
				MeanVars:   core.VariableKeys([]string{"income", "hours"}),
				CorrelationPairs: [][2]core.VariableKey{
					{"income", "hours"},
					{"income", "age"},
				},
				Outcome:    "income",
				Predictors: core.VariableKeys([]string{"age", "education"}),
				Profile:    true,
			}
			return runAnalysis(cmd.Context(), req, store, jsonOut)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the synthetic survey")
	cmd.Flags().IntVar(&rows, "rows", 500, "Number of sampled units")
	cmd.Flags().BoolVar(&store, "store", false, "Persist the report to Postgres (DATABASE_URL)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON instead of text")

	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, or print one stored report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeRepo, err := openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer closeRepo()

			if len(args) == 1 {
				rep, err := repo.GetByID(cmd.Context(), core.RunID(args[0]))
				if err != nil {
					return err
				}
				return report.NewRenderer().Render(os.Stdout, rep)
			}

			runs, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  indicator=%s rows=%d respondents=%d failed=%d\n",
					r.RunID, r.CreatedAt.Time().Format("2006-01-02 15:04:05"),
					r.Indicator, r.Rows, r.Weights.RespondentCount, r.FailedStatistics())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func buildRequest(frame *survey.Frame, indicator string, covariates, outcomes, pairs []string,
	regression string, profile bool) (app.AnalysisRequest, error) {

	req := app.AnalysisRequest{
		Frame:      frame,
		Indicator:  core.VariableKey(indicator),
		Covariates: core.VariableKeys(covariates),
		MeanVars:   core.VariableKeys(outcomes),
		Profile:    profile,
	}

	for _, p := range pairs {
		x, y, ok := strings.Cut(p, ":")
		if !ok {
			return req, fmt.Errorf("invalid correlation pair %q (want x:y)", p)
		}
		req.CorrelationPairs = append(req.CorrelationPairs,
			[2]core.VariableKey{core.VariableKey(x), core.VariableKey(y)})
	}

	if regression != "" {
		outcome, predictors, ok := strings.Cut(regression, "=")
		if !ok || predictors == "" {
			return req, fmt.Errorf("invalid regression %q (want outcome=pred1,pred2)", regression)
		}
		req.Outcome = core.VariableKey(outcome)
		req.Predictors = core.VariableKeys(strings.Split(predictors, ","))
	}

	return req, nil
}

func runAnalysis(ctx context.Context, req app.AnalysisRequest, store, jsonOut bool) error {
	var repo ports.RunRepository
	if store {
		var closeRepo func()
		var err error
		repo, closeRepo, err = openRepository(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()
	}

	svc := app.NewAnalysisService(probit.NewFitter(), wls.NewSolver(), repo)
	rep, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return report.NewRenderer().Render(os.Stdout, rep)
}

func openRepository(ctx context.Context) (ports.RunRepository, func(), error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for stored runs")
	}
	db, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return postgres.NewRunRepository(db), func() { db.Close() }, nil
}
