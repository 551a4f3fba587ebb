// Package report renders analysis reports as fixed-width text tables in the
// manner of classic statistical summary output. It writes to any io.Writer;
// the CLI tees console and log file.
package report

import (
	"fmt"
	"io"
	"strings"

	"surveyweight/domain/analysis"
	"surveyweight/domain/weightstats"
)

const tableWidth = 76

// Renderer writes analysis reports as text.
type Renderer struct{}

// NewRenderer creates a text renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the full report.
func (r *Renderer) Render(w io.Writer, rep *analysis.Report) error {
	var b strings.Builder

	title(&b, "Response-Propensity Weighting Analysis")
	fmt.Fprintf(&b, "Run ID:          %s\n", rep.RunID)
	fmt.Fprintf(&b, "Created:         %s\n", rep.CreatedAt.Time().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Indicator:       %s\n", rep.Indicator)
	fmt.Fprintf(&b, "Covariates:      %s\n", joinKeys(rep.Covariates))
	fmt.Fprintf(&b, "Rows:            %d\n", rep.Rows)
	fmt.Fprintf(&b, "Respondents:     %d   Non-respondents: %d\n",
		rep.Weights.RespondentCount, rep.Weights.NonRespondents)
	b.WriteString(line("-"))

	fmt.Fprintf(&b, "Raw weight sum (respondents):   %12.4f\n", rep.Weights.RawSum)
	fmt.Fprintf(&b, "Normalized weight sum:          %12.4f\n", rep.Weights.NormalizedSum)
	fmt.Fprintf(&b, "Normalized weight range:        [%.4f, %.4f]\n",
		rep.Weights.MinNormalized, rep.Weights.MaxNormalized)

	if len(rep.Means) > 0 {
		title(&b, "Means: unweighted vs weighted")
		fmt.Fprintf(&b, "%-24s %14s %14s %12s\n", "Variable", "Unweighted", "Weighted", "Shift")
		b.WriteString(line("-"))
		for _, m := range rep.Means {
			if m.Error != "" {
				fmt.Fprintf(&b, "%-24s %s\n", m.Variable, "failed: "+m.Error)
				continue
			}
			fmt.Fprintf(&b, "%-24s %14.6f %14.6f %12.6f\n",
				m.Variable, m.Unweighted, m.Weighted, m.Weighted-m.Unweighted)
		}
	}

	if len(rep.Correlations) > 0 {
		title(&b, "Pearson correlations: unweighted vs weighted")
		fmt.Fprintf(&b, "%-30s %14s %14s\n", "Pair", "Unweighted", "Weighted")
		b.WriteString(line("-"))
		for _, c := range rep.Correlations {
			pair := fmt.Sprintf("%s ~ %s", c.VariableX, c.VariableY)
			if c.Error != "" {
				fmt.Fprintf(&b, "%-30s %s\n", pair, "failed: "+c.Error)
				continue
			}
			fmt.Fprintf(&b, "%-30s %14.6f %14.6f\n", pair, c.Unweighted, c.Weighted)
		}
	}

	if rep.Regression != nil {
		reg := rep.Regression
		title(&b, fmt.Sprintf("Regression: %s ~ %s", reg.Outcome, joinKeys(reg.Predictors)))
		if reg.Error != "" {
			fmt.Fprintf(&b, "failed: %s\n", reg.Error)
		} else {
			writeFit(&b, "Unweighted (OLS)", reg.Unweighted)
			writeFit(&b, "Weighted (WLS, normalized propensity weights)", reg.Weighted)
		}
	}

	b.WriteString(line("="))
	if n := rep.FailedStatistics(); n > 0 {
		fmt.Fprintf(&b, "%d statistic(s) failed; see entries above.\n", n)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFit(b *strings.Builder, label string, fit *weightstats.Fit) {
	if fit == nil {
		return
	}
	fmt.Fprintf(b, "\n%s   (n=%d, df=%d, R^2=%.4f)\n", label, fit.Observations, fit.ResidualDF, fit.RSquared)
	fmt.Fprintf(b, "%-20s %12s %12s %9s %9s %22s\n",
		"Term", "Estimate", "StdErr", "t", "p", "95% CI")
	b.WriteString(line("-"))
	for _, c := range fit.Coefficients {
		fmt.Fprintf(b, "%-20s %12.6f %12.6f %9.3f %9.4f [%9.4f, %9.4f]\n",
			c.Name, c.Estimate, c.StdErr, c.TStat, c.PValue, c.CILower, c.CIUpper)
	}
}

func title(b *strings.Builder, s string) {
	b.WriteString("\n")
	k := (tableWidth - len(s)) / 2
	if k < 0 {
		k = 0
	}
	b.WriteString(strings.Repeat(" ", k))
	b.WriteString(s)
	b.WriteString("\n")
	b.WriteString(line("="))
}

func line(c string) string {
	return strings.Repeat(c, tableWidth) + "\n"
}

func joinKeys[T fmt.Stringer](keys []T) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}
