// Package testkit builds deterministic synthetic survey data for tests and
// the CLI demo. The generator is a plain linear congruential stream with a
// Box-Muller transform, so every seed reproduces the same frame on every
// platform.
package testkit

import (
	"math"

	"surveyweight/domain/core"
	"surveyweight/domain/survey"
)

// Generator is a deterministic pseudo-random stream.
type Generator struct {
	state int64
}

// NewGenerator creates a generator from a seed.
func NewGenerator(seed int64) *Generator {
	if seed <= 0 {
		seed = 12345
	}
	return &Generator{state: seed}
}

// Uniform returns the next value in [0,1).
func (g *Generator) Uniform() float64 {
	g.state = (g.state*1103515245 + 12345) % 2147483648
	if g.state < 0 {
		g.state = -g.state
	}
	return float64(g.state) / 2147483648.0
}

// Norm returns a standard normal draw via the Box-Muller transform.
func (g *Generator) Norm() float64 {
	u1 := g.Uniform()
	u2 := g.Uniform()
	if u1 == 0 {
		u1 = 1e-12
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// SurveyFrame generates a synthetic nonresponse survey: fully observed
// covariates (age, education), a respondent indicator whose probability
// rises with age, and outcomes (income, hours) observed for respondents
// only. Income depends on age, so nonresponse biases the naive estimates
// and weighting has something to correct.
func (g *Generator) SurveyFrame(n int) (*survey.Frame, error) {
	age := make([]float64, n)
	education := make([]float64, n)
	respond := make([]float64, n)
	income := make([]float64, n)
	hours := make([]float64, n)

	for i := 0; i < n; i++ {
		age[i] = 20 + math.Floor(g.Uniform()*45)
		education[i] = 8 + math.Floor(g.Uniform()*12)

		// Older units respond more often; probabilities stay inside
		// (0.15, 0.9) so no propensity degenerates.
		p := 0.15 + 0.75*normCDF((age[i]-42)/12)
		if g.Uniform() < p {
			respond[i] = 1
		}

		if respond[i] == 1 {
			income[i] = 12000 + 850*age[i] + 600*education[i] + 4000*g.Norm()
			hours[i] = 45 - 0.2*age[i] + 2*g.Norm()
		} else {
			income[i] = math.NaN()
			hours[i] = math.NaN()
		}
	}

	frame := survey.NewFrame()
	cols := []struct {
		key    core.VariableKey
		values []float64
		st     survey.StatisticalType
	}{
		{"respond", respond, survey.TypeBinary},
		{"age", age, survey.TypeNumeric},
		{"education", education, survey.TypeNumeric},
		{"income", income, survey.TypeNumeric},
		{"hours", hours, survey.TypeNumeric},
	}
	for _, c := range cols {
		if err := frame.AddColumn(c.key, c.values, c.st); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
