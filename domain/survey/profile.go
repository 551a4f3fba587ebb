package survey

import (
	"math"

	"github.com/montanaflynn/stats"

	"surveyweight/domain/core"
)

// ColumnProfile summarises one column of a frame for reporting.
type ColumnProfile struct {
	Key          core.VariableKey `json:"key"`
	Type         StatisticalType  `json:"type"`
	Observed     int              `json:"observed"`
	MissingRatio float64          `json:"missing_ratio"`
	Mean         float64          `json:"mean"`
	StdDev       float64          `json:"std_dev"`
	Min          float64          `json:"min"`
	Max          float64          `json:"max"`
	Median       float64          `json:"median"`
}

// Profile computes per-column summaries over the observed (non-NaN) cells.
func (f *Frame) Profile() []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(f.keys))

	for j, key := range f.keys {
		col := f.columns[j]

		observed := make([]float64, 0, len(col))
		for _, v := range col {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}

		p := ColumnProfile{
			Key:      key,
			Type:     f.types[j],
			Observed: len(observed),
		}
		if len(col) > 0 {
			p.MissingRatio = float64(len(col)-len(observed)) / float64(len(col))
		}
		if len(observed) > 0 {
			p.Mean, _ = stats.Mean(observed)
			p.StdDev, _ = stats.StandardDeviationSample(observed)
			p.Min, _ = stats.Min(observed)
			p.Max, _ = stats.Max(observed)
			p.Median, _ = stats.Median(observed)
		}
		profiles = append(profiles, p)
	}

	return profiles
}
