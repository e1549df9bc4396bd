package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary describes one variable of a trajectory.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Median float64 `json:"median"`
}

func Summarize(series []float64) (Summary, error) {
	var s Summary
	if len(series) == 0 {
		return s, fmt.Errorf("summarize: empty series")
	}

	data := stats.Float64Data(series)
	var err error
	if s.Min, err = stats.Min(data); err != nil {
		return s, fmt.Errorf("summarize min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, fmt.Errorf("summarize max: %w", err)
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, fmt.Errorf("summarize mean: %w", err)
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return s, fmt.Errorf("summarize stddev: %w", err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, fmt.Errorf("summarize median: %w", err)
	}
	return s, nil
}
