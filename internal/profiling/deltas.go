// Package profiling summarises numeric changes found by the cell differ
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"sheetdiff/domain/run"
)

// DeltaAnalyzer computes summary statistics over candidate-minus-baseline deltas
type DeltaAnalyzer struct{}

// NewDeltaAnalyzer creates a new delta analyzer
func NewDeltaAnalyzer() *DeltaAnalyzer {
	return &DeltaAnalyzer{}
}

// Analyze returns nil when there is nothing numeric to summarise.
// Non-finite deltas are skipped.
func (da *DeltaAnalyzer) Analyze(deltas []float64) (*run.NumericDeltas, error) {
	data := make(stats.Float64Data, 0, len(deltas))
	for _, d := range deltas {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		data = append(data, d)
	}
	if len(data) == 0 {
		return nil, nil
	}

	sum, err := data.Sum()
	if err != nil {
		return nil, err
	}
	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	median, err := data.Median()
	if err != nil {
		return nil, err
	}
	min, err := data.Min()
	if err != nil {
		return nil, err
	}
	max, err := data.Max()
	if err != nil {
		return nil, err
	}

	return &run.NumericDeltas{
		Count:  len(data),
		Sum:    round(sum),
		Mean:   round(mean),
		Median: round(median),
		Min:    min,
		Max:    max,
	}, nil
}

// round trims float noise so summaries of identical inputs print identically
func round(x float64) float64 {
	r, err := stats.Round(x, 9)
	if err != nil {
		return x
	}
	return r
}
