// Package stats provides summary statistics over complexity scores.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a set of scores.
type Summary struct {
	Count  int     `json:"count" yaml:"count" toon:"count"`
	Total  float64 `json:"total" yaml:"total" toon:"total"`
	Mean   float64 `json:"mean" yaml:"mean" toon:"mean"`
	Median float64 `json:"median" yaml:"median" toon:"median"`
	P90    float64 `json:"p90" yaml:"p90" toon:"p90"`
	Max    float64 `json:"max" yaml:"max" toon:"max"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	return stat.Quantile(float64(p)/100, stat.Empirical, sorted, nil)
}

// Summarize computes the summary of values. values is not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	return Summary{
		Count:  len(sorted),
		Total:  total,
		Mean:   stat.Mean(sorted, nil),
		Median: Percentile(sorted, 50),
		P90:    Percentile(sorted, 90),
		Max:    sorted[len(sorted)-1],
	}
}
