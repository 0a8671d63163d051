// Package stats implements the descriptive statistics and data-quality
// engine over dataset records: summaries, grouped aggregation, Pearson
// correlation, IQR outliers, quality scoring and time-series bucketing.
//
// Every function reads its input and never mutates it. Standard deviation
// uses the population definition (divide by count) throughout.
package stats

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/insight/dataset"
)

// Summary holds the descriptive statistics of one numeric field. When Count
// is 0 the summary is undefined and every moment is zero.
type Summary struct {
	Field   string  `json:"field"`
	Count   int     `json:"count"`
	Sum     float64 `json:"sum"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stdDev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Defined bool    `json:"defined"`
}

// Summarize computes the summary of field over records holding a numeric
// value for it.
func Summarize(records []dataset.Record, field string) Summary {
	xs := values(records, field)
	s := Summary{Field: field, Count: len(xs)}
	if len(xs) == 0 {
		return s
	}
	slices.Sort(xs)

	s.Defined = true
	s.Sum = floats.Sum(xs)
	s.Mean, s.StdDev = stat.PopMeanStdDev(xs, nil)
	s.Median = median(xs)
	s.Min = xs[0]
	s.Max = xs[len(xs)-1]
	return s
}

// SummarizeAll summarizes each field in order.
func SummarizeAll(records []dataset.Record, fields []string) []Summary {
	out := make([]Summary, len(fields))
	for i, f := range fields {
		out[i] = Summarize(records, f)
	}
	return out
}

// values collects the defined numeric values of field in record order.
func values(records []dataset.Record, field string) []float64 {
	xs := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Float(field); ok {
			xs = append(xs, v)
		}
	}
	return xs
}

// median expects sorted, non-empty input. Even counts average the two middle values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
