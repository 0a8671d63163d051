package dashboard

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Insights turns an overview into short narrative sentences: the leading
// group of every grouping, the strongest correlation, the quality verdict,
// outlier counts and the time-series trend. Sections without data produce
// no sentence.
func Insights(o *Overview) []string {
	if o == nil || o.Rows == 0 {
		return nil
	}
	var out []string

	for _, g := range o.Groups {
		if len(g.Aggregates) == 0 {
			continue
		}
		top := g.Aggregates[0]
		out = append(out, fmt.Sprintf("Top %s is %s with %s across %d records.",
			g.Field, top.Key, formatNumber(top.Value), top.Count))
	}

	if len(o.TopPairs) > 0 {
		p := o.TopPairs[0]
		out = append(out, fmt.Sprintf("Strongest correlation: %s and %s (r = %.2f, %s).",
			p.A, p.B, p.R, strength(p.R)))
	}

	q := o.Quality
	out = append(out, fmt.Sprintf("Data quality is %s (score %.1f/100; %.1f%% missing cells, %d duplicate rows).",
		verdict(q.Score), q.Score, q.MissingPercentage, q.Duplicates))

	for _, s := range o.Outliers {
		if n := len(s.Rows); n > 0 {
			out = append(out, fmt.Sprintf("%s has %d %s outside [%s, %s].",
				s.Field, n, plural(n, "outlier", "outliers"), formatNumber(s.Bounds.Lower), formatNumber(s.Bounds.Upper)))
		}
	}

	if n := len(o.TimeSeries); n >= 2 {
		first, last := o.TimeSeries[0], o.TimeSeries[n-1]
		if first.Value != 0 {
			change := (last.Value - first.Value) / math.Abs(first.Value) * 100
			dir := "rose"
			if change < 0 {
				dir = "fell"
			}
			out = append(out, fmt.Sprintf("Value %s %.1f%% from %s to %s.", dir, math.Abs(change), first.Label, last.Label))
		}
	}
	return out
}

func strength(r float64) string {
	sign := "positive"
	if r < 0 {
		sign = "negative"
	}
	switch a := math.Abs(r); {
	case a >= 0.7:
		return "strong " + sign
	case a >= 0.4:
		return "moderate " + sign
	default:
		return "weak " + sign
	}
}

func verdict(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatNumber prints integers without decimals, everything else with two,
// and groups thousands.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Sprint(v)
	case v == math.Trunc(v):
		return humanize.Commaf(v)
	default:
		return humanize.FormatFloat("#,###.##", v)
	}
}
