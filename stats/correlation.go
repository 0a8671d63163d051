package stats

import (
	"cmp"
	"math"
	"slices"

	"github.com/YuminosukeSato/insight/dataset"
)

// Correlation returns the Pearson correlation of fields a and b over the
// records where both are numeric. ok is false with fewer than two such
// records or when either field has zero variance over them. The result is
// symmetric in a and b, and exactly 1 when a == b.
func Correlation(records []dataset.Record, a, b string) (r float64, ok bool) {
	var xs, ys []float64
	for _, rec := range records {
		x, okx := rec.Float(a)
		y, oky := rec.Float(b)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return pearson(xs, ys, a == b)
}

func pearson(xs, ys []float64, same bool) (float64, bool) {
	n := len(xs)
	if n < 2 {
		return 0, false
	}
	// r is scale invariant; scaling into [-1, 1] keeps the sums finite
	xs, ys = unitScale(xs), unitScale(ys)
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, syy, sxy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	if same {
		return 1, true
	}
	r := sxy / (math.Sqrt(sxx) * math.Sqrt(syy))
	if math.IsNaN(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

// unitScale divides xs by its largest magnitude. The input is not modified.
func unitScale(xs []float64) []float64 {
	var m float64
	for _, x := range xs {
		m = max(m, math.Abs(x))
	}
	if m == 0 || math.IsInf(m, 0) {
		return xs
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x / m
	}
	return out
}

// CorrelationMatrix is the symmetric matrix of pairwise correlations.
// Values[i][j] is meaningful only when Defined[i][j].
type CorrelationMatrix struct {
	Fields  []string    `json:"fields"`
	Values  [][]float64 `json:"values"`
	Defined [][]bool    `json:"defined"`
}

// Correlations computes the correlation matrix of fields.
func Correlations(records []dataset.Record, fields []string) CorrelationMatrix {
	n := len(fields)
	m := CorrelationMatrix{
		Fields:  append([]string(nil), fields...),
		Values:  make([][]float64, n),
		Defined: make([][]bool, n),
	}
	for i := range n {
		m.Values[i] = make([]float64, n)
		m.Defined[i] = make([]bool, n)
	}
	for i := range n {
		for j := i; j < n; j++ {
			r, ok := Correlation(records, fields[i], fields[j])
			m.Values[i][j], m.Values[j][i] = r, r
			m.Defined[i][j], m.Defined[j][i] = ok, ok
		}
	}
	return m
}

// At returns the correlation between fields a and b as stored in the matrix.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := slices.Index(m.Fields, a), slices.Index(m.Fields, b)
	if i < 0 || j < 0 || !m.Defined[i][j] {
		return 0, false
	}
	return m.Values[i][j], true
}

// Pair is the correlation of two distinct fields.
type Pair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Pairs lists the defined off-diagonal correlations ordered by |R|
// descending. limit <= 0 returns all of them.
func (m CorrelationMatrix) Pairs(limit int) []Pair {
	var out []Pair
	for i := range m.Fields {
		for j := i + 1; j < len(m.Fields); j++ {
			if m.Defined[i][j] {
				out = append(out, Pair{A: m.Fields[i], B: m.Fields[j], R: m.Values[i][j]})
			}
		}
	}
	slices.SortFunc(out, func(x, y Pair) int {
		if c := cmp.Compare(math.Abs(y.R), math.Abs(x.R)); c != 0 {
			return c
		}
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CorrelationPairs is Correlations(records, fields).Pairs(limit).
func CorrelationPairs(records []dataset.Record, fields []string, limit int) []Pair {
	return Correlations(records, fields).Pairs(limit)
}
