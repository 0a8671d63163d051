package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// DefaultIQRMultiplier is the Tukey fence multiplier used by DetectOutliers.
const DefaultIQRMultiplier = 1.5

// Bounds are the Tukey fences of one field.
type Bounds struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Multiplier float64 `json:"multiplier"`
}

// Contains reports whether v lies within the closed fences.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// OutlierBounds computes [Q1 − 1.5·IQR, Q3 + 1.5·IQR] over the numeric
// values of field. Quartiles follow the empirical CDF (gonum stat.Empirical).
// ok is false when the field has no numeric values.
func OutlierBounds(records []dataset.Record, field string) (Bounds, bool) {
	return outlierBounds(records, field, DefaultIQRMultiplier)
}

// OutlierBoundsWith is OutlierBounds with fences at k·IQR.
func OutlierBoundsWith(records []dataset.Record, field string, k float64) (Bounds, bool) {
	return outlierBounds(records, field, k)
}

func outlierBounds(records []dataset.Record, field string, k float64) (Bounds, bool) {
	xs := values(records, field)
	if len(xs) == 0 {
		return Bounds{}, false
	}
	slices.Sort(xs)
	q1 := stat.Quantile(0.25, stat.Empirical, xs, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, xs, nil)
	iqr := q3 - q1
	return Bounds{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Lower:      q1 - k*iqr,
		Upper:      q3 + k*iqr,
		Multiplier: k,
	}, true
}

// DetectOutliers returns, in source order, the records whose value of field
// falls outside OutlierBounds. Records without a numeric value are never
// flagged. A constant field has no outliers.
func DetectOutliers(records []dataset.Record, field string) []dataset.Record {
	out, _ := DetectOutliersWith(records, field, DefaultIQRMultiplier)
	return out
}

// DetectOutliersWith is DetectOutliers with a caller-chosen IQR multiplier.
func DetectOutliersWith(records []dataset.Record, field string, k float64) ([]dataset.Record, error) {
	idx, err := OutlierIndices(records, field, k)
	if err != nil {
		return nil, err
	}
	out := make([]dataset.Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out, nil
}

// OutlierIndices returns the positions of the outlying records.
func OutlierIndices(records []dataset.Record, field string, k float64) ([]int, error) {
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return nil, errors.NewInvalidParameterError("k", "IQR multiplier must be finite and non-negative", k)
	}
	b, ok := outlierBounds(records, field, k)
	if !ok {
		return nil, nil
	}
	var idx []int
	for i, r := range records {
		if v, defined := r.Float(field); defined && !b.Contains(v) {
			idx = append(idx, i)
		}
	}
	return idx, nil
}
