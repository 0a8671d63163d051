package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Projection is the numeric view of a collection used by the model toolkit.
type Projection struct {
	// X is the n×len(features) feature matrix.
	X *mat.Dense
	// Y is the n×1 target column, nil when no target was requested.
	Y *mat.Dense
	// Features names the columns of X.
	Features []string
	// Target names Y.
	Target string
	// Rows maps each row of X back to its index in the source records.
	Rows []int
	// Dropped counts source records excluded for a missing or non-numeric value.
	Dropped int
}

// Matrix projects features and target onto a feature matrix and target
// column. Rows with a missing or non-numeric value in any chosen field are
// excluded; the surviving rows keep source order.
func Matrix(records []Record, features []string, target string) (*Projection, error) {
	if len(features) == 0 {
		return nil, errors.NewInvalidParameterError("features", "at least one feature is required", features)
	}
	for _, f := range features {
		if f == "" {
			return nil, errors.NewInvalidParameterError("features", "empty feature name", features)
		}
		if target != "" && f == target {
			return nil, errors.NewInvalidParameterError("target", "target is also listed as a feature", target)
		}
	}

	nCols := len(features)
	data := make([]float64, 0, len(records)*nCols)
	var ys []float64
	rows := make([]int, 0, len(records))
	row := make([]float64, nCols)

	for i, r := range records {
		ok := true
		for j, f := range features {
			v, defined := r.Float(f)
			if !defined {
				ok = false
				break
			}
			row[j] = v
		}
		var y float64
		if ok && target != "" {
			y, ok = r.Float(target)
		}
		if !ok {
			continue
		}
		data = append(data, row...)
		if target != "" {
			ys = append(ys, y)
		}
		rows = append(rows, i)
	}

	if len(rows) == 0 {
		return nil, errors.NewInsufficientDataError("dataset.Matrix", 1, 0)
	}

	p := &Projection{
		X:        mat.NewDense(len(rows), nCols, data),
		Features: append([]string(nil), features...),
		Target:   target,
		Rows:     rows,
		Dropped:  len(records) - len(rows),
	}
	if target != "" {
		p.Y = mat.NewDense(len(rows), 1, ys)
	}
	return p, nil
}

// MatrixX projects features only, for unsupervised models.
func MatrixX(records []Record, features []string) (*Projection, error) {
	return Matrix(records, features, "")
}

// Len returns the number of projected rows.
func (p *Projection) Len() int {
	return len(p.Rows)
}
