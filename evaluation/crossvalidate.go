package evaluation

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/metrics"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Factory returns a new, untrained model. CrossValidate calls it once per fold.
type Factory func() model.Model

// CVResult stores cross-validation results
type CVResult struct {
	// Scores holds the held-out R² of each fold, in fold order.
	Scores []float64 `json:"scores"`
	Folds  []Fold    `json:"-"`
	Mean   float64   `json:"mean"`
	// StdDev is the population standard deviation of Scores.
	StdDev float64 `json:"stdDev"`
}

type cvConfig struct {
	shuffle bool
	seed    uint64
}

// CVOption configures CrossValidate.
type CVOption func(*cvConfig)

// WithShuffle permutes rows with the given seed before cutting folds.
func WithShuffle(seed uint64) CVOption {
	return func(c *cvConfig) {
		c.shuffle = true
		c.seed = seed
	}
}

// CrossValidate trains a fresh model on k−1 folds and scores R² on the
// held-out fold, k times. Folds are contiguous unless WithShuffle is given.
// It fails when k < 2 or k exceeds the row count.
func CrossValidate(factory Factory, X, y mat.Matrix, k int, opts ...CVOption) (*CVResult, error) {
	return CrossValidateContext(context.Background(), factory, X, y, k, opts...)
}

// CrossValidateContext is CrossValidate with a cancellation check between folds.
func CrossValidateContext(ctx context.Context, factory Factory, X, y mat.Matrix, k int, opts ...CVOption) (*CVResult, error) {
	cfg := cvConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if factory == nil {
		return nil, errors.NewInvalidParameterError("factory", "must not be nil", nil)
	}
	rows, _ := X.Dims()
	ry, cy := y.Dims()
	if ry != rows {
		return nil, errors.NewDimensionError("CrossValidate", rows, ry, 0)
	}
	if cy != 1 {
		return nil, errors.NewDimensionError("CrossValidate", 1, cy, 1)
	}

	folds, err := NewKFold(k, cfg.shuffle, cfg.seed).Split(rows)
	if err != nil {
		return nil, err
	}

	result := &CVResult{Scores: make([]float64, len(folds)), Folds: folds}
	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "cross validation stopped before fold %d", i)
		}
		m := factory()
		if m == nil {
			return nil, errors.NewInvalidParameterError("factory", "returned a nil model", nil)
		}

		XTrain, yTrain := extractSubset(X, y, fold.Train)
		if err := m.Fit(XTrain, yTrain); err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		XTest, yTest := extractSubset(X, y, fold.Test)
		pred, err := m.Predict(XTest)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		res, err := metrics.EvaluateRegression(yTest, pred)
		if err != nil {
			return nil, errors.Wrapf(err, "fold %d", i)
		}
		result.Scores[i] = res.R2
	}

	result.Mean, result.StdDev = stat.PopMeanStdDev(result.Scores, nil)
	if math.IsNaN(result.StdDev) {
		result.StdDev = 0
	}
	return result, nil
}

// extractSubset copies the given rows of X and y, preserving index order.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	xSubset := mat.NewDense(len(indices), xCols, nil)
	ySubset := mat.NewDense(len(indices), 1, nil)
	row := make([]float64, xCols)
	for i, idx := range indices {
		mat.Row(row, idx, X)
		xSubset.SetRow(i, row)
		ySubset.Set(i, 0, y.At(idx, 0))
	}
	return xSubset, ySubset
}
