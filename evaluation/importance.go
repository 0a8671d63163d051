package evaluation

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/metrics"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// DefaultImportanceSeed seeds the column shuffles unless WithSeed is given.
const DefaultImportanceSeed = 42

// Importance is the permutation importance of one feature.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type importanceConfig struct {
	seed    uint64
	repeats int
}

// ImportanceOption configures FeatureImportance.
type ImportanceOption func(*importanceConfig)

// WithSeed sets the shuffle seed.
func WithSeed(seed uint64) ImportanceOption {
	return func(c *importanceConfig) { c.seed = seed }
}

// WithRepeats averages the R² drop over n independent shuffles per feature.
func WithRepeats(n int) ImportanceOption {
	return func(c *importanceConfig) { c.repeats = n }
}

// FeatureImportance measures, for each column of X, how much R² drops when
// that column is shuffled across rows: importance = max(0, baseline − shuffled).
// The fitted model is only used for prediction. The result is ordered by
// importance descending, ties by feature name.
func FeatureImportance(m model.Predictor, X, y mat.Matrix, names []string, opts ...ImportanceOption) ([]Importance, error) {
	cfg := importanceConfig{seed: DefaultImportanceSeed, repeats: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.repeats < 1 {
		return nil, errors.NewInvalidParameterError("repeats", "must be >= 1", cfg.repeats)
	}

	rows, cols := X.Dims()
	if len(names) != cols {
		return nil, errors.NewDimensionError("FeatureImportance", cols, len(names), 1)
	}
	if ry, _ := y.Dims(); ry != rows {
		return nil, errors.NewDimensionError("FeatureImportance", rows, ry, 0)
	}

	baseline, err := r2(m, X, y)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
	shuffled := mat.DenseCopyOf(X)
	column := make([]float64, rows)
	out := make([]Importance, cols)

	for j := 0; j < cols; j++ {
		mat.Col(column, j, X)
		var drop float64
		for rep := 0; rep < cfg.repeats; rep++ {
			perm := slices.Clone(column)
			rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
			shuffled.SetCol(j, perm)

			score, err := r2(m, shuffled, y)
			if err != nil {
				return nil, err
			}
			drop += baseline - score
		}
		shuffled.SetCol(j, column)
		out[j] = Importance{Feature: names[j], Importance: max(0, drop/float64(cfg.repeats))}
	}

	slices.SortStableFunc(out, func(a, b Importance) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
	return out, nil
}

func r2(m model.Predictor, X, y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	res, err := metrics.EvaluateRegression(y, pred)
	if err != nil {
		return 0, err
	}
	return res.R2, nil
}
