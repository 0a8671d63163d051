// Package tree implements a CART-style regression tree: greedy binary
// splits that minimise the summed squared error of the two children.
package tree

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/metrics"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

const (
	// DefaultMaxDepth bounds the depth of the tree (root depth = 0).
	DefaultMaxDepth = 5
	// DefaultMinSamplesSplit is the smallest node that may be split.
	DefaultMinSamplesSplit = 2

	modelName = "DecisionTreeRegressor"
)

// DecisionTreeRegressor is a regression tree. Leaves predict the mean target
// of the training rows that reach them; a row goes left when its feature
// value is <= the node threshold.
//
// Do not call Fit concurrently on the same instance. Predict is safe for
// concurrent use once fitted.
type DecisionTreeRegressor struct {
	state *model.StateManager

	maxDepth        int
	minSamplesSplit int

	root        *node
	importances []float64
	depth       int
	nLeaves     int
}

// node holds a node in the tree.
type node struct {
	leaf      bool
	value     float64 // leaf prediction
	feature   int
	threshold float64 // x <= threshold => left
	left      *node
	right     *node
	n         int
	sse       float64
}

// Option functional config
type Option func(*DecisionTreeRegressor)

// WithMaxDepth sets the maximum depth. 0 yields a single leaf.
func WithMaxDepth(d int) Option {
	return func(t *DecisionTreeRegressor) { t.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum number of rows a node needs to be split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.minSamplesSplit = n }
}

// NewDecisionTreeRegressor returns a regressor with depth 5 and a minimum
// split size of 2 unless overridden.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		state:           model.NewStateManager(),
		maxDepth:        DefaultMaxDepth,
		minSamplesSplit: DefaultMinSamplesSplit,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on X (n×p) and the n×1 target y, replacing any
// previously fitted tree.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	if t.maxDepth < 0 {
		return errors.NewInvalidParameterError("max_depth", "must be >= 0", t.maxDepth)
	}
	if t.minSamplesSplit < 2 {
		return errors.NewInvalidParameterError("min_samples_split", "must be >= 2", t.minSamplesSplit)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInsufficientDataError("DecisionTreeRegressor.Fit", 1, r)
	}
	ry, cy := y.Dims()
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, cy, 1)
	}

	b := &builder{
		x:               mat.DenseCopyOf(X),
		y:               mat.Col(nil, 0, y),
		maxDepth:        t.maxDepth,
		minSamplesSplit: t.minSamplesSplit,
		importances:     make([]float64, c),
	}
	if err := errors.CheckNumericalStability("DecisionTreeRegressor.Fit", b.y); err != nil {
		return err
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	root := b.build(idx, 0)

	var total float64
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for i := range b.importances {
			b.importances[i] /= total
		}
	}

	t.root = root
	t.importances = b.importances
	t.depth = b.depth
	t.nLeaves = b.nLeaves
	t.state.SetFitted(c, r)
	return nil
}

// Predict descends the tree for every row and returns an n×1 column.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.state.RequireFeatures(modelName, "Predict", X); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		n := t.root
		for !n.leaf {
			if X.At(i, n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out.SetVec(i, n.value)
	}
	return out, nil
}

// Score returns R² of the predictions on X against y.
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	res, err := metrics.EvaluateRegression(y, pred)
	if err != nil {
		return 0, err
	}
	return res.R2, nil
}

// FeatureImportances returns the share of the total squared-error reduction
// contributed by each feature. The values sum to 1 unless the tree is a
// single leaf, in which case they are all 0.
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	if !t.state.IsFitted() {
		return nil
	}
	return slices.Clone(t.importances)
}

// Depth returns the depth of the deepest leaf.
func (t *DecisionTreeRegressor) Depth() int { return t.depth }

// NLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) NLeaves() int { return t.nLeaves }

// IsFitted reports whether Fit has succeeded.
func (t *DecisionTreeRegressor) IsFitted() bool { return t.state.IsFitted() }

// builder carries the per-Fit working state.
type builder struct {
	x               *mat.Dense
	y               []float64
	maxDepth        int
	minSamplesSplit int
	importances     []float64
	depth           int
	nLeaves         int
}

func (b *builder) build(idx []int, depth int) *node {
	var sum float64
	lo, hi := b.y[idx[0]], b.y[idx[0]]
	for _, i := range idx {
		sum += b.y[i]
		lo, hi = min(lo, b.y[i]), max(hi, b.y[i])
	}
	mean := sum / float64(len(idx))
	var sse float64
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}
	n := &node{n: len(idx), sse: sse, value: mean}

	if len(idx) < b.minSamplesSplit || depth >= b.maxDepth || lo == hi {
		return b.leaf(n, depth)
	}
	s, ok := b.bestSplit(idx)
	if !ok {
		return b.leaf(n, depth)
	}

	var left, right []int
	for _, i := range idx {
		if b.x.At(i, s.feature) <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(n, depth)
	}
	b.importances[s.feature] += max(0, sse-s.cost)

	n.feature = s.feature
	n.threshold = s.threshold
	n.left = b.build(left, depth+1)
	n.right = b.build(right, depth+1)
	return n
}

func (b *builder) leaf(n *node, depth int) *node {
	n.leaf = true
	b.nLeaves++
	b.depth = max(b.depth, depth)
	return n
}

type split struct {
	feature   int
	threshold float64
	cost      float64
}

// bestSplit scans every feature; candidate thresholds are midpoints between
// consecutive distinct sorted values. Ties keep the first candidate found
// (lowest feature, then lowest threshold).
func (b *builder) bestSplit(idx []int) (split, bool) {
	_, c := b.x.Dims()
	order := slices.Clone(idx)
	best := split{cost: -1}
	found := false

	for f := 0; f < c; f++ {
		slices.SortStableFunc(order, func(i, j int) int {
			return cmp.Compare(b.x.At(i, f), b.x.At(j, f))
		})

		var totalSum, totalSq float64
		for _, i := range order {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		var leftSum, leftSq float64
		n := len(order)
		for k := 0; k < n-1; k++ {
			yi := b.y[order[k]]
			leftSum += yi
			leftSq += yi * yi

			xk, xnext := b.x.At(order[k], f), b.x.At(order[k+1], f)
			if xk == xnext {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			cost := max(0, leftSq-leftSum*leftSum/nl) + max(0, rightSq-rightSum*rightSum/nr)
			if !found || cost < best.cost {
				// the midpoint of adjacent floats can round up to xnext
				threshold := xk + (xnext-xk)/2
				if threshold >= xnext {
					threshold = xk
				}
				best = split{feature: f, threshold: threshold, cost: cost}
				found = true
			}
		}
	}
	return best, found
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)
