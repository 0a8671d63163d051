package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/linear"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

func TestKFoldContiguous(t *testing.T) {
	folds, err := NewKFold(5, false, 0).Split(100)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make(map[int]int)
	for i, f := range folds {
		assert.Len(t, f.Test, 20)
		assert.Len(t, f.Train, 80)
		assert.Equal(t, i*20, f.Test[0])
		assert.Equal(t, i*20+19, f.Test[19])
		for _, idx := range f.Test {
			seen[idx]++
		}
		for _, idx := range f.Train {
			assert.NotContains(t, f.Test, idx)
		}
	}
	assert.Len(t, seen, 100)
	for idx, n := range seen {
		assert.Equal(t, 1, n, "row %d", idx)
	}
}

func TestKFoldRemainder(t *testing.T) {
	folds, err := NewKFold(3, false, 0).Split(10)
	require.NoError(t, err)
	assert.Len(t, folds[0].Test, 4)
	assert.Len(t, folds[1].Test, 3)
	assert.Len(t, folds[2].Test, 3)
}

func TestKFoldShuffle(t *testing.T) {
	a, err := NewKFold(4, true, 7).Split(40)
	require.NoError(t, err)
	b, err := NewKFold(4, true, 7).Split(40)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	contiguous, err := NewKFold(4, false, 7).Split(40)
	require.NoError(t, err)
	assert.NotEqual(t, contiguous, a)

	seen := make(map[int]bool)
	for _, f := range a {
		assert.Len(t, f.Test, 10)
		for _, idx := range f.Test {
			assert.False(t, seen[idx])
			seen[idx] = true
		}
	}
	assert.Len(t, seen, 40)
}

func TestKFoldInvalid(t *testing.T) {
	for _, k := range []int{-1, 0, 1, 11} {
		_, err := NewKFold(k, false, 0).Split(10)
		var pe *errors.InvalidParameterError
		assert.True(t, errors.As(err, &pe), "k=%d", k)
	}
}

func planeData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x1 := float64(i%13) + 0.5*float64(i)
		x2 := float64((i*7)%11) - 3
		X.Set(i, 0, x1)
		X.Set(i, 1, x2)
		y.Set(i, 0, 2*x1-4*x2+10)
	}
	return X, y
}

func TestCrossValidateLinear(t *testing.T) {
	X, y := planeData(100)

	created := 0
	factory := func() model.Model {
		created++
		return linear.NewLinearRegression()
	}

	res, err := CrossValidate(factory, X, y, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, created)
	require.Len(t, res.Scores, 5)
	for _, s := range res.Scores {
		assert.InDelta(t, 1.0, s, 1e-9)
	}
	assert.InDelta(t, 1.0, res.Mean, 1e-9)
	assert.InDelta(t, 0.0, res.StdDev, 1e-9)
	assert.Len(t, res.Folds, 5)
}

func TestCrossValidateShuffled(t *testing.T) {
	X, y := planeData(60)
	factory := func() model.Model { return linear.NewLinearRegression() }

	a, err := CrossValidate(factory, X, y, 3, WithShuffle(1))
	require.NoError(t, err)
	b, err := CrossValidate(factory, X, y, 3, WithShuffle(1))
	require.NoError(t, err)
	assert.Equal(t, a.Folds, b.Folds)
	assert.InDelta(t, 1.0, a.Mean, 1e-9)
}

func TestCrossValidateErrors(t *testing.T) {
	X, y := planeData(10)
	factory := func() model.Model { return linear.NewLinearRegression() }

	_, err := CrossValidate(factory, X, y, 1)
	var pe *errors.InvalidParameterError
	assert.True(t, errors.As(err, &pe))

	_, err = CrossValidate(factory, X, y, 11)
	assert.True(t, errors.As(err, &pe))

	_, err = CrossValidate(nil, X, y, 2)
	assert.True(t, errors.As(err, &pe))

	var de *errors.DimensionError
	_, err = CrossValidate(factory, X, mat.NewDense(9, 1, nil), 2)
	assert.True(t, errors.As(err, &de))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CrossValidateContext(ctx, factory, X, y, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFeatureImportance(t *testing.T) {
	n := 200
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i)
		x1 := float64((i * 37) % 17)
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 3*x0+5)
	}
	lr := linear.NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	imp, err := FeatureImportance(lr, X, y, []string{"signal", "noise"})
	require.NoError(t, err)
	require.Len(t, imp, 2)
	assert.Equal(t, "signal", imp[0].Feature)
	assert.Greater(t, imp[0].Importance, 0.5)
	assert.Equal(t, "noise", imp[1].Feature)
	assert.InDelta(t, 0.0, imp[1].Importance, 1e-9)
	assert.GreaterOrEqual(t, imp[1].Importance, 0.0)

	again, err := FeatureImportance(lr, X, y, []string{"signal", "noise"}, WithSeed(DefaultImportanceSeed))
	require.NoError(t, err)
	assert.Equal(t, imp, again)

	// X must be left untouched
	assert.Equal(t, 199.0, X.At(199, 0))
	assert.Equal(t, 0.0, X.At(0, 0))
}

func TestFeatureImportanceErrors(t *testing.T) {
	X, y := planeData(20)
	lr := linear.NewLinearRegression()

	var de *errors.DimensionError
	_, err := FeatureImportance(lr, X, y, []string{"only"})
	assert.True(t, errors.As(err, &de))

	var nf *errors.NotFittedError
	_, err = FeatureImportance(lr, X, y, []string{"a", "b"})
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, lr.Fit(X, y))
	var pe *errors.InvalidParameterError
	_, err = FeatureImportance(lr, X, y, []string{"a", "b"}, WithRepeats(0))
	assert.True(t, errors.As(err, &pe))
}
