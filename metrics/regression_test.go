package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:      0.0,
			tolerance: 1e-10,
		},
		{
			name:      "simple case",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:      0.25, // (0.25 * 4) / 4
			tolerance: 1e-10,
		},
		{
			name:      "larger errors",
			yTrue:     mat.NewVecDense(3, []float64{10.0, 20.0, 30.0}),
			yPred:     mat.NewVecDense(3, []float64{12.0, 18.0, 33.0}),
			want:      17.0 / 3.0, // (4 + 4 + 9) / 3
			tolerance: 1e-10,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestRMSEAndMAE(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{3, -0.5, 2, 7})
	yPred := mat.NewVecDense(4, []float64{2.5, 0.0, 2, 8})

	rmse, err := RMSE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.375), rmse, 1e-12)

	mae, err := MAE(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, mae, 1e-12)

	_, err = MAE(yTrue, mat.NewVecDense(1, []float64{1}))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestR2Score(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{3, -0.5, 2, 7})
	yPred := mat.NewVecDense(4, []float64{2.5, 0.0, 2, 8})

	r2, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.9486081370449679, r2, 1e-12)

	r2, err = R2Score(yTrue, yTrue)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)
}

func TestR2ScoreConstantTarget(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	constant := mat.NewVecDense(3, []float64{5, 5, 5})

	r2, err := R2Score(constant, constant)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r2)

	r2, err = R2Score(constant, mat.NewVecDense(3, []float64{5, 6, 5}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, r2)
	assert.False(t, math.IsNaN(r2))

	require.Len(t, warnings, 2)
	var w *errors.UndefinedMetricWarning
	assert.True(t, errors.As(warnings[1], &w))
	assert.Equal(t, 0.0, w.Result)
}

func TestEvaluateRegression(t *testing.T) {
	actual := mat.NewDense(4, 1, []float64{3, -0.5, 2, 7})
	predicted := mat.NewDense(4, 1, []float64{2.5, 0.0, 2, 8})

	res, err := EvaluateRegression(actual, predicted)
	require.NoError(t, err)
	assert.Equal(t, 4, res.N)
	assert.InDelta(t, 0.9486081370449679, res.R2, 1e-12)
	assert.InDelta(t, math.Sqrt(0.375), res.RMSE, 1e-12)
	assert.InDelta(t, 0.5, res.MAE, 1e-12)
	assert.InDelta(t, 0.375, res.MSE, 1e-12)

	// vectors are accepted as-is
	res2, err := EvaluateRegression(mat.NewVecDense(4, []float64{3, -0.5, 2, 7}), predicted)
	require.NoError(t, err)
	assert.Equal(t, res, res2)
}

func TestEvaluateRegressionErrors(t *testing.T) {
	var de *errors.DimensionError

	_, err := EvaluateRegression(mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil))
	require.True(t, errors.As(err, &de), "length mismatch")
	assert.Equal(t, 0, de.Axis)

	_, err = EvaluateRegression(mat.NewDense(2, 2, nil), mat.NewDense(2, 1, nil))
	assert.True(t, errors.As(err, &de), "not a column")

	_, err = EvaluateRegression(&mat.VecDense{}, &mat.VecDense{})
	assert.True(t, errors.Is(err, errors.ErrInsufficientData))
}
