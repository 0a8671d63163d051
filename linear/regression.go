// Package linear は正規方程式による最小二乗線形回帰を提供する。
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/core/parallel"
	"github.com/YuminosukeSato/insight/metrics"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

const modelName = "LinearRegression"

// LinearRegression は線形回帰モデル
//
// 同じインスタンスに対して Fit を並行に呼び出してはならない。
// 学習後の Predict / Score は並行に呼び出してよい。
type LinearRegression struct {
	state *model.StateManager

	alpha float64 // リッジ正則化の強さ（0 なら通常の最小二乗）

	coef      *mat.VecDense // 重み（係数）
	intercept float64       // 切片
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{state: model.NewStateManager()}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X + αI')^(-1) * X^T * y を使用（I' は切片を除く単位行列）
//
// X^T X が特異（特徴量の線形従属や定数列など）の場合は ErrSingularMatrix を
// ラップした NumericalFailureError を返し、NaN を含む係数を残さない。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewInsufficientDataError("LinearRegression.Fit", 1, r)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, cy, 1)
	}

	design := designMatrix(X)

	var XTX mat.Dense
	XTX.Mul(design.T(), design)
	if lr.alpha > 0 {
		// 切片項は正則化しない
		for j := 1; j <= c; j++ {
			XTX.Set(j, j, XTX.At(j, j)+lr.alpha)
		}
	}

	// 逆行列を計算（条件数が大きすぎる場合も gonum はエラーを返す）
	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewNumericalFailureError("LinearRegression.Fit",
			"normal equation is not invertible; remove collinear or constant features or set an alpha",
			errors.Wrap(errors.ErrSingularMatrix, err.Error()))
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(design.T(), yVec)

	weights := mat.NewVecDense(c+1, nil)
	weights.MulVec(&XTXInv, &XTy)
	if err := errors.CheckNumericalStability("LinearRegression.Fit", weights.RawVector().Data); err != nil {
		return errors.NewNumericalFailureError("LinearRegression.Fit", "non-finite coefficients", errors.ErrSingularMatrix)
	}

	// 切片と重みを分離。再学習時は以前のパラメータを上書きする
	lr.intercept = weights.AtVec(0)
	lr.coef = mat.NewVecDense(c, nil)
	lr.coef.CopyVec(weights.SliceVec(1, c+1))
	lr.state.SetFitted(c, r)
	return nil
}

// designMatrix は切片項のために X の先頭に 1 の列を追加した [1, X] を作る
func designMatrix(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	design := mat.NewDense(r, c+1, nil)
	// 行ごとに書き込み先が分かれているので並列化してよい
	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return design
}

// Predict は intercept + X · coefficients を行ごとに計算し n×1 の行列で返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFeatures(modelName, "Predict", X); err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.coef)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.intercept)
	}
	return predictions, nil
}

// Coefficients は学習された重み（係数）を返す。未学習なら nil。
func (lr *LinearRegression) Coefficients() []float64 {
	if !lr.state.IsFitted() {
		return nil
	}
	out := make([]float64, lr.coef.Len())
	copy(out, lr.coef.RawVector().Data)
	return out
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	if !lr.state.IsFitted() {
		return 0
	}
	return lr.intercept
}

// IsFitted はモデルが学習済みかどうかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Alpha は設定されたリッジ正則化の強さを返す
func (lr *LinearRegression) Alpha() float64 {
	return lr.alpha
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	res, err := metrics.EvaluateRegression(y, yPred)
	if err != nil {
		return 0, err
	}
	return res.R2, nil
}

var _ model.LinearModel = (*LinearRegression)(nil)
