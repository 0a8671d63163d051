// Package metrics は回帰モデルの評価指標（MSE, RMSE, MAE, R²）を提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Regression は EvaluateRegression の結果
type Regression struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	// N は評価に使われた行数
	N int `json:"n"`
}

// EvaluateRegression は実測値と予測値（n×1 の行列またはベクトル）から
// R², RMSE, MAE, MSE をまとめて計算する。
//
// 長さが異なる場合は DimensionError、空の場合は InsufficientDataError を返す。
// 実測値が定数（SS_tot == 0）の場合の R² は R2Score を参照。
func EvaluateRegression(actual, predicted mat.Matrix) (Regression, error) {
	yTrue, err := ToVec("EvaluateRegression", actual)
	if err != nil {
		return Regression{}, err
	}
	yPred, err := ToVec("EvaluateRegression", predicted)
	if err != nil {
		return Regression{}, err
	}
	if err := check("EvaluateRegression", yTrue, yPred); err != nil {
		return Regression{}, err
	}

	mse, _ := MSE(yTrue, yPred)
	mae, _ := MAE(yTrue, yPred)
	r2, _ := R2Score(yTrue, yPred)
	res := Regression{R2: r2, RMSE: math.Sqrt(mse), MAE: mae, MSE: mse, N: yTrue.Len()}
	if err := errors.CheckNumericalStability("EvaluateRegression", []float64{res.R2, res.RMSE, res.MAE}); err != nil {
		return Regression{}, err
	}
	return res, nil
}

// ToVec は n×1 の行列を VecDense に変換する。*mat.VecDense はそのまま返す。
func ToVec(op string, m mat.Matrix) (*mat.VecDense, error) {
	if v, ok := m.(*mat.VecDense); ok {
		return v, nil
	}
	r, c := m.Dims()
	if r == 0 {
		return nil, errors.NewInsufficientDataError(op, 1, 0)
	}
	if c != 1 {
		return nil, errors.NewDimensionError(op, 1, c, 1)
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// check は長さの一致と空でないことを検証する
func check(op string, yTrue, yPred *mat.VecDense) error {
	n := yTrue.Len()
	if yPred.Len() != n {
		return errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	if n == 0 {
		return errors.NewInsufficientDataError(op, 1, 0)
	}
	return nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := check("MSE", yTrue, yPred); err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := check("MAE", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// 実測値がすべて同じ値（SS_tot == 0）の場合はゼロ除算を避け、
// 予測が完全一致なら 1、そうでなければ 0 を返して UndefinedMetricWarning を出す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := check("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		res := yt - yPred.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += res * res
	}

	if tss == 0 {
		result := 0.0
		if rss == 0 {
			result = 1.0
		}
		errors.Warn(errors.NewUndefinedMetricWarning("r2", "constant actual values", result))
		return result, nil
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}
