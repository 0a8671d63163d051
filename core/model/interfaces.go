// Package model defines the interfaces shared by every predictor and
// transformer, the fitted-state bookkeeping they embed, and the enumeration
// of model kinds the dashboard can train.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。再度呼び出すと以前のパラメータは上書きされる。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う（n×1 の行列を返す）
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Model は学習と予測の両方を持つモデル
type Model interface {
	Fitter
	Predictor
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Model
	Scorer
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Regressor
	// Coefficients は学習された係数を返す（切片を除く）
	Coefficients() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
