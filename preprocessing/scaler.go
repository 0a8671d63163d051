// Package preprocessing は特徴量のスケーリングを提供する。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

const scalerName = "StandardScaler"

// StandardScaler は特徴量を平均0、標準偏差1に変換する。
// 標準偏差は母標準偏差（n で割る）を使う。
type StandardScaler struct {
	state *model.StateManager

	// WithMean は平均を引くかどうか
	WithMean bool
	// WithStd は標準偏差で割るかどうか
	WithStd bool

	mean  []float64 // 各特徴量の平均値
	scale []float64 // 各特徴量の標準偏差（定数列は 1）
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから列ごとの平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewInsufficientDataError("StandardScaler.Fit", 1, r)
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m, sd := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			mean[j] = m
		}
		scale[j] = 1.0
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if s.WithStd && sd > 1e-8 {
			scale[j] = sd
		}
	}
	if err := errors.CheckNumericalStability("StandardScaler.Fit", append(mean, scale...)); err != nil {
		return err
	}

	s.mean = mean
	s.scale = scale
	s.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFeatures(scalerName, "Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.mean[j]) / s.scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFeatures(scalerName, "InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.scale[j] + s.mean[j]
	}, X)
	return result, nil
}

// Mean は各特徴量の平均値を返す
func (s *StandardScaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale は各特徴量の標準偏差を返す
func (s *StandardScaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	n, _ := s.state.Dimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, n)
}

var _ model.Transformer = (*StandardScaler)(nil)
