// Package cluster はロイドのアルゴリズムによるK-meansクラスタリングを提供する。
package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/pkg/errors"
)

// 初期化方法
const (
	InitKMeansPlusPlus = "k-means++"
	InitRandom         = "random"
)

// デフォルトのハイパーパラメータ
const (
	DefaultK       = 3
	DefaultMaxIter = 100
	DefaultNInit   = 3
	DefaultSeed    = 42

	modelName = "KMeans"
)

// KMeans はK-meansクラスタリング
//
// 乱数はすべて seed から生成されるため、同じ入力と設定に対して Fit は常に同じ結果を返す。
// 同じインスタンスの Fit を並行に呼び出してはならない。
type KMeans struct {
	state *model.StateManager

	// ハイパーパラメータ
	k       int    // クラスタ数
	maxIter int    // 最大イテレーション数
	nInit   int    // 異なる初期化での実行回数
	init    string // 初期化方法: "k-means++", "random"
	seed    uint64 // 乱数シード

	// 学習パラメータ
	centroids [][]float64 // クラスタ中心（k x nFeatures）
	labels    []int       // 各サンプルのクラスタラベル
	inertia   float64     // クラスタ内平方和誤差
	nIter     int         // 実行されたイテレーション数
	converged bool
}

// Option は KMeans の設定関数
type Option func(*KMeans)

// WithK はクラスタ数を設定する
func WithK(k int) Option {
	return func(km *KMeans) { km.k = k }
}

// WithMaxIter は最大イテレーション数を設定する
func WithMaxIter(n int) Option {
	return func(km *KMeans) { km.maxIter = n }
}

// WithNInit は初期化を変えて実行する回数を設定する（慣性が最小の結果を採用）
func WithNInit(n int) Option {
	return func(km *KMeans) { km.nInit = n }
}

// WithInit は初期化方法を設定する（InitKMeansPlusPlus または InitRandom）
func WithInit(init string) Option {
	return func(km *KMeans) { km.init = init }
}

// WithSeed は乱数シードを設定する
func WithSeed(seed uint64) Option {
	return func(km *KMeans) { km.seed = seed }
}

// NewKMeans は新しいKMeansを作成する
func NewKMeans(opts ...Option) *KMeans {
	km := &KMeans{
		state:   model.NewStateManager(),
		k:       DefaultK,
		maxIter: DefaultMaxIter,
		nInit:   DefaultNInit,
		init:    InitKMeansPlusPlus,
		seed:    DefaultSeed,
	}
	for _, opt := range opts {
		opt(km)
	}
	return km
}

func (km *KMeans) validate(rows int) error {
	switch {
	case km.k < 1:
		return errors.NewInvalidParameterError("k", "must be >= 1", km.k)
	case km.maxIter < 1:
		return errors.NewInvalidParameterError("max_iter", "must be >= 1", km.maxIter)
	case km.nInit < 1:
		return errors.NewInvalidParameterError("n_init", "must be >= 1", km.nInit)
	case km.init != InitKMeansPlusPlus && km.init != InitRandom:
		return errors.NewInvalidParameterError("init", "want k-means++ or random", km.init)
	case rows < km.k:
		return errors.NewInsufficientDataError("KMeans.Fit", km.k, rows)
	}
	return nil
}

// Fit はXをクラスタリングする。y は使われないので nil でよい。
//
// MaxIter までに割り当てが収束しなかった場合は ConvergenceWarning を出す。
func (km *KMeans) Fit(X, _ mat.Matrix) error {
	rows, cols := X.Dims()
	if cols == 0 {
		return errors.NewInsufficientDataError("KMeans.Fit", 1, 0)
	}
	if err := km.validate(rows); err != nil {
		return err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}
	for _, row := range data {
		if err := errors.CheckNumericalStability("KMeans.Fit", row); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewPCG(km.seed, km.seed^0x5851f42d4c957f2d))

	// 複数回実行して最良の結果を選択
	var best *run
	for i := 0; i < km.nInit; i++ {
		res := km.fitSingleRun(data, rng)
		if best == nil || res.inertia < best.inertia {
			best = res
		}
	}

	if !best.converged {
		errors.Warn(errors.NewConvergenceWarning(modelName, best.nIter, ""))
	}

	km.centroids = best.centroids
	km.labels = best.labels
	km.inertia = best.inertia
	km.nIter = best.nIter
	km.converged = best.converged
	km.state.SetFitted(cols, rows)
	return nil
}

type run struct {
	centroids [][]float64
	labels    []int
	inertia   float64
	nIter     int
	converged bool
}

// fitSingleRun は単一回のロイド反復を実行する
func (km *KMeans) fitSingleRun(data [][]float64, rng *rand.Rand) *run {
	centroids := km.initializeCenters(data, rng)
	labels := make([]int, len(data))
	for i := range labels {
		labels[i] = -1
	}

	res := &run{}
	for iter := 1; iter <= km.maxIter; iter++ {
		res.nIter = iter
		if !assign(data, centroids, labels) {
			res.converged = true
			break
		}
		updateCentroids(data, labels, centroids)
	}
	if !res.converged {
		// 最後の更新後の中心にラベルを合わせる
		assign(data, centroids, labels)
	}

	res.centroids = centroids
	res.labels = labels
	res.inertia = inertia(data, centroids, labels)
	return res
}

// assign は各行を最近傍の中心に割り当て、ラベルが変化したかを返す
func assign(data, centroids [][]float64, labels []int) bool {
	changed := false
	for i, row := range data {
		c := nearest(row, centroids)
		if labels[i] != c {
			labels[i] = c
			changed = true
		}
	}
	return changed
}

// updateCentroids は各中心を割り当てられた行の平均に更新する。
// 空のクラスタは前回の中心を維持する。
func updateCentroids(data [][]float64, labels []int, centroids [][]float64) {
	k, cols := len(centroids), len(centroids[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, cols)
	}
	for i, row := range data {
		c := labels[i]
		counts[c]++
		for j, v := range row {
			sums[c][j] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] = sums[c][j] / float64(counts[c])
		}
	}
}

// initializeCenters はクラスタ中心を初期化
func (km *KMeans) initializeCenters(data [][]float64, rng *rand.Rand) [][]float64 {
	if km.init == InitRandom {
		perm := rng.Perm(len(data))
		centers := make([][]float64, km.k)
		for c := range centers {
			centers[c] = append([]float64(nil), data[perm[c]]...)
		}
		return centers
	}
	return km.initKMeansPlusPlus(data, rng)
}

// initKMeansPlusPlus はk-means++初期化を実行
func (km *KMeans) initKMeansPlusPlus(data [][]float64, rng *rand.Rand) [][]float64 {
	rows := len(data)
	centers := make([][]float64, 0, km.k)
	chosen := make([]bool, rows)

	first := rng.IntN(rows)
	chosen[first] = true
	centers = append(centers, append([]float64(nil), data[first]...))

	distances := make([]float64, rows)
	for len(centers) < km.k {
		// 各サンプルから最近傍クラスタ中心までの距離の二乗
		total := 0.0
		for i, row := range data {
			distances[i] = sqDist(row, centers[nearest(row, centers)])
			total += distances[i]
		}

		selected := -1
		if total > 0 {
			// 確率に応じてサンプルを選択
			target := rng.Float64() * total
			cum := 0.0
			for i, d := range distances {
				cum += d
				if d > 0 && cum >= target {
					selected = i
					break
				}
			}
		}
		if selected < 0 {
			// 残りの点がすべて既存の中心と重なっている場合は未選択の行から選ぶ
			for _, i := range rng.Perm(rows) {
				if !chosen[i] {
					selected = i
					break
				}
			}
		}
		chosen[selected] = true
		centers = append(centers, append([]float64(nil), data[selected]...))
	}
	return centers
}

// nearest は最近傍クラスタを返す（同距離なら番号の小さい方）
func nearest(row []float64, centers [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(row, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func inertia(data, centroids [][]float64, labels []int) float64 {
	total := 0.0
	for i, row := range data {
		total += sqDist(row, centroids[labels[i]])
	}
	return total
}

// sqDist はユークリッド距離の二乗
func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Predict は各行を学習済みの最近傍中心に割り当て、ラベルを n×1 の行列で返す。
// 中心は変更しない。
func (km *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	labels, err := km.PredictLabels(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(labels), nil)
	for i, l := range labels {
		out.SetVec(i, float64(l))
	}
	return out, nil
}

// PredictLabels は Predict と同じ割り当てを []int で返す
func (km *KMeans) PredictLabels(X mat.Matrix) ([]int, error) {
	if err := km.state.RequireFeatures(modelName, "Predict", X); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	labels := make([]int, rows)
	row := make([]float64, len(km.centroids[0]))
	for i := range labels {
		mat.Row(row, i, X)
		labels[i] = nearest(row, km.centroids)
	}
	return labels, nil
}

// Labels は学習データの各行のクラスタラベルを返す
func (km *KMeans) Labels() []int {
	if !km.state.IsFitted() {
		return nil
	}
	return append([]int(nil), km.labels...)
}

// Centroids はクラスタ中心を k×nFeatures の行列で返す
func (km *KMeans) Centroids() *mat.Dense {
	if !km.state.IsFitted() {
		return nil
	}
	out := mat.NewDense(len(km.centroids), len(km.centroids[0]), nil)
	for c, center := range km.centroids {
		out.SetRow(c, center)
	}
	return out
}

// Sizes は各クラスタに割り当てられた学習データの行数を返す
func (km *KMeans) Sizes() []int {
	if !km.state.IsFitted() {
		return nil
	}
	sizes := make([]int, len(km.centroids))
	for _, l := range km.labels {
		sizes[l]++
	}
	return sizes
}

// Inertia はクラスタ内平方和誤差を返す
func (km *KMeans) Inertia() float64 { return km.inertia }

// NIter は採用された実行のイテレーション数を返す
func (km *KMeans) NIter() int { return km.nIter }

// Converged は採用された実行が MaxIter 以内に収束したかを返す
func (km *KMeans) Converged() bool { return km.converged }

// K は設定されたクラスタ数を返す
func (km *KMeans) K() int { return km.k }

// IsFitted はモデルが学習済みかどうかを返す
func (km *KMeans) IsFitted() bool { return km.state.IsFitted() }

var _ model.Model = (*KMeans)(nil)
