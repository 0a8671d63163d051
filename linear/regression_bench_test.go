package linear

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData はベンチマーク用のデータを生成する（y = 1 + Σ 0.5(j+1)x_j + ノイズ）
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2.0 - 1.0
			X.Set(i, j, v)
			sum += v * float64(j+1) * 0.5
		}
		y.Set(i, 0, sum+(rng.Float64()-0.5)*0.1)
	}
	return X, y
}

// BenchmarkLinearRegressionFit は並列化の閾値（1000 行）の前後で Fit を測定する
func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Sequential_500x4", 500, 4},
		{"Sequential_1000x4", 1000, 4},
		{"Parallel_2000x4", 2000, 4},
		{"Parallel_10000x8", 10000, 8},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createBenchmarkData(size.rows, size.cols)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkDesignMatrix は切片列の追加部分のみを測定する
func BenchmarkDesignMatrix(b *testing.B) {
	for _, rows := range []int{1000, 5000} {
		X, _ := createBenchmarkData(rows, 8)
		b.Run("rows_"+strconv.Itoa(rows), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = designMatrix(X)
			}
		})
	}
}
