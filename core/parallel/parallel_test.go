package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
		want    []Range
	}{
		{"empty", 0, 4, nil},
		{"fewer items than workers", 2, 8, []Range{{0, 1}, {1, 2}}},
		{"even", 8, 4, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"uneven", 10, 4, []Range{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"zero workers", 3, 0, []Range{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.items, tt.workers))
		})
	}
}

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	const n = 5000
	hits := make([]int32, n)
	ParallelizeWithThreshold(n, 100, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, DefaultThreshold, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)

	ParallelizeWithThreshold(0, DefaultThreshold, func(int, int) { t.Fatal("must not be called") })
}
