// Package evaluation provides model-agnostic evaluation: k-fold splitting,
// cross-validation scored by R² and permutation feature importance.
package evaluation

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/insight/pkg/errors"
)

// Fold holds the row indices of one cross-validation split.
type Fold struct {
	Train []int `json:"train"`
	Test  []int `json:"test"`
}

// KFold splits rows into NSplits folds. Without Shuffle the folds are
// contiguous blocks in row order; with Shuffle the rows are permuted first
// using a PCG source seeded from Seed.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split generates train/test indices for each fold. The first
// nSamples % NSplits folds get one extra test row. Test sets are disjoint and
// their union is every row; indices inside each set are ascending.
func (kf *KFold) Split(nSamples int) ([]Fold, error) {
	if kf.NSplits < 2 {
		return nil, errors.NewInvalidParameterError("k", "must be >= 2", kf.NSplits)
	}
	if kf.NSplits > nSamples {
		return nil, errors.NewInvalidParameterError("k", "must not exceed the number of rows", kf.NSplits)
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits
	folds := make([]Fold, kf.NSplits)
	inTest := make([]bool, nSamples)

	current := 0
	for i := range folds {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		clear(inTest)
		for _, idx := range indices[current : current+testSize] {
			inTest[idx] = true
		}

		test := make([]int, 0, testSize)
		train := make([]int, 0, nSamples-testSize)
		for idx := 0; idx < nSamples; idx++ {
			if inTest[idx] {
				test = append(test, idx)
			} else {
				train = append(train, idx)
			}
		}
		folds[i] = Fold{Train: train, Test: test}
		current += testSize
	}
	return folds, nil
}
