// Package parallel splits row ranges across goroutines for loops whose
// iterations write disjoint output.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count at or below which work stays on the
// calling goroutine.
const DefaultThreshold = 1000

// Range is a half-open interval [Start, End) of item indices.
type Range struct {
	Start, End int
}

// Split divides items into at most workers contiguous, non-empty ranges of
// near-equal size (ceiling division).
func Split(items, workers int) []Range {
	if items <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers
	ranges := make([]Range, 0, workers)
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Parallelize runs fn over Split(items, GOMAXPROCS) and waits for all ranges.
// fn must only write state owned by its own range.
func Parallelize(items int, fn func(start, end int)) {
	ranges := Split(items, runtime.GOMAXPROCS(0))
	if len(ranges) == 1 {
		fn(ranges[0].Start, ranges[0].End)
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(r Range) {
			defer wg.Done()
			fn(r.Start, r.End)
		}(r)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) sequentially when items <= threshold
// and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
