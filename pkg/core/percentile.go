package core

import (
	"math"
	"sort"
)

// Percentile computes the p-th percentile (0 <= p <= 100) of values
// using linear interpolation between closest ranks. Matches the
// convention used by the reference statistics stacks, so thresholds are
// comparable across runs. Returns NaN for an empty sample.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Mean returns the arithmetic mean of values, or 0 for an empty sample.
// The zero fallback is the defined behavior for rounds with no
// successes, not an error.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SortBuckets returns a copy of buckets ordered ascending by
// percentile. The lowest bucket defines the broadest "hard" cut.
func SortBuckets(buckets []DifficultyBucket) []DifficultyBucket {
	sorted := make([]DifficultyBucket, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Percentile < sorted[j].Percentile
	})
	return sorted
}
