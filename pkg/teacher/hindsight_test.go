package teacher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremlab/bootstrap/internal/testutil"
	"github.com/theoremlab/bootstrap/pkg/core"
)

var testBuckets = core.SortBuckets([]core.DifficultyBucket{
	{Name: "easy", Percentile: 100},
	{Name: "hard", Percentile: 0},
	{Name: "medium", Percentile: 50},
})

func TestCollectHindsightDeduplicatesByGoal(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", Examples: []string{"ex-a1"}, LogProb: -1.0},
		}},
		{Problem: "b", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", Examples: []string{"ex-b1"}, LogProb: -5.0}, // duplicate goal
			{Goal: "g2", Examples: []string{"ex-b2"}, LogProb: -3.0},
		}},
	}

	set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, false)
	require.NoError(t, err)

	// Only the first-encountered g1 contributes, to both the example set
	// and the threshold sample.
	assert.Equal(t, []float64{-1.0, -3.0}, set.LogProbs)
	assert.Contains(t, set.Examples, "ex-a1")
	assert.Contains(t, set.Examples, "ex-b2")
	assert.NotContains(t, set.Examples, "ex-b1")
}

func TestCollectHindsightLabelsAreAlwaysHard(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", Success: false, HindsightExamples: []core.HindsightExample{
			{Goal: "g1", Examples: []string{"ex-1"}, LogProb: -2.0},
		}},
	}

	set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Conj:(hard) a", "ex-1"}, set.Examples)
}

func TestCollectHindsightFrozenConjecturerSkipsLabels(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", Examples: []string{"ex-1"}, LogProb: -2.0},
		}},
	}

	set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"ex-1"}, set.Examples)
	assert.Equal(t, []float64{-2.0}, set.LogProbs)
}

func TestCollectHindsightThresholds(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", LogProb: -4.0},
			{Goal: "g2", LogProb: -3.0},
			{Goal: "g3", LogProb: -2.0},
			{Goal: "g4", LogProb: -1.0},
		}},
	}

	set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, false)
	require.NoError(t, err)

	// Buckets sorted ascending: 0, 50, 100.
	require.Len(t, set.Thresholds, 3)
	assert.InDelta(t, -4.0, set.Thresholds[0], 1e-9)
	assert.InDelta(t, -2.5, set.Thresholds[1], 1e-9)
	assert.InDelta(t, -1.0, set.Thresholds[2], 1e-9)

	// Broadest hard cut is the lowest threshold: every logprob >= -4.0.
	assert.InDelta(t, -2.5, set.MeanHardSolLogProb, 1e-9)
}

func TestCollectHindsightMeanUsesLowestBucketCut(t *testing.T) {
	buckets := core.SortBuckets([]core.DifficultyBucket{
		{Name: "hard", Percentile: 50},
		{Name: "easy", Percentile: 100},
	})

	results := []core.StudentResult{
		{Problem: "a", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", LogProb: -4.0},
			{Goal: "g2", LogProb: -3.0},
			{Goal: "g3", LogProb: -2.0},
			{Goal: "g4", LogProb: -1.0},
		}},
	}

	set, err := CollectHindsight(results, buckets, testutil.IdentityDeriver{}, false)
	require.NoError(t, err)

	// 50th percentile of [-4,-3,-2,-1] is -2.5; the cut keeps [-2,-1].
	assert.InDelta(t, -1.5, set.MeanHardSolLogProb, 1e-9)
}

func TestCollectHindsightEmptySample(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", Success: false},
	}

	set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, false)
	require.NoError(t, err)

	// Percentile of an empty sample is undefined: no thresholds are
	// published and the mean falls back to zero.
	assert.Nil(t, set.Thresholds)
	assert.Equal(t, 0.0, set.MeanHardSolLogProb)
	assert.Empty(t, set.Examples)
}

func TestCollectHindsightFreshSeenSetPerCall(t *testing.T) {
	results := []core.StudentResult{
		{Problem: "a", HindsightExamples: []core.HindsightExample{
			{Goal: "g1", Examples: []string{"ex-1"}, LogProb: -2.0},
		}},
	}

	// Deduplication is within-round only: a second round sees the same
	// goal again.
	for round := 0; round < 2; round++ {
		set, err := CollectHindsight(results, testBuckets, testutil.IdentityDeriver{}, false)
		require.NoError(t, err)
		assert.Equal(t, []float64{-2.0}, set.LogProbs, "round %d", round)
	}
}
