package teacher

import (
	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
)

// HindsightSet is the deduplicated hindsight contribution of one round.
type HindsightSet struct {
	// Examples holds the training strings of every first-seen goal, each
	// preceded by its "Conj:(hard) ..." label unless the conjecturer is
	// frozen. Hindsight goals are always labeled hard: they were reached
	// but were not the original target.
	Examples []string

	// LogProbs is the threshold sample, one entry per first-seen goal.
	LogProbs []float64

	// Thresholds has one percentile value per configured bucket, in the
	// buckets' ascending order. Nil when the round produced no hindsight
	// examples; percentile of an empty sample is undefined, so no
	// thresholds are published and the mean falls back to zero.
	Thresholds []float64

	// MeanHardSolLogProb is the mean of the log-probabilities at or
	// above the lowest bucket's threshold, the broadest hard cut. Zero
	// when that filtered set is empty. When hindsight training is
	// enabled this statistic supersedes the one from classification.
	MeanHardSolLogProb float64
}

// CollectHindsight deduplicates the batch's hindsight examples by goal
// identity and computes the percentile thresholds. Deduplication is
// within-round only: the seen-goal set starts fresh each iteration.
// Buckets must already be sorted ascending by percentile.
func CollectHindsight(results []core.StudentResult, buckets []core.DifficultyBucket,
	deriver core.Deriver, freezeConjecturer bool) (HindsightSet, error) {

	var set HindsightSet
	seenGoals := make(map[string]bool)

	for _, result := range results {
		for _, h := range result.HindsightExamples {
			if seenGoals[h.Goal] {
				continue
			}
			seenGoals[h.Goal] = true

			if !freezeConjecturer {
				elaborated, err := deriver.Elaborate(result.Problem)
				if err != nil {
					return HindsightSet{}, errors.WithFields(
						errors.Wrap(err, errors.ElaborationFailed, "elaborating hindsight source"),
						errors.Fields{"statement": result.Problem, "goal": h.Goal},
					)
				}
				set.Examples = append(set.Examples, core.LabelConjecture(core.OutcomeHard, elaborated))
			}

			set.Examples = append(set.Examples, h.Examples...)
			set.LogProbs = append(set.LogProbs, h.LogProb)
		}
	}

	if len(set.LogProbs) == 0 || len(buckets) == 0 {
		return set, nil
	}

	set.Thresholds = make([]float64, len(buckets))
	for i, bucket := range buckets {
		set.Thresholds[i] = core.Percentile(set.LogProbs, bucket.Percentile)
	}

	var hard []float64
	for _, logprob := range set.LogProbs {
		if logprob >= set.Thresholds[0] {
			hard = append(hard, logprob)
		}
	}
	set.MeanHardSolLogProb = core.Mean(hard)

	return set, nil
}
