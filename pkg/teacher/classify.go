package teacher

import (
	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
)

// Classification is what one round of collected results boils down to.
type Classification struct {
	// SuccessLogProbs holds, in result order, the log-probability of
	// every successful proof.
	SuccessLogProbs []float64

	// RatioProven is successes over the number of conjectures originally
	// submitted. A job dropped for a worker error still counts against
	// the denominator.
	RatioProven float64

	// MeanHardSolLogProb is the mean of SuccessLogProbs, zero when the
	// round had no successes. Superseded by the hindsight statistic when
	// hindsight training is enabled.
	MeanHardSolLogProb float64

	// ConjectureExamples are the labeled "Conj:(<outcome>) ..." training
	// strings. Empty when the conjecturer is frozen.
	ConjectureExamples []string

	// ExtractedExamples are the sub-derivation training strings each
	// result produced incidentally, in result order.
	ExtractedExamples []string

	// Proven and Proofs record the conjectures proven this round and
	// their proof artifacts, aligned.
	Proven []string
	Proofs []string
}

// Classify labels each collected result and computes the round's
// success statistics. The outcome taxonomy is two-valued: "hard" on
// success, "fail" otherwise. Finer difficulty comes only from the
// hindsight thresholds.
func Classify(results []core.StudentResult, submitted int, deriver core.Deriver,
	freezeConjecturer bool) (Classification, error) {

	var cls Classification

	for _, result := range results {
		if result.Success {
			cls.SuccessLogProbs = append(cls.SuccessLogProbs, result.LogProb)
		}
	}

	if submitted > 0 {
		cls.RatioProven = float64(len(cls.SuccessLogProbs)) / float64(submitted)
	}
	cls.MeanHardSolLogProb = core.Mean(cls.SuccessLogProbs)

	for _, result := range results {
		outcome := core.OutcomeFail
		if result.Success {
			outcome = core.OutcomeHard
		}

		if !freezeConjecturer {
			elaborated, err := deriver.Elaborate(result.Problem)
			if err != nil {
				return Classification{}, errors.WithFields(
					errors.Wrap(err, errors.ElaborationFailed, "elaborating conjecture"),
					errors.Fields{"statement": result.Problem},
				)
			}
			cls.ConjectureExamples = append(cls.ConjectureExamples, core.LabelConjecture(outcome, elaborated))
		}

		if result.Success {
			cls.Proven = append(cls.Proven, result.Problem)
			cls.Proofs = append(cls.Proofs, result.Proof)
		}

		cls.ExtractedExamples = append(cls.ExtractedExamples, result.ExtractedExamples...)
	}

	return cls, nil
}
