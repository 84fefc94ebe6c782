package teacher

// Accumulate merges one round's classified outcomes and hindsight
// contribution into the example sequence handed to training. The fixed
// order is: labeled conjecture examples, extracted examples in result
// order, then hindsight examples. The order carries no semantics; it
// only has to be deterministic so runs are reproducible.
func Accumulate(cls Classification, hindsight *HindsightSet) []string {
	size := len(cls.ConjectureExamples) + len(cls.ExtractedExamples)
	if hindsight != nil {
		size += len(hindsight.Examples)
	}

	examples := make([]string, 0, size)
	examples = append(examples, cls.ConjectureExamples...)
	examples = append(examples, cls.ExtractedExamples...)
	if hindsight != nil {
		examples = append(examples, hindsight.Examples...)
	}
	return examples
}

// AppendProven extends the run-wide proven-conjecture list with this
// round's proofs. The running list is append-only across the run; a
// fresh slice is returned so no round aliases another round's state.
func AppendProven(running, provenThisRound []string) []string {
	updated := make([]string, 0, len(running)+len(provenThisRound))
	updated = append(updated, running...)
	updated = append(updated, provenThisRound...)
	return updated
}
