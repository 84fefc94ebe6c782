package core

import "fmt"

// Outcome labels attached to conjecture training examples. The primary
// classification is two-valued: a proven conjecture is "hard", an
// unproven one is "fail". Finer difficulty distinctions come from the
// hindsight percentile thresholds, not from this label.
const (
	OutcomeHard = "hard"
	OutcomeFail = "fail"
)

// HardGoalPrefix marks held-out final goals when they are posed as
// conjectures.
const HardGoalPrefix = "Conj:(hard) "

// LabelConjecture formats an elaborated statement as a training example
// tagged with its outcome.
func LabelConjecture(outcome, elaborated string) string {
	return fmt.Sprintf("Conj:(%s) %s", outcome, elaborated)
}

// MarkHard tags a held-out goal with the hard-provenance prefix.
func MarkHard(goal string) string {
	return HardGoalPrefix + goal
}

// BackgroundTheory is the fixed axiom set and premise list a worker uses
// to evaluate a conjecture.
type BackgroundTheory struct {
	Source   string   `json:"source"`
	Premises []string `json:"premises"`
}

// HindsightExample is a sub-goal incidentally reached during search,
// relabeled as a training target. It exists only within one iteration's
// processing window.
type HindsightExample struct {
	Goal     string   `json:"goal"`     // Identity key for deduplication
	Examples []string `json:"examples"` // Training strings
	LogProb  float64  `json:"logprob"`  // Search signal used for thresholding
}

// StudentResult is the outcome of one proof-search job. Produced exactly
// once per submitted job, owned by the controller after collection, and
// never mutated after creation.
type StudentResult struct {
	Problem           string             `json:"problem"`
	Success           bool               `json:"success"`
	LogProb           float64            `json:"logprob"` // Meaningful only if Success
	Proof             string             `json:"proof,omitempty"`
	ExtractedExamples []string           `json:"extracted_examples,omitempty"`
	HindsightExamples []HindsightExample `json:"hindsight_examples,omitempty"`
	Iterations        int                `json:"iterations"` // Search steps consumed
	Error             string             `json:"error,omitempty"`
}

// DifficultyBucket pairs a named difficulty with a percentile value.
// The sorted list of buckets partitions the hindsight log-probability
// distribution.
type DifficultyBucket struct {
	Name       string
	Percentile float64
}

// Job is one proof-search task handed to a worker. The agent snapshot is
// a frozen serialized copy taken before submission, so concurrent jobs
// never observe an agent mutated mid-round.
type Job struct {
	AgentSnapshot []byte
	Theory        BackgroundTheory
	Statement     string
	EvalBudget    bool // Enlarged search budget for validation rounds
}
