// Package bootstrap implements an iterative conjecture-prove
// curriculum-learning loop for training a theorem-proving agent.
//
// Each round the controller poses a fixed set of held-out goal
// statements to the agent, dispatches one proof-search job per
// conjecture to the worker layer, classifies the collected outcomes
// into a curated training set tagged by difficulty, trains the agent on
// it, and checkpoints the run so it can resume at exact iteration
// boundaries.
//
// Key Components:
//
//   - core: Domain types (StudentResult, HindsightExample,
//     DifficultyBucket) and the interfaces to the external
//     collaborators: the proof-search engine, the derivation engine,
//     and the opaque agent.
//
//   - worker: Task dispatch over the proof-search layer. One
//     interface, two implementations: in-process sequential and
//     bounded-pool concurrent. Both preserve submission order and drop
//     errored jobs without aborting the round.
//
//   - teacher: The loop itself. Outcome classification, hindsight
//     deduplication and percentile thresholding, curriculum
//     accumulation, checkpoint/resume, and the iteration controller
//     state machine.
//
//   - engine: Exec-based adapters that drive an external engine
//     process through a JSON-over-stdio protocol.
//
//   - metrics: Per-iteration metrics sinks (JSONL file or SQLite).
//
//   - config, logging, errors: Run configuration with validated
//     defaults, structured severity logging, and coded errors.
//
// The cmd/bootstrap CLI wires everything together from a YAML
// configuration file.
package bootstrap
