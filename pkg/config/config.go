package config

// Config is the complete configuration for a bootstrap run. Every
// optional field has a documented default (see Default); the struct is
// resolved once at startup and never re-read during the loop.
type Config struct {
	// Task selects the loop to run. Only the teacher loop is implemented.
	Task string `yaml:"task" validate:"required,oneof=teacher"`

	// TotalIterations is the iteration count at which the loop terminates
	// with reason "exhausted".
	TotalIterations int `yaml:"total_iterations" validate:"required,min=1"`

	// CheckpointPerIteration selects per-iteration agent files ("{i}.bin")
	// instead of the rolling "model.bin" + "model_info.yaml" pair.
	CheckpointPerIteration bool `yaml:"checkpoint_per_iteration"`

	// Continue points at an existing run directory to resume from.
	// Empty means a fresh run. Missing or malformed state under this
	// directory is fatal; there is no silent fallback to a fresh start.
	Continue string `yaml:"continue"`

	// FreezeConjecturer is the ablation that suppresses labeled
	// conjecture examples. All other examples are still collected.
	FreezeConjecturer bool `yaml:"freeze_conjecturer"`

	// TrainPolicyOnHindsightExamples enables hindsight sub-goal
	// collection and percentile thresholding.
	TrainPolicyOnHindsightExamples bool `yaml:"train_policy_on_hindsight_examples"`

	// MCTSOnly short-circuits the loop right after the first dispatch,
	// without training. Diagnostic mode.
	MCTSOnly bool `yaml:"mcts_only"`

	// EarlyExit terminates the run once every held-out goal is solved.
	EarlyExit bool `yaml:"early_exit"`

	// DifficultyBuckets partition the hindsight log-probability
	// distribution. Sorted ascending by percentile before use.
	DifficultyBuckets []Bucket `yaml:"difficulty_buckets" validate:"dive"`

	// MaxMCTSNodes is the search-step budget under which a held-out goal
	// counts as solved during validation.
	MaxMCTSNodes int `yaml:"max_mcts_nodes" validate:"required,min=1"`

	// Seed initializes the run's RNG.
	Seed int64 `yaml:"seed"`

	// Theory names the background theory and its premise set.
	Theory Theory `yaml:"theory" validate:"required"`

	// Goals is the identifier of the held-out goal set, resolved to
	// "goals/<name>.json" under the goals directory.
	Goals string `yaml:"goals" validate:"required"`

	// GoalsDir and TheoriesDir locate the goal-set and theory files.
	GoalsDir    string `yaml:"goals_dir"`
	TheoriesDir string `yaml:"theories_dir"`

	// Engine configures the external search/training process.
	Engine Engine `yaml:"engine"`

	// RunDir is where checkpoints, artifacts, and the run log live.
	RunDir string `yaml:"run_dir"`

	// Dispatcher selects the task-dispatch implementation: "sync" runs
	// jobs inline one at a time, "pool" fans out on a bounded worker
	// pool. Business logic never branches on this; it only picks the
	// implementation at startup.
	Dispatcher string `yaml:"dispatcher" validate:"oneof=sync pool"`

	// MaxWorkers bounds the pool dispatcher's concurrency.
	MaxWorkers int `yaml:"max_workers" validate:"min=1"`

	// Metrics configures the per-iteration metrics sink.
	Metrics Metrics `yaml:"metrics"`

	// Logging configures the structured logger.
	Logging Logging `yaml:"logging"`
}

// Bucket is one named difficulty threshold.
type Bucket struct {
	Name       string  `yaml:"name" validate:"required"`
	Percentile float64 `yaml:"percentile" validate:"min=0,max=100"`
}

// Theory names the background theory file and premise list.
type Theory struct {
	Name     string   `yaml:"name" validate:"required"`
	Premises []string `yaml:"premises"`
}

// Engine names the external engine command. The controller invokes it
// once per operation with the operation name as the last argument and a
// JSON payload on stdin.
type Engine struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// InitialState optionally seeds the agent from a serialized
	// parameter file for fresh runs.
	InitialState string `yaml:"initial_state"`
}

// Metrics configures the metrics sink backend.
type Metrics struct {
	// Backend is "jsonl" or "sqlite".
	Backend string `yaml:"backend" validate:"oneof=jsonl sqlite"`

	// Path of the sink file, relative to the run directory when not
	// absolute.
	Path string `yaml:"path"`
}

// Logging configures log verbosity and destinations.
type Logging struct {
	// Level is one of DEBUG, INFO, WARN, ERROR, FATAL.
	Level string `yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`

	// File mirrors console logs into the run directory when set.
	File string `yaml:"file"`
}
