package teacher

import (
	"context"
	"fmt"
	"time"

	"github.com/theoremlab/bootstrap/pkg/config"
	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
	"github.com/theoremlab/bootstrap/pkg/logging"
	"github.com/theoremlab/bootstrap/pkg/metrics"
	"github.com/theoremlab/bootstrap/pkg/worker"
)

// ValLossSentinel is reported as the validation loss when no held-out
// goal was solved during validation. It signals "no solution found",
// not a numeric loss.
const ValLossSentinel = 10.0

// TerminationReason says why the loop stopped.
type TerminationReason string

const (
	// TerminatedExhausted means the configured iteration count ran out.
	TerminatedExhausted TerminationReason = "exhausted"

	// TerminatedConverged means every held-out goal was solved and early
	// exit was enabled.
	TerminatedConverged TerminationReason = "converged"

	// TerminatedSearchOnly means the mcts_only diagnostic short-circuit
	// fired after the first dispatch.
	TerminatedSearchOnly TerminationReason = "search_only"
)

// Deps are the collaborators the controller drives. All are required
// except RunLog, which may be nil in tests.
type Deps struct {
	Agent       core.Agent
	Dispatcher  worker.Dispatcher
	Deriver     core.Deriver
	Sink        metrics.Sink
	Checkpoints *CheckpointManager
	RunLog      *RunLog

	// FinalGoals is the fixed held-out goal set, already formatted.
	FinalGoals []string

	// Theory is the shared background theory for every job.
	Theory core.BackgroundTheory
}

// Controller is the top-level state machine sequencing one round after
// another: dispatch, classify, accumulate, train, validate, persist.
// A single goroutine drives it; each round is a synchronization
// barrier.
type Controller struct {
	cfg    *config.Config
	deps   Deps
	logger *logging.Logger

	buckets     []core.DifficultyBucket // sorted ascending by percentile
	taggedGoals []string                // final goals with hard-provenance prefix

	// provenConjectures is append-only across the whole run.
	provenConjectures []string

	elapsed time.Duration
	reason  TerminationReason
}

// NewController validates the dependencies, sorts the difficulty
// buckets, incorporates the theory into the derivation engine, and tags
// the held-out goals.
func NewController(cfg *config.Config, deps Deps) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New(errors.ConfigInvalid, "nil configuration")
	}
	if deps.Agent == nil || deps.Dispatcher == nil || deps.Deriver == nil ||
		deps.Sink == nil || deps.Checkpoints == nil {
		return nil, errors.New(errors.InvalidInput, "controller missing a required dependency")
	}
	if len(deps.FinalGoals) == 0 {
		return nil, errors.New(errors.ConfigInvalid, "empty final goal set")
	}

	if err := deps.Deriver.Incorporate(deps.Theory.Source); err != nil {
		return nil, errors.Wrap(err, errors.ConfigInvalid, "incorporating background theory")
	}

	buckets := make([]core.DifficultyBucket, len(cfg.DifficultyBuckets))
	for i, b := range cfg.DifficultyBuckets {
		buckets[i] = core.DifficultyBucket{Name: b.Name, Percentile: b.Percentile}
	}

	taggedGoals := make([]string, len(deps.FinalGoals))
	for i, goal := range deps.FinalGoals {
		taggedGoals[i] = core.MarkHard(goal)
	}

	return &Controller{
		cfg:         cfg,
		deps:        deps,
		logger:      logging.GetLogger(),
		buckets:     core.SortBuckets(buckets),
		taggedGoals: taggedGoals,
	}, nil
}

// Reason reports why the last Run terminated.
func (c *Controller) Reason() TerminationReason {
	return c.reason
}

// ProvenConjectures returns the run-wide append-only proven list.
func (c *Controller) ProvenConjectures() []string {
	return append([]string(nil), c.provenConjectures...)
}

// Run drives the loop from INIT through RUNNING(i) to TERMINATED.
func (c *Controller) Run(ctx context.Context) error {
	start := 0
	if c.cfg.Continue != "" {
		c.logger.Info(ctx, "Continuing run from %s", c.cfg.Continue)
		resumed, err := c.deps.Checkpoints.Resume(c.deps.Agent)
		if err != nil {
			return err
		}
		start = resumed
		c.logger.Info(ctx, "Starting from iteration %d", start)
	}

	if c.cfg.FreezeConjecturer {
		c.logger.Info(ctx, "Ablation: freezing conjecturer.")
	}
	c.logger.Info(ctx, "Running with %s dispatch.", c.cfg.Dispatcher)

	for i := start; i < c.cfg.TotalIterations; i++ {
		if err := errors.CheckContext(ctx, "teacher loop"); err != nil {
			return err
		}

		stop, err := c.runIteration(logging.WithIteration(ctx, i), i)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}

	c.reason = TerminatedExhausted
	c.logger.Info(ctx, "Iteration budget exhausted after %d iterations.", c.cfg.TotalIterations)
	return nil
}

// runIteration executes one RUNNING(i) transition. It returns stop=true
// when the loop should terminate before the iteration budget runs out.
func (c *Controller) runIteration(ctx context.Context, i int) (bool, error) {
	// Curriculum generation over novel conjectures is out of scope: the
	// held-out goals are re-posed every round.
	conjectures := c.deps.FinalGoals
	c.logger.Info(ctx, "Skipping conjecture generation, using %d final goals", len(conjectures))

	if err := c.record(i, fmt.Sprintf("It #%d: posing %d conjectures.", i, len(conjectures)), conjectures); err != nil {
		return false, err
	}

	begin := time.Now()
	results, err := c.deps.Dispatcher.Dispatch(ctx, c.deps.Agent, conjectures, c.deps.Theory, false)
	if err != nil {
		return false, err
	}

	if c.cfg.MCTSOnly {
		c.elapsed += time.Since(begin)
		c.reason = TerminatedSearchOnly
		c.logger.Info(ctx, "Time elapsed after iteration %d: %s", i, c.elapsed)
		return true, nil
	}

	cls, err := Classify(results, len(conjectures), c.deps.Deriver, c.cfg.FreezeConjecturer)
	if err != nil {
		return false, err
	}
	c.logger.Info(ctx, "%d out of %d conjectures proven. ratio = %f",
		len(cls.SuccessLogProbs), len(conjectures), cls.RatioProven)

	meanHardSolLogProb := cls.MeanHardSolLogProb

	var hindsight *HindsightSet
	if c.cfg.TrainPolicyOnHindsightExamples {
		set, err := CollectHindsight(results, c.buckets, c.deps.Deriver, c.cfg.FreezeConjecturer)
		if err != nil {
			return false, err
		}
		hindsight = &set
		meanHardSolLogProb = set.MeanHardSolLogProb
	}

	examples := Accumulate(cls, hindsight)
	c.provenConjectures = AppendProven(c.provenConjectures, cls.Proven)

	if err := c.record(i, fmt.Sprintf("Training on %d examples.", len(examples)), nil); err != nil {
		return false, err
	}
	c.logger.Info(ctx, "%d accumulated training examples.", len(examples))

	if err := c.deps.Agent.Train(ctx, examples, c.taggedGoals, cls.RatioProven); err != nil {
		return false, errors.Wrap(err, errors.TrainingFailed, "agent training failed")
	}
	c.elapsed += time.Since(begin)

	valLoss, searchSteps, err := c.validate(ctx)
	if err != nil {
		return false, err
	}
	if valLoss != ValLossSentinel {
		c.logger.Info(ctx, "Found solution during validation loss computation! Time elapsed: %s", c.elapsed)
	}

	c.logger.Info(ctx, "Time elapsed after iteration %d: %s", i, c.elapsed)
	c.logger.Info(ctx, "Validation loss: %f", valLoss)
	c.logger.Info(ctx, "Number of search steps to solve final goals: %v", searchSteps)

	solved := 0
	for _, steps := range searchSteps {
		if steps <= c.cfg.MaxMCTSNodes {
			solved++
		}
	}
	c.logger.Info(ctx, "Final goals proven: %d out of %d", solved, len(c.deps.FinalGoals))

	if err := c.deps.Sink.Update(
		map[string]int{"num_iterations": i},
		map[string]float64{
			"val_loss":                valLoss,
			"final_goals_proven":      float64(solved),
			"ratio_proven":            cls.RatioProven,
			"mean_hard_sol_log_probs": meanHardSolLogProb,
		},
	); err != nil {
		return false, err
	}
	if err := c.deps.Sink.Save(); err != nil {
		return false, err
	}

	if err := c.deps.Checkpoints.SaveArtifacts(i, examples, cls.Proven); err != nil {
		return false, err
	}
	if err := c.deps.Checkpoints.SaveAgent(c.deps.Agent, i); err != nil {
		return false, err
	}

	if solved == len(c.deps.FinalGoals) {
		c.logger.Info(ctx, "All final goals proven")
		if c.cfg.EarlyExit {
			c.reason = TerminatedConverged
			return true, nil
		}
	}

	return false, nil
}

// validate re-proves the held-out goals with the enlarged evaluation
// budget. The returned loss is the negative mean success
// log-probability, or the sentinel when nothing was solved. The step
// counts decide which goals count as solved this iteration.
func (c *Controller) validate(ctx context.Context) (float64, []int, error) {
	results, err := c.deps.Dispatcher.Dispatch(ctx, c.deps.Agent, c.deps.FinalGoals, c.deps.Theory, true)
	if err != nil {
		return 0, nil, err
	}

	var successLogProbs []float64
	searchSteps := make([]int, 0, len(results))
	for _, result := range results {
		if result.Success {
			successLogProbs = append(successLogProbs, result.LogProb)
		}
		searchSteps = append(searchSteps, result.Iterations)
	}

	mean := -ValLossSentinel
	if len(successLogProbs) > 0 {
		mean = core.Mean(successLogProbs)
	}

	return -mean, searchSteps, nil
}

func (c *Controller) record(iteration int, msg string, conjectures []string) error {
	if c.deps.RunLog == nil {
		return nil
	}
	return c.deps.RunLog.Record(iteration, msg, conjectures)
}
