package teacher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremlab/bootstrap/internal/testutil"
	"github.com/theoremlab/bootstrap/pkg/config"
	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
	"github.com/theoremlab/bootstrap/pkg/worker"
)

type testRun struct {
	cfg   *config.Config
	agent *testutil.FakeAgent
	sink  *testutil.RecordingSink
	dir   string
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Theory = config.Theory{Name: "groups", Premises: []string{"op_assoc"}}
	cfg.Goals = "test"
	cfg.TotalIterations = 1
	cfg.MaxMCTSNodes = 10
	cfg.TrainPolicyOnHindsightExamples = false
	cfg.RunDir = dir
	return cfg
}

func newTestRun(t *testing.T, cfg *config.Config) *testRun {
	t.Helper()
	return &testRun{
		cfg:   cfg,
		agent: &testutil.FakeAgent{State: []byte("init")},
		sink:  &testutil.RecordingSink{},
		dir:   cfg.RunDir,
	}
}

func (r *testRun) controller(t *testing.T, prover core.Prover, goals []string) *Controller {
	t.Helper()
	runLog, err := OpenRunLog(filepath.Join(r.dir, "log.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { runLog.Close() })

	ctrl, err := NewController(r.cfg, Deps{
		Agent:       r.agent,
		Dispatcher:  worker.NewSyncDispatcher(prover),
		Deriver:     testutil.IdentityDeriver{},
		Sink:        r.sink,
		Checkpoints: NewCheckpointManager(r.dir, r.cfg.CheckpointPerIteration),
		RunLog:      runLog,
		FinalGoals:  goals,
		Theory:      core.BackgroundTheory{Source: "op : [G -> G -> G].", Premises: r.cfg.Theory.Premises},
	})
	require.NoError(t, err)
	return ctrl
}

// solvedProver proves every goal quickly.
func solvedProver() core.Prover {
	return testutil.ProverFunc(func(ctx context.Context, job core.Job) (core.StudentResult, error) {
		return core.StudentResult{
			Problem:    job.Statement,
			Success:    true,
			LogProb:    -1.0,
			Proof:      "pf-" + job.Statement,
			Iterations: 5,
		}, nil
	})
}

// unsolvedProver never proves anything within budget.
func unsolvedProver() core.Prover {
	return testutil.ProverFunc(func(ctx context.Context, job core.Job) (core.StudentResult, error) {
		return core.StudentResult{Problem: job.Statement, Success: false, Iterations: 30}, nil
	})
}

func TestControllerConvergesWithEarlyExit(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.TotalIterations = 100 // far larger than needed
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1", "g2"})
	require.NoError(t, ctrl.Run(context.Background()))

	assert.Equal(t, TerminatedConverged, ctrl.Reason())
	require.Len(t, run.agent.TrainCalls, 1, "converged on the first iteration")

	require.Len(t, run.sink.Updates, 1)
	values := run.sink.Updates[0].Values
	assert.Equal(t, 2.0, values["final_goals_proven"])
	assert.Equal(t, 1.0, values["ratio_proven"])
	assert.InDelta(t, 1.0, values["val_loss"], 1e-9) // -mean(-1, -1)
	assert.Equal(t, 1, run.sink.Saves)
}

func TestControllerExhaustsIterationBudget(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.TotalIterations = 3
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, unsolvedProver(), []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	assert.Equal(t, TerminatedExhausted, ctrl.Reason())
	assert.Len(t, run.agent.TrainCalls, 3)
	require.Len(t, run.sink.Updates, 3)
	for i, update := range run.sink.Updates {
		assert.Equal(t, i, update.Step["num_iterations"])
		assert.Equal(t, ValLossSentinel, update.Values["val_loss"])
		assert.Equal(t, 0.0, update.Values["final_goals_proven"])
	}
}

func TestControllerAllSolvedWithoutEarlyExitKeepsGoing(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.TotalIterations = 2
	cfg.EarlyExit = false
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	assert.Equal(t, TerminatedExhausted, ctrl.Reason())
	assert.Len(t, run.agent.TrainCalls, 2)
}

func TestControllerSearchOnlyShortCircuit(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.MCTSOnly = true
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	assert.Equal(t, TerminatedSearchOnly, ctrl.Reason())
	assert.Empty(t, run.agent.TrainCalls, "diagnostic mode never trains")
	assert.Empty(t, run.sink.Updates)
}

func TestControllerSolvedCountUsesNodeBudget(t *testing.T) {
	// Validation step counts [5, 12, 30] with a budget of 10: exactly
	// one goal counts as solved.
	steps := map[string]int{"g1": 5, "g2": 12, "g3": 30}
	prover := testutil.ProverFunc(func(ctx context.Context, job core.Job) (core.StudentResult, error) {
		return core.StudentResult{
			Problem:    job.Statement,
			Success:    true,
			LogProb:    -2.0,
			Proof:      "pf",
			Iterations: steps[job.Statement],
		}, nil
	})

	cfg := testConfig(t.TempDir())
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, prover, []string{"g1", "g2", "g3"})
	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, run.sink.Updates, 1)
	assert.Equal(t, 1.0, run.sink.Updates[0].Values["final_goals_proven"])
	assert.Equal(t, TerminatedExhausted, ctrl.Reason())
}

func TestControllerTrainReceivesTaggedGoalsAndRatio(t *testing.T) {
	cfg := testConfig(t.TempDir())
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1", "g2"})
	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, run.agent.TrainCalls, 1)
	call := run.agent.TrainCalls[0]
	assert.Equal(t, []string{"Conj:(hard) g1", "Conj:(hard) g2"}, call.FinalGoals)
	assert.Equal(t, 1.0, call.RatioProven)
	assert.Contains(t, call.Examples, "Conj:(hard) g1")

	assert.Equal(t, []string{"g1", "g2"}, ctrl.ProvenConjectures())
}

func TestControllerHindsightMeanSupersedesClassification(t *testing.T) {
	prover := testutil.ProverFunc(func(ctx context.Context, job core.Job) (core.StudentResult, error) {
		return core.StudentResult{
			Problem:    job.Statement,
			Success:    true,
			LogProb:    -1.0,
			Proof:      "pf",
			Iterations: 30, // not solved within budget, loop continues
			HindsightExamples: []core.HindsightExample{
				{Goal: "sub-" + job.Statement, Examples: []string{"hs-" + job.Statement}, LogProb: -3.0},
			},
		}, nil
	})

	cfg := testConfig(t.TempDir())
	cfg.TrainPolicyOnHindsightExamples = true
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, prover, []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, run.sink.Updates, 1)
	// The classification mean would be -1.0; the hindsight statistic
	// replaces it.
	assert.InDelta(t, -3.0, run.sink.Updates[0].Values["mean_hard_sol_log_probs"], 1e-9)

	require.Len(t, run.agent.TrainCalls, 1)
	assert.Contains(t, run.agent.TrainCalls[0].Examples, "hs-g1")
}

func TestControllerPersistsArtifactsAndCheckpoint(t *testing.T) {
	cfg := testConfig(t.TempDir())
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	for _, name := range []string{"examples_0.json", "proven_conj_0.json", "model.bin", "model_info.yaml", "log.jsonl"} {
		_, err := os.Stat(filepath.Join(run.dir, name))
		assert.NoError(t, err, "expected %s", name)
	}
}

func TestControllerResumesFromRollingCheckpoint(t *testing.T) {
	dir := t.TempDir()

	// First process: complete iteration 0 and checkpoint it.
	cfg := testConfig(dir)
	run := newTestRun(t, cfg)
	ctrl := run.controller(t, unsolvedProver(), []string{"g1"})
	require.NoError(t, ctrl.Run(context.Background()))

	// Fresh process resuming from the same directory starts at 1.
	cfg2 := testConfig(dir)
	cfg2.TotalIterations = 2
	cfg2.Continue = dir
	run2 := newTestRun(t, cfg2)
	run2.agent.State = nil // must come from the checkpoint

	ctrl2 := run2.controller(t, unsolvedProver(), []string{"g1"})
	require.NoError(t, ctrl2.Run(context.Background()))

	require.Len(t, run2.sink.Updates, 1)
	assert.Equal(t, 1, run2.sink.Updates[0].Step["num_iterations"])
	assert.NotEmpty(t, run2.agent.State, "agent state restored from checkpoint")
}

func TestControllerResumeWithMissingStateIsFatal(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Continue = dir // nothing was ever written here
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, solvedProver(), []string{"g1"})
	err := ctrl.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New(errors.ResumeStateInvalid, ""))
}

func TestControllerTrainingFailureIsFatal(t *testing.T) {
	cfg := testConfig(t.TempDir())
	run := newTestRun(t, cfg)
	run.agent.TrainErr = errors.New(errors.Unknown, "out of memory")

	ctrl := run.controller(t, solvedProver(), []string{"g1"})
	err := ctrl.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New(errors.TrainingFailed, ""))
}

func TestControllerWorkerErrorsDoNotAbortRound(t *testing.T) {
	prover := testutil.ProverFunc(func(ctx context.Context, job core.Job) (core.StudentResult, error) {
		if job.Statement == "g2" {
			return core.StudentResult{Problem: job.Statement, Error: "prover process died"}, nil
		}
		return core.StudentResult{
			Problem: job.Statement, Success: true, LogProb: -1.0, Proof: "pf", Iterations: 5,
		}, nil
	})

	cfg := testConfig(t.TempDir())
	cfg.EarlyExit = false
	run := newTestRun(t, cfg)

	ctrl := run.controller(t, prover, []string{"g1", "g2", "g3"})
	require.NoError(t, ctrl.Run(context.Background()))

	require.Len(t, run.sink.Updates, 1)
	// The dropped job still counts against the denominator.
	assert.InDelta(t, 2.0/3.0, run.sink.Updates[0].Values["ratio_proven"], 1e-9)
}

func TestNewControllerValidatesDependencies(t *testing.T) {
	cfg := testConfig(t.TempDir())

	_, err := NewController(cfg, Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New(errors.InvalidInput, ""))

	_, err = NewController(nil, Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New(errors.ConfigInvalid, ""))
}
