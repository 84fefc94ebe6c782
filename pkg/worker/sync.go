package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/logging"
)

// SyncDispatcher runs every job inline on the calling goroutine, one at
// a time. This is the single-process mode: no real concurrency, but the
// same contract as the pool dispatcher.
type SyncDispatcher struct {
	prover core.Prover
	logger *logging.Logger
}

// NewSyncDispatcher creates an in-process sequential dispatcher.
func NewSyncDispatcher(prover core.Prover) *SyncDispatcher {
	return &SyncDispatcher{
		prover: prover,
		logger: logging.GetLogger(),
	}
}

// Dispatch implements Dispatcher.
func (d *SyncDispatcher) Dispatch(ctx context.Context, agent core.Agent, conjectures []string,
	theory core.BackgroundTheory, evalBudget bool) ([]core.StudentResult, error) {

	snapshot, err := snapshotAgent(agent)
	if err != nil {
		return nil, err
	}

	d.logger.Info(ctx, "Submitting %d tasks...", len(conjectures))

	jobs := make([]pending, len(conjectures))
	for i, statement := range conjectures {
		handle := uuid.NewString()
		d.logger.Debug(logging.WithStatement(ctx, statement), "Running task %s inline", handle)

		result, err := d.prover.TryProve(ctx, core.Job{
			AgentSnapshot: snapshot,
			Theory:        theory,
			Statement:     statement,
			EvalBudget:    evalBudget,
		})
		jobs[i] = pending{handle: handle, result: result, err: err}
	}

	d.logger.Info(ctx, "Collecting %d results from workers.", len(jobs))
	return collect(ctx, d.logger, jobs), nil
}
