package worker

import (
	"context"

	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
	"github.com/theoremlab/bootstrap/pkg/logging"
)

// Dispatcher fans a batch of conjectures out to the proof-search layer
// and collects the completed results. Implementations must preserve
// submission order in the returned list even when execution completes
// out of order, and must block until the whole round is done: a round
// is a synchronization barrier with no cross-round overlap.
//
// A job whose result carries a non-empty Error is logged and dropped
// from the returned list. It is not retried and not counted as a
// failure; transient worker errors never abort the round.
type Dispatcher interface {
	Dispatch(ctx context.Context, agent core.Agent, conjectures []string,
		theory core.BackgroundTheory, evalBudget bool) ([]core.StudentResult, error)
}

// pending is one submitted job awaiting collection.
type pending struct {
	handle string
	result core.StudentResult
	err    error
}

// snapshotAgent serializes the agent once for the round so every job
// observes the same frozen parameters.
func snapshotAgent(agent core.Agent) ([]byte, error) {
	snapshot, err := agent.Snapshot()
	if err != nil {
		return nil, errors.Wrap(err, errors.WorkerJobFailed, "serializing agent for submission")
	}
	return snapshot, nil
}

// collect walks the submitted jobs in submission order and keeps the
// clean results. Transport failures and worker-reported errors are
// logged and dropped.
func collect(ctx context.Context, logger *logging.Logger, jobs []pending) []core.StudentResult {
	results := make([]core.StudentResult, 0, len(jobs))
	for _, job := range jobs {
		if job.err != nil {
			logger.Error(ctx, "Worker transport error, dropping task %s: %v", job.handle, job.err)
			continue
		}
		if job.result.Error != "" {
			logger.Error(ctx, "Error in prover process, dropping task %s: %s", job.handle, job.result.Error)
			continue
		}
		results = append(results, job.result)
	}
	return results
}
