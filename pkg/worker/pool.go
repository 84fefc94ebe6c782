package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/logging"
)

// PoolDispatcher fans jobs out to a bounded goroutine pool, standing in
// for a distributed worker queue. Completion order is arbitrary;
// results are still returned in submission order. Dispatch blocks until
// every job of the round has finished. Mid-round cancellation is not
// supported: a failed job drops its own contribution without touching
// its siblings.
type PoolDispatcher struct {
	prover     core.Prover
	maxWorkers int
	logger     *logging.Logger
}

// NewPoolDispatcher creates a concurrent dispatcher running at most
// maxWorkers jobs at once.
func NewPoolDispatcher(prover core.Prover, maxWorkers int) *PoolDispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &PoolDispatcher{
		prover:     prover,
		maxWorkers: maxWorkers,
		logger:     logging.GetLogger(),
	}
}

// Dispatch implements Dispatcher.
func (d *PoolDispatcher) Dispatch(ctx context.Context, agent core.Agent, conjectures []string,
	theory core.BackgroundTheory, evalBudget bool) ([]core.StudentResult, error) {

	snapshot, err := snapshotAgent(agent)
	if err != nil {
		return nil, err
	}

	d.logger.Info(ctx, "Submitting %d tasks...", len(conjectures))

	// One slot per submission; workers write only their own slot, so the
	// round needs no further synchronization beyond the pool barrier.
	jobs := make([]pending, len(conjectures))

	p := pool.New().WithMaxGoroutines(d.maxWorkers)
	for i, statement := range conjectures {
		i, statement := i, statement
		handle := uuid.NewString()
		jobs[i].handle = handle

		p.Go(func() {
			d.logger.Debug(logging.WithStatement(ctx, statement), "Task %s started", handle)
			result, err := d.prover.TryProve(ctx, core.Job{
				AgentSnapshot: snapshot,
				Theory:        theory,
				Statement:     statement,
				EvalBudget:    evalBudget,
			})
			jobs[i].result = result
			jobs[i].err = err
		})
	}
	p.Wait()

	d.logger.Info(ctx, "Collecting %d results from workers.", len(jobs))
	return collect(ctx, d.logger, jobs), nil
}
