// Package engine adapts an external search/training process to the
// core interfaces. The engine binary is invoked once per operation with
// the operation name as its last argument, a JSON payload on stdin, and
// a JSON response on stdout. This is the same shape as handing a
// serialized agent to a remote worker.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
)

// Engine runs external engine operations.
type Engine struct {
	command string
	args    []string
}

// New creates an engine around the given command.
func New(command string, args ...string) *Engine {
	return &Engine{command: command, args: args}
}

// call invokes one engine operation. Non-zero exit is an error carrying
// whatever the process wrote to stderr.
func (e *Engine) call(ctx context.Context, op string, req, resp interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	args := append(append([]string(nil), e.args...), op)
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.WorkerJobFailed, "engine "+op+" failed"),
			errors.Fields{"stderr": strings.TrimSpace(stderr.String())},
		)
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(stdout.Bytes(), resp); err != nil {
		return errors.Wrap(err, errors.WorkerJobFailed, "decoding engine "+op+" response")
	}
	return nil
}

// TryProve implements core.Prover.
func (e *Engine) TryProve(ctx context.Context, job core.Job) (core.StudentResult, error) {
	var result core.StudentResult
	if err := e.call(ctx, "prove", proveRequest{
		AgentSnapshot: job.AgentSnapshot,
		Theory:        job.Theory,
		Statement:     job.Statement,
		EvalBudget:    job.EvalBudget,
	}, &result); err != nil {
		return core.StudentResult{}, err
	}
	return result, nil
}

type proveRequest struct {
	AgentSnapshot []byte                `json:"agent_snapshot"`
	Theory        core.BackgroundTheory `json:"theory"`
	Statement     string                `json:"statement"`
	EvalBudget    bool                  `json:"eval_budget"`
}

// Deriver exposes the engine's derivation operations. Incorporated
// theory is replayed before every elaborate call, since each invocation
// is a fresh process.
type Deriver struct {
	engine *Engine
	source string
}

// NewDeriver creates a deriver backed by the engine.
func NewDeriver(engine *Engine) *Deriver {
	return &Deriver{engine: engine}
}

// Incorporate implements core.Deriver.
func (d *Deriver) Incorporate(source string) error {
	d.source = source
	return d.engine.call(context.Background(), "incorporate",
		map[string]string{"source": source}, nil)
}

// Elaborate implements core.Deriver.
func (d *Deriver) Elaborate(statement string) (string, error) {
	var resp struct {
		Elaborated string `json:"elaborated"`
	}
	err := d.engine.call(context.Background(), "elaborate", map[string]string{
		"source":    d.source,
		"statement": statement,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Elaborated, nil
}

// Agent is a core.Agent whose parameters live in this process as an
// opaque blob, with training delegated to the engine.
type Agent struct {
	engine *Engine
	state  []byte
}

// NewAgent creates an agent with the given initial parameters. An empty
// state is valid for fresh runs; the first Train call populates it.
func NewAgent(engine *Engine, initialState []byte) *Agent {
	return &Agent{engine: engine, state: initialState}
}

// Snapshot implements core.Agent.
func (a *Agent) Snapshot() ([]byte, error) {
	out := make([]byte, len(a.state))
	copy(out, a.state)
	return out, nil
}

// Restore implements core.Agent.
func (a *Agent) Restore(data []byte) error {
	a.state = make([]byte, len(data))
	copy(a.state, data)
	return nil
}

// Train implements core.Agent. The engine receives the current
// parameters and the curated example set, and returns the updated
// parameters, which replace the live state.
func (a *Agent) Train(ctx context.Context, examples, finalGoals []string, ratioProven float64) error {
	var resp struct {
		State []byte `json:"state"`
	}
	err := a.engine.call(ctx, "train", trainRequest{
		State:       a.state,
		Examples:    examples,
		FinalGoals:  finalGoals,
		RatioProven: ratioProven,
	}, &resp)
	if err != nil {
		return errors.Wrap(err, errors.TrainingFailed, "engine training call failed")
	}
	a.state = resp.State
	return nil
}

type trainRequest struct {
	State       []byte   `json:"state"`
	Examples    []string `json:"examples"`
	FinalGoals  []string `json:"final_goals"`
	RatioProven float64  `json:"ratio_proven"`
}
