package core

import "context"

// Prover is the external proof-search engine. TryProve runs one search
// job to completion against the frozen agent snapshot in the job. A
// worker-side failure is reported through StudentResult.Error; the
// returned error is reserved for transport-level problems.
type Prover interface {
	TryProve(ctx context.Context, job Job) (StudentResult, error)
}

// Deriver is the external derivation engine holding the background
// theory.
type Deriver interface {
	// Incorporate loads a theory source into the derivation state.
	Incorporate(source string) error

	// Elaborate expands a statement identifier into its full form.
	Elaborate(statement string) (string, error)
}

// Agent is the opaque, serializable model state driven by the loop.
// Exactly one live instance exists per run; it is owned by the
// controller and replaced in place by Train.
type Agent interface {
	// Snapshot serializes the current parameters. The returned bytes are
	// immutable for the duration of the round they are submitted with.
	Snapshot() ([]byte, error)

	// Restore replaces the agent's state with a previously serialized
	// snapshot.
	Restore(data []byte) error

	// Train updates the agent's parameters from the curated example set.
	Train(ctx context.Context, examples, finalGoals []string, ratioProven float64) error
}
