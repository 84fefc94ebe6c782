package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/theoremlab/bootstrap/pkg/core"
)

// ProverFunc adapts a function to the core.Prover interface.
type ProverFunc func(ctx context.Context, job core.Job) (core.StudentResult, error)

func (f ProverFunc) TryProve(ctx context.Context, job core.Job) (core.StudentResult, error) {
	return f(ctx, job)
}

// ScriptedProver returns canned results keyed by statement. Statements
// without a script entry fail the search.
type ScriptedProver struct {
	mu      sync.Mutex
	Results map[string]core.StudentResult
	Calls   []core.Job
}

func (p *ScriptedProver) TryProve(ctx context.Context, job core.Job) (core.StudentResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, job)

	if result, ok := p.Results[job.Statement]; ok {
		return result, nil
	}
	return core.StudentResult{Problem: job.Statement, Success: false}, nil
}

// FakeAgent is a minimal in-memory core.Agent whose state is a byte
// slice. Snapshot counts serializations so tests can assert
// serialize-once-per-round behavior.
type FakeAgent struct {
	mu            sync.Mutex
	State         []byte
	SnapshotCalls int
	TrainCalls    []TrainCall
	TrainErr      error
}

// TrainCall records one invocation of Train.
type TrainCall struct {
	Examples    []string
	FinalGoals  []string
	RatioProven float64
}

func (a *FakeAgent) Snapshot() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.SnapshotCalls++
	out := make([]byte, len(a.State))
	copy(out, a.State)
	return out, nil
}

func (a *FakeAgent) Restore(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.State = make([]byte, len(data))
	copy(a.State, data)
	return nil
}

func (a *FakeAgent) Train(ctx context.Context, examples, finalGoals []string, ratioProven float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.TrainErr != nil {
		return a.TrainErr
	}
	a.TrainCalls = append(a.TrainCalls, TrainCall{
		Examples:    append([]string(nil), examples...),
		FinalGoals:  append([]string(nil), finalGoals...),
		RatioProven: ratioProven,
	})
	// Training mutates the live agent in place.
	a.State = append(a.State, byte(len(a.TrainCalls)))
	return nil
}

// IdentityDeriver elaborates every statement to itself and accepts any
// theory. Good enough for tests that only care about labels.
type IdentityDeriver struct{}

func (IdentityDeriver) Incorporate(source string) error { return nil }

func (IdentityDeriver) Elaborate(statement string) (string, error) { return statement, nil }

// MockDeriver is a mock implementation of core.Deriver.
type MockDeriver struct {
	mock.Mock
}

func (m *MockDeriver) Incorporate(source string) error {
	args := m.Called(source)
	return args.Error(0)
}

func (m *MockDeriver) Elaborate(statement string) (string, error) {
	args := m.Called(statement)
	return args.String(0), args.Error(1)
}

// RecordingSink keeps every metrics record in memory.
type RecordingSink struct {
	mu      sync.Mutex
	Updates []SinkRecord
	Saves   int
}

// SinkRecord is one recorded Update call.
type SinkRecord struct {
	Step   map[string]int
	Values map[string]float64
}

func (s *RecordingSink) Update(step map[string]int, values map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Updates = append(s.Updates, SinkRecord{Step: step, Values: values})
	return nil
}

func (s *RecordingSink) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	return nil
}

func (s *RecordingSink) Close() error { return nil }

// MockSink is a mock metrics sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Update(step map[string]int, values map[string]float64) error {
	args := m.Called(step, values)
	return args.Error(0)
}

func (m *MockSink) Save() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSink) Close() error {
	args := m.Called()
	return args.Error(0)
}
