package logging

import "context"

type contextKey int

const (
	iterationKey contextKey = iota
	statementKey
)

// WithIteration stamps the current iteration index onto the context so
// every log record produced during the round carries it.
func WithIteration(ctx context.Context, iteration int) context.Context {
	return context.WithValue(ctx, iterationKey, iteration)
}

// GetIteration returns the iteration stored in the context, if any.
func GetIteration(ctx context.Context) (int, bool) {
	i, ok := ctx.Value(iterationKey).(int)
	return i, ok
}

// WithStatement attaches the conjecture currently being processed.
func WithStatement(ctx context.Context, statement string) context.Context {
	return context.WithValue(ctx, statementKey, statement)
}

// GetStatement returns the statement stored in the context, if any.
func GetStatement(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(statementKey).(string)
	return s, ok
}
