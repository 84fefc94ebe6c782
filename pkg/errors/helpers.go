package errors

import (
	"context"
)

// CheckContext converts a canceled or expired context into a coded
// error naming the interrupted operation.
func CheckContext(ctx context.Context, operation string) error {
	if err := ctx.Err(); err != nil {
		return Wrap(err, Canceled, operation+" canceled")
	}
	return nil
}
