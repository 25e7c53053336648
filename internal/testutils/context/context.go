package context

import (
	"context"
	"testing"
	"time"
)

// WithTest wraps the context with a deadline 1 second before the
// test's own, leaving room for clean-up.
func WithTest(ctx context.Context, t *testing.T) (context.Context, func()) {
	if deadline, ok := t.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	return ctx, func() {}
}
