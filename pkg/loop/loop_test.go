package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starwatch/tom/pkg/loop"
	"github.com/starwatch/tom/pkg/utils/try"
)

func TestStart(t *testing.T) {
	t.Run("it repeats the task until it breaks, carrying the value through", func(t *testing.T) {
		ctx := context.Background()

		total, err := loop.Start(
			ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
				v += 1
				if 10 <= v {
					return v, loop.Break(nil)
				}
				return v, loop.Continue(0)
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if total != 10 {
			t.Errorf("unexpected value: %d", total)
		}
	})

	t.Run("it returns the error passed to Break along with the last value", func(t *testing.T) {
		ctx := context.Background()
		expectedErr := errors.New("fake error")

		v, err := loop.Start(
			ctx, "start", func(_ context.Context, s string) (string, loop.Next) {
				return "failed", loop.Break(expectedErr)
			},
		)
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if v != "failed" {
			t.Errorf("unexpected value: %s", v)
		}
	})

	t.Run("it stops with ctx.Err when the context is canceled mid-loop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		rounds := 0
		_, err := loop.Start(
			ctx, 0, func(_ context.Context, v int) (int, loop.Next) {
				rounds += 1
				if rounds == 3 {
					cancel()
				}
				return v + 1, loop.Continue(time.Hour)
			},
		)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
		if rounds != 3 {
			t.Errorf("task ran %d times after cancel", rounds)
		}
	})

	t.Run("when the context has been done before starting, it does nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		v, err := loop.Start(
			ctx, 42, func(_ context.Context, v int) (int, loop.Next) {
				called = true
				return v, loop.Break(nil)
			},
		)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
		if called {
			t.Error("task has been called")
		}
		if v != 42 {
			t.Errorf("initial value is not returned: %d", v)
		}
	})

	t.Run("it passes a deadlined context when WithTimeout is passed", func(t *testing.T) {
		ctx := context.Background()
		timeout := 100 * time.Millisecond

		try.To(loop.Start(
			ctx, 1, func(ctx context.Context, v int) (int, loop.Next) {
				now := time.Now()
				if deadline, ok := ctx.Deadline(); !ok {
					t.Errorf("deadline is not set")
				} else if timeout < deadline.Sub(now) {
					t.Errorf("deadline too far: %s (now = %s)", deadline, now)
				}

				if 3 <= v {
					return v + 1, loop.Break(nil)
				}
				return v + 1, loop.Continue(10 * time.Millisecond)
			},
			loop.WithTimeout(timeout),
		)).OrFatal(t)
	})

	t.Run("it passes a deadline-free context when WithTimeout is not passed", func(t *testing.T) {
		ctx := context.Background()

		try.To(loop.Start(
			ctx, 1, func(ctx context.Context, v int) (int, loop.Next) {
				if deadline, ok := ctx.Deadline(); ok {
					t.Errorf("deadline is set: %s", deadline)
				}

				if 3 <= v {
					return v + 1, loop.Break(nil)
				}
				return v + 1, loop.Continue(0)
			},
		)).OrFatal(t)
	})
}
