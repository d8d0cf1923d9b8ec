package backoff

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vidstitch/internal/logging"
	"vidstitch/internal/services"
)

// Sleeper suspends execution for the supplied duration, returning early with
// the context error when the context is cancelled. Tests substitute a
// recording implementation.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, fails with a non-transient classification,
// or the context is cancelled. Transient failures are retried without an
// attempt ceiling; the only bound per attempt is the policy cap. The attempt
// counter is scoped to this call, so each clip in a sequence retries from a
// fresh first-attempt delay.
func Retry(ctx context.Context, logger *slog.Logger, policy Policy, sleep Sleeper, op func(context.Context) error) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	if sleep == nil {
		sleep = Sleep
	}

	attempt := 0
	for {
		err := op(ctx)
		if err == nil {
			return nil
		}

		switch kind := services.Classify(err); kind {
		case services.KindTransient:
			attempt++
			delay := policy.Delay(attempt)
			logger.Warn("transient failure, backing off",
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("delay", delay),
				logging.Error(err),
			)
			if sleepErr := sleep(ctx, delay); sleepErr != nil {
				// Cancellation during the wait is terminal for the run, not
				// another transient failure.
				return fmt.Errorf("retry wait: %w", sleepErr)
			}
		default:
			return err
		}
	}
}
