package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/headlines/internal/logger"
)

type Policy struct {
	Attempts int
	Delay    time.Duration
	Backoff  bool // linear backoff: attempt * Delay
}

// permanentError stops the retry loop immediately.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do runs fn until it succeeds, returns a Permanent error, or the attempts run out.
// A policy with fewer than one attempt runs fn once.
func Do(ctx context.Context, p Policy, name string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt >= attempts {
			if attempts == 1 {
				return err
			}
			return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
		}

		delay := p.Delay
		if p.Backoff {
			delay = time.Duration(attempt) * p.Delay
		}
		logger.Warn("retrying", "op", name, "attempt", attempt, "of", attempts, "wait", delay, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
