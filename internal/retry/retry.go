package retry

import (
	"context"
	"errors"
	"time"
)

var errInvalidPolicy = errors.New("invalid retry policy configuration")

// Policy controls exponential backoff behaviour for a retried operation.
type Policy struct {
	MaxAttempts     int           // total attempts, including the first
	InitialInterval time.Duration // delay before the second attempt
	MaxInterval     time.Duration // cap on the backoff delay (0 = uncapped)
}

// Do runs op until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The delay doubles after each failure up to
// MaxInterval. The last error from op is returned on exhaustion.
func Do(ctx context.Context, p Policy, op func() error) error {
	if p.MaxAttempts <= 0 || p.InitialInterval <= 0 {
		return errInvalidPolicy
	}

	var lastErr error
	delay := p.InitialInterval

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxInterval > 0 && delay > p.MaxInterval {
			delay = p.MaxInterval
		}
	}

	return lastErr
}
