// Package retry executes an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Operation is the function to be retried.
type Operation func(ctx context.Context) error

type Config struct {
	// MaxAttempts is the total number of executions, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// BackoffBase is the factor the delay grows by between retries.
	BackoffBase float64
	// MaxDelay caps the delay before jitter is applied.
	MaxDelay time.Duration
	// Jitter scales each delay by a uniform random factor in [0.5, 1.0]
	// to avoid synchronized retry storms across concurrent callers.
	Jitter bool
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		BackoffBase: 2.0,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// PermanentError marks an error that must not trigger another attempt.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

type Retrier struct {
	cfg       Config
	randFloat func() float64
}

func New(cfg Config) *Retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2.0
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}

	return &Retrier{
		cfg:       cfg,
		randFloat: rand.Float64,
	}
}

// Do runs op up to MaxAttempts times. A PermanentError stops retrying
// immediately and propagates the wrapped error. When attempts are
// exhausted the last error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delayFor(attempt - 1)):
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			return permErr.Err
		}

		lastErr = err
	}

	return lastErr
}

// delayFor returns the backoff delay before retry n (0-indexed).
func (r *Retrier) delayFor(n int) time.Duration {
	delay := float64(r.cfg.BaseDelay) * math.Pow(r.cfg.BackoffBase, float64(n))
	if delay > float64(r.cfg.MaxDelay) {
		delay = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter {
		delay *= 0.5 + 0.5*r.randFloat()
	}
	return time.Duration(delay)
}
