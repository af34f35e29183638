package resilience

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// Retry defaults. Capture loops are periodic, so retries stay short: a missed
// cycle is cheaper than a late one.
const (
	DefaultAttempts = 3
	DefaultBase     = 200 * time.Millisecond
	DefaultMax      = 2 * time.Second
	DefaultJitter   = 0.2
)

// Backoff computes exponentially growing delays capped at Max. Jitter is the
// fraction of the delay randomised around its nominal value.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// Delay returns the wait after the given zero-based failed attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base << min(attempt, 16)
	if d <= 0 || d > b.Max {
		d = b.Max
	}
	if b.Jitter > 0 {
		d += time.Duration(float64(d) * b.Jitter * (rand.Float64() - 0.5))
	}
	return d
}

// RetryConfig holds retry settings. Attempts counts the first call.
type RetryConfig struct {
	Attempts    int
	Backoff     Backoff
	IsRetryable func(error) bool
}

// DefaultRetryConfig returns standard retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:    DefaultAttempts,
		Backoff:     Backoff{Base: DefaultBase, Max: DefaultMax, Jitter: DefaultJitter},
		IsRetryable: IsTransient,
	}
}

// IsTransient reports whether err is worth retrying: retryable application
// errors and the gRPC codes a restarted or busy server produces.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsRetryable(err) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		}
	}
	return false
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx ends. The last error from fn is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			delay := cfg.Backoff.Delay(attempt - 1)
			slog.Debug("retrying", "attempt", attempt+1, "of", cfg.Attempts, "delay", delay, "error", err)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil || !cfg.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Backoff.Base <= 0 {
		c.Backoff.Base = DefaultBase
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = DefaultMax
	}
	if c.IsRetryable == nil {
		c.IsRetryable = IsTransient
	}
	return c
}
