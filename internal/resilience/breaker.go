// Package resilience keeps flaky collaborators (OCR engines, alert sinks) from stalling a session.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// State is the position of a breaker.
type State int

const (
	Closed   State = iota // calls pass through
	Open                  // calls fail fast
	HalfOpen              // one trial call allowed
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Stats is a point-in-time view of a breaker.
type Stats struct {
	State    State
	Failures int // consecutive failures
	Trips    int // times the breaker has opened
	OpenedAt time.Time
}

// Breaker stops calling a collaborator after Threshold consecutive failures
// and lets a single trial through once ResetTimeout has elapsed.
type Breaker struct {
	cfg Config

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	trips     int
	openedAt  time.Time
	inTrial   bool
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	return &Breaker{cfg: cfg.withDefaults()}
}

// Allow reserves a call. Every nil return must be followed by Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.cfg.Clock().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		b.setState(HalfOpen)
		b.inTrial = true
		return nil
	case HalfOpen:
		if b.inTrial {
			return ErrOpen
		}
		b.inTrial = true
		return nil
	default:
		return nil
	}
}

// Record reports the outcome of a call reserved with Allow. Cancellation and
// permanent errors are neither a success nor a failure.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inTrial = false

	switch {
	case err == nil:
		b.onSuccess()
	case errors.Is(err, context.Canceled), apperrors.IsPermanent(err):
	default:
		b.onFailure()
	}
}

func (b *Breaker) onSuccess() {
	b.failures = 0
	if b.state != HalfOpen {
		return
	}
	b.successes++
	if b.successes >= b.cfg.HalfOpenSuccesses {
		b.setState(Closed)
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.Threshold {
		b.openedAt = b.cfg.Clock()
		b.setState(Open)
	}
}

// setState must be called with mu held.
func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0

	switch to {
	case Open:
		b.trips++
		slog.Warn("circuit breaker opened", "breaker", b.cfg.Name, "failures", b.failures, "retry_in", b.cfg.ResetTimeout)
	case HalfOpen:
		slog.Info("circuit breaker half-open", "breaker", b.cfg.Name)
	case Closed:
		b.failures = 0
		slog.Info("circuit breaker closed", "breaker", b.cfg.Name)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{State: b.state, Failures: b.failures, Trips: b.trips, OpenedAt: b.openedAt}
}

// Do runs fn if the breaker allows it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err)
	return err
}

// Call is Do for functions that return a value.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.Allow(); err != nil {
		return zero, err
	}
	v, err := fn()
	b.Record(err)
	if err != nil {
		return zero, err
	}
	return v, nil
}
