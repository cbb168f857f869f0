package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/providers"
)

// Clock abstracts time so pacing and backoff can be tested without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Policy controls pacing and backoff
type Policy struct {
	// MaxRetries is the total number of attempts per call.
	MaxRetries int
	// BaseDelay is multiplied by 2^attempt after a rate-limit signal.
	BaseDelay time.Duration
	// MinInterval is the minimum time between the start of consecutive calls.
	MinInterval time.Duration
}

// ExhaustedError is returned when every attempt failed with a retryable error
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// IsExhausted reports whether err came from running out of attempts
func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}

// Retrier paces calls to a rate-limited API and retries them by error class.
// It keeps the time of the last call, so one Retrier should be shared by every
// call in a run. It is not safe for concurrent use.
type Retrier struct {
	policy   Policy
	clock    Clock
	classify func(error) providers.Class
	logger   *slog.Logger
	lastCall time.Time
}

// Option customizes a Retrier
type Option func(*Retrier)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(r *Retrier) { r.clock = c }
}

// WithClassifier replaces providers.Classify
func WithClassifier(fn func(error) providers.Class) Option {
	return func(r *Retrier) { r.classify = fn }
}

// WithLogger sets the logger used for attempt diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(r *Retrier) { r.logger = l }
}

// New creates a Retrier
func New(policy Policy, opts ...Option) *Retrier {
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	r := &Retrier{
		policy:   policy,
		clock:    realClock{},
		classify: providers.Classify,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pace blocks until MinInterval has passed since the previous call started
func (r *Retrier) pace(ctx context.Context) error {
	if !r.lastCall.IsZero() && r.policy.MinInterval > 0 {
		wait := r.lastCall.Add(r.policy.MinInterval).Sub(r.clock.Now())
		if wait > 0 {
			r.logger.Debug("pacing inference call", "wait", wait)
			if err := r.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	r.lastCall = r.clock.Now()
	return nil
}

// Do calls fn until it succeeds, fails fatally, or runs out of attempts.
// Rate-limited failures back off for BaseDelay*2^attempt; transient failures
// retry without backoff. Pacing applies before every attempt.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := r.policy.MaxRetries
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := r.pace(ctx); err != nil {
			return zero, err
		}

		reqID := uuid.NewString()
		r.logger.Debug("inference attempt", "op", op, "req_id", reqID, "attempt", attempt+1, "max_attempts", attempts)

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		class := r.classify(err)
		r.logger.Warn("inference attempt failed",
			"op", op,
			"req_id", reqID,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"class", class.String(),
			"error", err)

		switch class {
		case providers.RateLimited:
			if attempt == attempts-1 {
				continue
			}
			delay := r.policy.BaseDelay * time.Duration(1<<attempt)
			r.logger.Info("rate limited, backing off", "op", op, "delay", delay)
			if err := r.clock.Sleep(ctx, delay); err != nil {
				return zero, err
			}
		case providers.Transient:
			continue
		default:
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
