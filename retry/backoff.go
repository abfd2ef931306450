// Package retry provides an exponential-backoff retry policy with
// jitter, used for transport connection attempts and connection-cycle
// restarts.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is a function to retry. It reports whether a retry should occur
// on the returned error; errors classed as non-retryable stop the
// policy immediately.
type Task = func(context.Context) (shouldRetry bool, err error)

// ExponentialBackoff retries a task with exponentially increasing
// delays and jitter.
type ExponentialBackoff struct {
	// MaxAttempts is the attempt ceiling. 0 means unlimited; 1 disables
	// retries.
	MaxAttempts uint64

	// MinInterval is the delay after the first failed attempt (before
	// jitter). Defaults to 500ms.
	MinInterval time.Duration

	// MaxInterval caps the delay between attempts (before jitter).
	// Defaults to 5s.
	MaxInterval time.Duration

	// NoJitter removes the default jitter.
	NoJitter bool
}

// Start runs the task until it succeeds, is classed non-retryable, the
// attempt ceiling is reached, or ctx is done. The last task error is
// returned.
func (e *ExponentialBackoff) Start(ctx context.Context, name string, task Task) error {
	for attempt := uint64(1); ; attempt++ {
		shouldRetry, err := task(ctx)
		if err == nil {
			return nil
		}

		interval := e.interval(ctx, attempt, shouldRetry)
		if interval == 0 {
			log.Error().Str("op", name).Uint64("attempt", attempt).Err(err).
				Msg("Giving up after failed attempt")
			return err
		}

		log.Warn().Str("op", name).Uint64("attempt", attempt).Dur("backoff", interval).Err(err).
			Msg("Attempt failed, retrying with backoff")

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// interval returns the delay before the next attempt, or 0 when no
// further attempt should be made.
func (e *ExponentialBackoff) interval(ctx context.Context, attempt uint64, shouldRetry bool) time.Duration {
	switch {
	case !shouldRetry,
		attempt == e.MaxAttempts,
		ctx.Err() != nil:
		return 0
	}

	minInterval := e.MinInterval
	if minInterval == 0 {
		minInterval = 500 * time.Millisecond
	}

	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = 5 * time.Second
	}
	if maxInterval < minInterval {
		maxInterval = minInterval
	}

	// Clamp the exponent so the interval never exceeds maxInterval.
	factor := math.Pow(2, math.Min(
		float64(attempt-1),
		math.Log2(float64(maxInterval)/float64(minInterval)),
	))
	if !e.NoJitter {
		factor = jitter(factor)
	}

	return time.Duration(factor * float64(minInterval))
}

// jitter spreads the base factor between 95% and 105% to avoid
// synchronized retries across devices.
func jitter(base float64) float64 {
	return base * (.95 + .1*rand.Float64())
}
