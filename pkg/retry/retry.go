// Package retry repeats a failing call with a delay between attempts.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// A Backoff returns the delay before the attempt that follows attempt.
type Backoff func(attempt int) time.Duration

// A Policy describes how a call is repeated. The zero Policy makes one attempt.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff

	// Retryable reports whether err deserves another attempt.
	// Nil treats every error as retryable.
	Retryable func(err error) bool
}

func (p Policy) attempts() int {
	return max(p.MaxAttempts, 1)
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return Exponential(100*time.Millisecond, 0)(attempt)
	}
	return p.Backoff(attempt)
}

func (p Policy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

// Exponential doubles base with every attempt and adds a random jitter of
// up to half the delay. A positive ceiling bounds the delay before jitter.
func Exponential(base, ceiling time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << attempt
		if ceiling > 0 && (d > ceiling || d <= 0) {
			d = ceiling
		}
		return d + time.Duration(rand.Int64N(int64(d/2)+1))
	}
}

func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue calls fn until it succeeds, returns an error that is not
// retryable, runs out of attempts or ctx is done.
func DoValue[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.attempts() || !p.retryable(err) {
			return zero, err
		}

		wait := p.delay(attempt)
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("attempt %d: %w: %w", attempt, ctx.Err(), err)
		case <-timer.C:
		}
	}
}
