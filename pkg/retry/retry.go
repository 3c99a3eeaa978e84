// Package retry re-runs calls to external stores (the roster database) with
// exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// permanentError stops Do from retrying.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns err unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithOnRetry sets a callback invoked before each sleep. attempt starts at 1.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// Retrier runs an operation up to maxAttempts times. Every error except a
// Permanent one is retried.
type Retrier struct {
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	jitter      float64
	onRetry     func(attempt int, err error, delay time.Duration)
}

// DatabaseRetrier returns a Retrier tuned for short database round trips:
// 50ms doubling up to 1s, with 5% jitter. maxAttempts < 1 means one attempt.
func DatabaseRetrier(maxAttempts int, opts ...Option) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	r := &Retrier{
		maxAttempts: maxAttempts,
		initial:     50 * time.Millisecond,
		max:         time.Second,
		jitter:      0.05,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs op until it succeeds, returns a Permanent error, runs out of
// attempts, or ctx is done. The last operation error wins over ctx.Err().
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		last = err

		if attempt >= r.maxAttempts {
			return last
		}

		delay := r.backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return last
		case <-t.C:
		}
	}
}

// backoff returns initial*2^(attempt-1), capped at max, +/- jitter.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := r.initial
	for i := 1; i < attempt && d < r.max; i++ {
		d *= 2
	}
	d = min(d, r.max)
	if r.jitter > 0 {
		d += time.Duration(float64(d) * r.jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}
