// Package circuitbreaker stops calls to an optional dependency (the
// suggestion cache) after consecutive failures, so callers fall back
// without waiting on timeouts.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown passes.
	StateOpen
	// StateHalfOpen lets a single probe through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned without calling the dependency.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithThreshold sets how many consecutive failures open the breaker.
func WithThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.threshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before probing.
func WithCooldown(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.cooldown = d
		}
	}
}

// WithOnStateChange registers a transition callback. It runs under the
// breaker lock and must not call back into the breaker.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	onChange  func(name string, from, to State)
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int // consecutive, while closed
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker: 5 failures, 30s cooldown unless overridden.
func New(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:      name,
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// CacheBreaker trips after 3 failures and probes again after 15s, since a
// cache outage only costs recomputation.
func CacheBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New("suggestion-cache",
		WithThreshold(3),
		WithCooldown(15*time.Second),
		WithOnStateChange(onStateChange),
	)
}

// Execute calls fn unless the breaker is open. context.Canceled from fn
// is not counted either way.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probing = true
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cancelled := errors.Is(err, context.Canceled)

	switch cb.state {
	case StateHalfOpen:
		cb.probing = false
		switch {
		case cancelled:
		case err != nil:
			cb.trip()
		default:
			cb.failures = 0
			cb.transition(StateClosed)
		}
	case StateClosed:
		switch {
		case cancelled:
		case err != nil:
			cb.failures++
			if cb.failures >= cb.threshold {
				cb.trip()
			}
		default:
			cb.failures = 0
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	cb.state = to
	if cb.onChange != nil && from != to {
		cb.onChange(cb.name, from, to)
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// IsOpen reports whether calls are currently rejected outright. The
// health endpoint reports an open cache breaker as degraded.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}
