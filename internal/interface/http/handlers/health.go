// Package handlers contains the health checker and middleware shared by the
// HTTP API.
package handlers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECK TYPES
// ══════════════════════════════════════════════════════════════════════════════

// HealthCheckFunc performs a single check. A non-nil error marks it failed.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus represents the overall health of the service.
type HealthStatus struct {
	Healthy bool                   `json:"healthy"`
	Message string                 `json:"message,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`

	// Degraded lists failed checks that do not affect Healthy.
	Degraded []string `json:"degraded,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type registeredCheck struct {
	fn       HealthCheckFunc
	critical bool
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITE HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// CompositeHealthChecker runs named checks concurrently. Only critical checks
// decide Healthy; an optional dependency such as the suggestion cache is
// reported as degraded instead.
type CompositeHealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]registeredCheck
	timeout time.Duration
}

// NewCompositeHealthChecker creates a checker with a 2s per-check timeout.
func NewCompositeHealthChecker() *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:  make(map[string]registeredCheck),
		timeout: 2 * time.Second,
	}
}

// SetTimeout sets the timeout for individual health checks.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// AddCheck registers a critical check.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.add(name, check, true)
}

// AddOptionalCheck registers a check whose failure only degrades the service.
func (c *CompositeHealthChecker) AddOptionalCheck(name string, check HealthCheckFunc) {
	c.add(name, check, false)
}

func (c *CompositeHealthChecker) add(name string, check HealthCheckFunc, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registeredCheck{fn: check, critical: critical}
}

// Check performs all health checks and returns the aggregated status.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]registeredCheck, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	timeout := c.timeout
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now().UTC(),
	}

	type namedResult struct {
		name   string
		result CheckResult
	}
	results := make(chan namedResult, len(checks))

	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check registeredCheck) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			err := check.fn(checkCtx)

			result := CheckResult{
				Healthy:  err == nil,
				Critical: check.critical,
				Message:  "OK",
				Duration: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				result.Message = err.Error()
			}
			results <- namedResult{name, result}
		}(name, check)
	}
	wg.Wait()
	close(results)

	var failed []string
	for r := range results {
		status.Checks[r.name] = r.result
		if r.result.Healthy {
			continue
		}
		if r.result.Critical {
			status.Healthy = false
			failed = append(failed, r.name)
		} else {
			status.Degraded = append(status.Degraded, r.name)
		}
	}
	sort.Strings(failed)
	sort.Strings(status.Degraded)

	switch {
	case !status.Healthy:
		status.Message = "checks failed: " + strings.Join(failed, ", ")
	case len(status.Degraded) > 0:
		status.Message = "degraded: " + strings.Join(status.Degraded, ", ")
	default:
		status.Message = "all checks passed"
	}
	return status
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDEFINED HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// ErrDirectoryEmpty is reported when no students were loaded.
var ErrDirectoryEmpty = errors.New("directory is empty")

// Counter is anything that reports how many students it holds.
type Counter interface {
	Len() int
}

// NewDirectoryCheck fails while the directory holds no students.
func NewDirectoryCheck(dir Counter) HealthCheckFunc {
	return func(ctx context.Context) error {
		if dir.Len() == 0 {
			return ErrDirectoryEmpty
		}
		return nil
	}
}

// Pinger is a dependency that can be probed, e.g. the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingCheck wraps Ping as a health check.
func NewPingCheck(p Pinger) HealthCheckFunc {
	return p.Ping
}
