package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one case component. A nil return means healthy; the
// error message is surfaced verbatim in the readiness payload.
type CheckFunc func(ctx context.Context) error

// Result is the outcome of one component probe.
type Result struct {
	// Status is "ok" or "unhealthy".
	Status string `json:"status"`

	// Message carries the probe error for unhealthy results.
	Message string `json:"message,omitempty"`

	// DurationMS is how long the probe took, in milliseconds.
	DurationMS float64 `json:"duration_ms,omitempty"`
}

// Status aggregates the probes into one liveness or readiness response.
type Status struct {
	// Status is "ok" for liveness, "ready" or "degraded" for readiness.
	Status string `json:"status"`

	// Checks holds the per-component results of a readiness evaluation.
	Checks map[string]Result `json:"checks,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Checker evaluates case component probes for the monitor endpoints. The
// watch command registers one probe per component (evidence index, custody
// ledger, case directory, archive mirror) and the readiness handler runs
// them together on every scrape.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]CheckFunc
	checkTimeout time.Duration
}

// New returns a Checker that caps each probe at checkTimeout; zero means
// 5 seconds.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// Register adds or replaces the probe for a named component.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// CheckCount returns the number of registered probes.
func (c *Checker) CheckCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.checks)
}

// Liveness answers the process-is-up probe without touching any component.
func (c *Checker) Liveness(ctx context.Context) Status {
	return Status{Status: "ok", Timestamp: time.Now()}
}

// Readiness runs every registered probe concurrently and folds the results:
// one unhealthy component degrades the whole answer, and the per-component
// results name the culprit. With nothing registered the case counts as ready.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make([]CheckFunc, 0, len(c.checks))
	for name, check := range c.checks {
		names = append(names, name)
		checks = append(checks, check)
	}
	c.mu.RUnlock()

	type keyed struct {
		name   string
		result Result
	}
	done := make(chan keyed, len(checks))
	for i := range checks {
		go func(name string, check CheckFunc) {
			done <- keyed{name: name, result: c.runCheck(ctx, check)}
		}(names[i], checks[i])
	}

	overall := "ready"
	results := make(map[string]Result, len(checks))
	for range checks {
		kr := <-done
		results[kr.name] = kr.result
		if kr.result.Status == "unhealthy" {
			overall = "degraded"
		}
	}

	return Status{Status: overall, Checks: results, Timestamp: time.Now()}
}

// runCheck executes one probe under the checker's timeout. The probe runs
// in its own goroutine so a wedged component cannot stall the endpoint.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) Result {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errc := make(chan error, 1)
	go func() { errc <- check(checkCtx) }()

	var res Result
	select {
	case err := <-errc:
		if err != nil {
			res = Result{Status: "unhealthy", Message: err.Error()}
		} else {
			res = Result{Status: "ok"}
		}
	case <-checkCtx.Done():
		res = Result{Status: "unhealthy", Message: "health check timeout"}
	}
	res.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0
	return res
}
