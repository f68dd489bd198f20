package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// checkTimeout bounds each individual probe.
const checkTimeout = 2 * time.Second

// Checker holds the registered health checks.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a named check. Re-registering a name replaces it.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Check runs every registered check and returns overall health plus
// per-check results ("ok" or the error message).
func (c *Checker) Check(ctx context.Context) (bool, map[string]string) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	fns := make(map[string]CheckFunc, len(names))
	for _, name := range names {
		fns[name] = c.checks[name]
	}
	c.mu.RUnlock()

	healthy := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := fns[name](checkCtx)
		cancel()

		if err != nil {
			healthy = false
			results[name] = err.Error()
		} else {
			results[name] = "ok"
		}
	}
	return healthy, results
}

// Handler serves the health endpoint.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		healthy, results := c.Check(r.Context())

		status := "healthy"
		code := http.StatusOK
		if !healthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": results,
		})
	})
}
