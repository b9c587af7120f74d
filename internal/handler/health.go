package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is anything readiness can ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 3 * time.Second

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	deps map[string]HealthChecker
}

// NewHealthHandler checks the store and, when non-nil, the Redis cache.
func NewHealthHandler(store, cache HealthChecker) *HealthHandler {
	return &HealthHandler{deps: map[string]HealthChecker{"store": store, "redis": cache}}
}

// HealthResponse is the body of both checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is serving. GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every configured dependency in parallel and answers 503 when
// any of them fails. GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed bool
	)
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		name, dep := name, dep
		if dep == nil {
			checks[name] = "not configured"
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := dep.Ping(ctx); err != nil {
				result = "error: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = result
			failed = failed || result != "ok"
		}()
	}
	wg.Wait()

	if failed {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}
