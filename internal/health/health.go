// SPDX-License-Identifier: MIT

// Package health answers the rebookd liveness and readiness probes.
//
// Liveness always answers 200 while the process runs. Readiness fails only
// when the session store cannot be reached; open managed AI circuits degrade
// readiness because every capability has a local fallback.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/rebookd/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check names the Manager lifts into the readiness body.
const (
	CheckStore    = "store"
	CheckCircuits = "ai_circuits"
)

// CheckResult is the outcome of one component check. Details carries
// machine-readable facts such as the store backend or per-capability
// circuit states.
type CheckResult struct {
	Status  Status            `json:"status"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// LivenessResponse is the body of /healthz.
type LivenessResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime"`
	CheckedAt time.Time              `json:"checkedAt"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadinessResponse is the body of /readyz.
type ReadinessResponse struct {
	Ready        bool                   `json:"ready"`
	Status       Status                 `json:"status"`
	StoreBackend string                 `json:"storeBackend,omitempty"`
	OpenCircuits []string               `json:"openCircuits"`
	CheckedAt    time.Time              `json:"checkedAt"`
	Checks       map[string]CheckResult `json:"checks"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs the registered checkers for both probes.
type Manager struct {
	version string
	now     func() time.Time
	started time.Time

	mu        sync.RWMutex
	checkers  []Checker
	lastReady *bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new health check manager
func NewManager(version string, opts ...Option) *Manager {
	m := &Manager{version: version, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	m.started = m.now()
	return m
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// runChecks runs every checker concurrently. A slow store ping does not
// hold up the breaker scan.
func (m *Manager) runChecks(ctx context.Context) map[string]CheckResult {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checkers))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checkers {
		g.Go(func() error {
			res := c.Check(gctx)
			mu.Lock()
			results[c.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// Health is the liveness view. Component checks only run when verbose is
// set, and their outcome never changes the HTTP status.
func (m *Manager) Health(ctx context.Context, verbose bool) LivenessResponse {
	now := m.now()
	resp := LivenessResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Uptime:    now.Sub(m.started).Truncate(time.Second).String(),
		CheckedAt: now,
	}
	if verbose {
		resp.Checks = m.runChecks(ctx)
		resp.Status = overall(resp.Checks)
	}
	return resp
}

// Ready is the readiness view. It is not ready only when a check is
// unhealthy, which in practice means the session store is down.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	checks := m.runChecks(ctx)
	resp := ReadinessResponse{
		Status:       overall(checks),
		OpenCircuits: []string{},
		CheckedAt:    m.now(),
		Checks:       checks,
	}
	resp.Ready = resp.Status != StatusUnhealthy

	if st, ok := checks[CheckStore]; ok {
		resp.StoreBackend = st.Details["backend"]
	}
	if cb, ok := checks[CheckCircuits]; ok {
		for capability, state := range cb.Details {
			if state != "closed" {
				resp.OpenCircuits = append(resp.OpenCircuits, capability)
			}
		}
		sort.Strings(resp.OpenCircuits)
	}

	m.noteTransition(ctx, resp)
	return resp
}

// noteTransition logs when readiness flips so operators see store outages
// without scraping the probe.
func (m *Manager) noteTransition(ctx context.Context, resp ReadinessResponse) {
	m.mu.Lock()
	changed := m.lastReady == nil || *m.lastReady != resp.Ready
	ready := resp.Ready
	m.lastReady = &ready
	m.mu.Unlock()
	if !changed {
		return
	}

	logger := log.WithComponentFromContext(ctx, "readiness")
	var evt *zerolog.Event
	if resp.Ready {
		evt = logger.Info()
	} else {
		evt = logger.Warn()
		if st, ok := resp.Checks[CheckStore]; ok && st.Error != "" {
			evt = evt.Str("store_error", st.Error)
		}
	}
	evt.Str("event", "readiness.changed").
		Bool("ready", resp.Ready).
		Str("store", resp.StoreBackend).
		Strs("open_circuits", resp.OpenCircuits).
		Msg("readiness changed")
}

// ServeHealth handles /healthz. ?verbose=true includes component checks.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := m.Health(r.Context(), r.URL.Query().Get("verbose") == "true")
	writeProbe(w, r, "health", http.StatusOK, resp)
}

// ServeReady handles /readyz: 200 when ready, 503 otherwise.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeProbe(w, r, "readiness", code, resp)
}

func writeProbe(w http.ResponseWriter, r *http.Request, component string, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := log.WithComponentFromContext(r.Context(), component)
		logger.Error().Err(err).Str("event", component+".encode_error").Msg("failed to encode probe response")
	}
}
