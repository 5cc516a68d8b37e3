// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the HTTP surface of rebookd.
package api

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/ManuGH/rebookd/internal/api/middleware"
	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/dashboard"
	"github.com/ManuGH/rebookd/internal/health"
	"github.com/ManuGH/rebookd/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec returns the embedded OpenAPI 3 document.
func OpenAPISpec() []byte { return openAPISpec }

// Sessions is the orchestrator surface the handlers call. *session.Service
// satisfies it.
type Sessions interface {
	CreateDisruption(ctx context.Context, in session.CreateDisruptionInput) (session.CreateDisruptionResult, error)
	ListDisruptions(ctx context.Context) ([]session.DisruptionView, error)
	ChatTurn(ctx context.Context, sessionID, message string) (session.ChatResult, error)
	SelectOption(ctx context.Context, sessionID, optionID string) (session.SelectResult, error)
	Confirm(ctx context.Context, sessionID string) (session.ConfirmResult, error)
	Escalate(ctx context.Context, sessionID, reason string) (session.EscalateResult, error)
}

// Dashboard builds the operator rollup. *dashboard.Aggregator satisfies it.
type Dashboard interface {
	Build(ctx context.Context, timeRange string) (dashboard.Report, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	cfg       config.AppConfig
	sessions  Sessions
	dashboard Dashboard
	health    *health.Manager
	now       func() time.Time
}

// ServerOption allows functional configuration of the Server.
type ServerOption func(*Server)

// WithClock overrides the clock used by /health (tests).
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// New creates the server. A nil health manager gets one with no checkers.
func New(cfg config.AppConfig, sessions Sessions, dash Dashboard, hm *health.Manager, opts ...ServerOption) *Server {
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		dashboard: dash,
		health:    hm,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with the full middleware stack.
func (s *Server) Handler() http.Handler {
	tracing := ""
	if s.cfg.Tracing.Enabled {
		tracing = "rebookd-api"
	}
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		AllowedOrigins:        s.cfg.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracing,
		EnableLogging:         true,
		RateLimitRPM:          s.cfg.RateLimitRPM,
	})
	s.registerRoutes(r)
	return r
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Get("/healthz", s.health.ServeHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", s.handleOpenAPI)

	r.Post("/disruption", s.handleCreateDisruption)
	r.Get("/disruption", s.handleListDisruptions)
	r.Post("/chat", s.handleChat)
	r.Post("/select-option", s.handleSelectOption)
	r.Post("/confirm", s.handleConfirm)
	r.Post("/escalate", s.handleEscalate)
	r.Get("/dashboard", s.handleDashboard)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})
}
