// SPDX-License-Identifier: MIT

// Package daemon wires the rebookd service graph and owns its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ManuGH/rebookd/internal/aigw"
	"github.com/ManuGH/rebookd/internal/api"
	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/dashboard"
	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/ManuGH/rebookd/internal/handoff"
	"github.com/ManuGH/rebookd/internal/health"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/pii"
	"github.com/ManuGH/rebookd/internal/router"
	"github.com/ManuGH/rebookd/internal/sentiment"
	"github.com/ManuGH/rebookd/internal/session"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/ManuGH/rebookd/internal/telemetry"
	"github.com/ManuGH/rebookd/internal/translate"
	"github.com/rs/zerolog"
)

// Services holds the long-lived collaborators that survive a config reload:
// the store, the gateway client with its breakers, the handoff sinks and the
// tracer provider. Everything built from them is cheap to rebuild.
type Services struct {
	Store     *store.Instrumented
	AI        *aigw.Client
	Handoff   *handoff.Multi
	Health    *health.Manager
	Telemetry *telemetry.Provider

	logger zerolog.Logger
}

// Open builds the long-lived collaborators for cfg. On error everything that
// was already opened is closed again.
func Open(ctx context.Context, cfg config.AppConfig) (_ *Services, err error) {
	s := &Services{logger: xglog.WithComponent("daemon")}
	defer func() {
		if err != nil {
			_ = s.Close(context.WithoutCancel(ctx))
		}
	}()

	s.Telemetry, err = telemetry.NewProvider(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	s.Store, err = store.Open(ctx, cfg.Store, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	s.Handoff, err = handoff.FromConfig(cfg.Handoff)
	if err != nil {
		return nil, fmt.Errorf("init handoff: %w", err)
	}

	s.AI = aigw.New(aigw.Options{
		Endpoint:         cfg.AI.Endpoint,
		APIKey:           cfg.AI.APIKey,
		Timeout:          cfg.AI.Timeout,
		RPS:              cfg.AI.RPS,
		Burst:            cfg.AI.Burst,
		BreakerThreshold: cfg.AI.BreakerThreshold,
		BreakerReset:     cfg.AI.BreakerReset,
		UserAgent:        "rebookd/" + cfg.Version,
	})

	s.Health = health.NewManager(cfg.Version)
	s.Health.RegisterChecker(health.NewStoreChecker(s.Store.Backend(), s.Store))
	s.Health.RegisterChecker(health.NewBreakerChecker(s.AI.Breakers))

	s.logger.Info().
		Str("event", "daemon.services_ready").
		Str("store", s.Store.Backend()).
		Int("handoff_sinks", s.Handoff.Len()).
		Bool("tracing", cfg.Tracing.Enabled).
		Bool("managed_ai", cfg.AI.AnyManaged()).
		Msg("service graph opened")
	return s, nil
}

// Sessions builds the session service for cfg. Managed collaborators are
// only wired for the capabilities cfg enables.
func (s *Services) Sessions(cfg config.AppConfig) *session.Service {
	ai := cfg.AI

	var classifier sentiment.Classifier
	if ai.UseManagedSentiment {
		classifier = sentiment.NewManaged(s.AI, "en")
	}
	var detector pii.Detector
	if ai.UseManagedPII {
		detector = pii.NewManaged(s.AI)
	}
	var translator translate.Translator = translate.Passthrough{}
	if ai.UseManagedTranslate {
		translator = translate.NewManaged(s.AI)
	}
	var policy router.PolicyResponder
	if ai.UseManagedKB {
		policy = router.NewManagedPolicy(s.AI)
	}
	var chat router.ChatResponder
	if ai.UseManagedChat {
		chat = router.NewManagedChat(s.AI, ai.GuardrailID)
	}

	return session.New(session.Deps{
		Store:        s.Store,
		Sentiment:    sentiment.NewFallback(classifier),
		PII:          pii.NewFallback(detector),
		Router:       router.New(policy, chat),
		Translator:   translator,
		Publisher:    s.Handoff,
		DefaultTier:  domain.Tier(cfg.DefaultTier),
		ManifestSize: cfg.ManifestSize,
	})
}

// Handler builds the complete HTTP handler for cfg.
func (s *Services) Handler(cfg config.AppConfig) http.Handler {
	srv := api.New(cfg, s.Sessions(cfg), dashboard.New(s.Store, nil), s.Health)
	return srv.Handler()
}

// Close releases everything Open acquired. It is safe on a partially
// opened graph.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if s.Handoff != nil {
		if err := s.Handoff.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close handoff: %w", err))
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if s.Telemetry != nil {
		if err := s.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}
