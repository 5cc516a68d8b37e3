// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/rebookd/internal/config"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/rs/zerolog"
)

// SwapHandler serves through a handler that can be replaced at runtime.
type SwapHandler struct {
	current atomic.Pointer[http.Handler]
}

// NewSwapHandler returns a SwapHandler serving h.
func NewSwapHandler(h http.Handler) *SwapHandler {
	s := &SwapHandler{}
	s.Store(h)
	return s
}

// Store replaces the handler. In-flight requests finish on the old one.
func (s *SwapHandler) Store(h http.Handler) { s.current.Store(&h) }

func (s *SwapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.current.Load()).ServeHTTP(w, r)
}

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	services     *Services
	handler      *SwapHandler
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. handler must be the handler the
// manager serves; reloads rebuild it from services.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder, services *Services, handler *SwapHandler) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		services:     services,
		handler:      handler,
		reloadSignal: syscall.SIGHUP,
	}
}

// Apply makes cfg effective without a restart: the log level, the AI
// toggles, CORS and the rate limit. Listen address and store backend
// changes are logged by the holder and need a restart.
func (a *App) Apply(cfg config.AppConfig) {
	if err := xglog.SetLevel(cfg.LogLevel); err != nil {
		a.logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
	}
	if a.services != nil && a.handler != nil {
		a.handler.Store(a.services.Handler(cfg))
	}
	a.logger.Info().
		Str("event", "config.applied").
		Str("log_level", cfg.LogLevel).
		Int("rate_limit_rpm", cfg.RateLimitRPM).
		Bool("managed_ai", cfg.AI.AnyManaged()).
		Msg("configuration applied")
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		a.cfgHolder.OnReload(a.Apply)

		// Best-effort: startup does not fail if the watcher cannot start.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		defer a.cfgHolder.Stop()
	}

	// SIGHUP trigger for manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
