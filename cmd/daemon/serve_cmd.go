// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/daemon"
	"github.com/ManuGH/rebookd/internal/health"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the disruption API",
		Long: "Serve the disruption API until SIGINT or SIGTERM. SIGHUP and edits to the\n" +
			"config file reload the log level, AI toggles, CORS origins and rate limit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(parent context.Context, flags *globalFlags) error {
	cfg, loader, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := health.PerformStartupChecks(cfg); err != nil {
		logger.Error().
			Err(err).
			Str("event", "startup.checks_failed").
			Msg("startup checks failed")
		return fmt.Errorf("startup checks: %w", err)
	}

	logger.Info().
		Str("event", "daemon.starting").
		Str("version", version).
		Str("commit", commit).
		Str("listen", cfg.Listen).
		Str("store", cfg.Store.Backend).
		Str("config_path", loader.ConfigPath()).
		Msg("starting rebookd")

	svc, err := daemon.Open(ctx, cfg)
	if err != nil {
		return err
	}

	handler := daemon.NewSwapHandler(svc.Handler(cfg))
	mgr, err := daemon.NewManager(daemon.ServerConfigFrom(cfg), daemon.Deps{
		Logger:     logger,
		APIHandler: handler,
	})
	if err != nil {
		_ = svc.Close(context.WithoutCancel(ctx))
		return err
	}
	mgr.RegisterShutdownHook("services", svc.Close)

	app := daemon.NewApp(logger, mgr, config.NewHolder(cfg, loader), svc, handler)
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	logger.Info().Str("event", "daemon.stopped").Msg("rebookd stopped")
	return nil
}
