// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/dashboard"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/spf13/cobra"
)

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write demo sessions, escalations and bookings for the dashboard",
		Long: "Write demo sessions with escalations and bookings spread over the last\n" +
			"30 days into the configured store. Requires a persistent store backend.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cmd.OutOrStdout(), cfg, time.Now())
		},
	}
}

func runSeed(ctx context.Context, out io.Writer, cfg config.AppConfig, now time.Time) error {
	if cfg.Store.Backend == config.StoreMemory {
		logger := xglog.WithComponent("seed")
		logger.Warn().
			Str("event", "seed.memory_store").
			Msg("seeding the memory store; data is discarded when this command exits")
	}

	st, err := store.Open(ctx, cfg.Store, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	res, err := dashboard.SeedSample(ctx, st, now)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Store string `json:"store"`
		dashboard.SeedResult
	}{Store: st.Backend(), SeedResult: res})
}
