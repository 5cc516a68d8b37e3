// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/rebookd/internal/config"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/spf13/cobra"
)

var (
	version   = "v0.4.0"
	commit    = "none"
	buildDate = "unknown"
)

// globalFlags are shared by every subcommand that loads configuration.
type globalFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "rebookd",
		Short:         "Disruption assistant: rebooking options, chat and agent handoff",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves the API.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(
		newServeCmd(flags),
		newHealthcheckCmd(),
		newSeedCmd(flags),
		newManifestCmd(),
	)
	return root
}

// loadConfig loads configuration (env > file > defaults) and reconfigures
// the global logger from it.
func loadConfig(flags *globalFlags) (config.AppConfig, *config.Loader, error) {
	xglog.Configure(xglog.Config{Level: "info", Service: "rebookd", Version: version})

	loader := config.NewLoader(strings.TrimSpace(flags.configPath), flags.envFile, version)
	cfg, err := loader.Load()
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("load config: %w", err)
	}

	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Service: "rebookd", Version: cfg.Version})
	return cfg, loader, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rebookd: %v\n", err)
		os.Exit(1)
	}
}
