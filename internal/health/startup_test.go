// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"path/filepath"
	"testing"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startupConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Listen = ":8080"
	return cfg
}

func TestPerformStartupChecks(t *testing.T) {
	require.NoError(t, PerformStartupChecks(startupConfig(t)))
}

func TestPerformStartupChecks_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AppConfig)
		want   string
	}{
		{
			name:   "missing data dir",
			mutate: func(c *config.AppConfig) { c.DataDir = filepath.Join(c.DataDir, "nope") },
			want:   "does not exist",
		},
		{
			name:   "bad listen address",
			mutate: func(c *config.AppConfig) { c.Listen = "8080" },
			want:   "invalid listen address",
		},
		{
			name:   "bad listen port",
			mutate: func(c *config.AppConfig) { c.Listen = ":http-alt" },
			want:   "invalid listen port",
		},
		{
			name: "managed without endpoint",
			mutate: func(c *config.AppConfig) {
				c.AI.UseManagedChat = true
				c.AI.Endpoint = "gateway.local"
			},
			want: "REBOOKD_AI_ENDPOINT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := startupConfig(t)
			tt.mutate(&cfg)
			err := PerformStartupChecks(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPerformStartupChecks_CreatesHandoffDir(t *testing.T) {
	cfg := startupConfig(t)
	cfg.Handoff.Dir = filepath.Join(cfg.DataDir, "handoff", "packets")
	cfg.AI.UseManagedKB = true
	cfg.AI.Endpoint = "https://gateway.example.com"

	require.NoError(t, PerformStartupChecks(cfg))
	assert.DirExists(t, cfg.Handoff.Dir)
}
