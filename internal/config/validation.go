// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/rebookd/internal/manifest"
	"github.com/ManuGH/rebookd/internal/validate"
	"github.com/rs/zerolog"
)

var tiers = []string{"Platinum", "Gold", "Silver", "General"}

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("Listen", cfg.Listen)
	v.Positive("MaxConns", cfg.MaxConns)
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}
	v.NonNegative("RateLimitRPM", cfg.RateLimitRPM)
	v.OneOf("DefaultTier", cfg.DefaultTier, tiers)
	v.Range("ManifestSize", cfg.ManifestSize, 1, manifest.MaxCount)

	v.OneOf("Store.Backend", cfg.Store.Backend, StoreBackends)
	switch cfg.Store.Backend {
	case StoreBadger, StoreSQLite:
		v.Directory("DataDir", cfg.DataDir, false)
	case StoreRedis:
		v.NotEmpty("Store.RedisAddr", cfg.Store.RedisAddr)
		v.Range("Store.RedisDB", cfg.Store.RedisDB, 0, 15)
	case StorePostgres:
		v.NotEmpty("Store.PostgresDSN", cfg.Store.PostgresDSN)
	}

	if cfg.AI.AnyManaged() {
		v.URL("AI.Endpoint", cfg.AI.Endpoint, []string{"http", "https"})
	}
	if cfg.AI.Timeout <= 0 {
		v.AddError("AI.Timeout", "must be positive", cfg.AI.Timeout)
	}
	if cfg.AI.RPS <= 0 {
		v.AddError("AI.RPS", "must be positive", cfg.AI.RPS)
	}
	v.Positive("AI.Burst", cfg.AI.Burst)
	v.Positive("AI.BreakerThreshold", cfg.AI.BreakerThreshold)

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("Tracing.SamplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	if len(cfg.Handoff.KafkaBrokers) > 0 {
		v.NotEmpty("Handoff.KafkaTopic", cfg.Handoff.KafkaTopic)
	}
	if strings.TrimSpace(cfg.Handoff.Dir) != "" {
		v.Directory("Handoff.Dir", cfg.Handoff.Dir, false)
	}

	return v.Err()
}
