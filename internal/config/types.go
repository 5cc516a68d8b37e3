// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for rebookd.
package config

import "time"

// Store backends understood by the store factory.
const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// StoreBackends lists every supported backend.
var StoreBackends = []string{StoreMemory, StoreBadger, StoreSQLite, StoreRedis, StorePostgres}

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string

	Listen       string
	MaxConns     int
	LogLevel     string
	DataDir      string
	CORSOrigins  []string
	RateLimitRPM int

	// DefaultTier is applied to passengers created without a tier.
	DefaultTier string
	// ManifestSize is the synthetic population size when a request omits passengerCount.
	ManifestSize int

	Store   StoreConfig
	AI      AIConfig
	Tracing TracingConfig
	Handoff HandoffConfig
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
}

// AIConfig configures the managed AI gateway and which capabilities use it.
type AIConfig struct {
	Endpoint         string
	APIKey           string
	Timeout          time.Duration
	RPS              float64
	Burst            int
	BreakerThreshold int
	BreakerReset     time.Duration
	GuardrailID      string

	UseManagedChat      bool
	UseManagedKB        bool
	UseManagedSentiment bool
	UseManagedPII       bool
	UseManagedTranslate bool
}

// AnyManaged reports whether at least one capability calls the gateway.
func (c AIConfig) AnyManaged() bool {
	return c.UseManagedChat || c.UseManagedKB || c.UseManagedSentiment || c.UseManagedPII || c.UseManagedTranslate
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// HandoffConfig configures where escalation packets are delivered.
type HandoffConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	Dir          string
}

// FileConfig is the on-disk YAML shape. Pointer fields distinguish unset
// values from explicit zero values.
type FileConfig struct {
	Listen       string   `yaml:"listen,omitempty"`
	MaxConns     *int     `yaml:"maxConns,omitempty"`
	LogLevel     string   `yaml:"logLevel,omitempty"`
	DataDir      string   `yaml:"dataDir,omitempty"`
	CORSOrigins  []string `yaml:"corsOrigins,omitempty"`
	RateLimitRPM *int     `yaml:"rateLimitRpm,omitempty"`
	DefaultTier  string   `yaml:"defaultTier,omitempty"`
	ManifestSize *int     `yaml:"manifestSize,omitempty"`

	Store   *FileStore   `yaml:"store,omitempty"`
	AI      *FileAI      `yaml:"ai,omitempty"`
	Tracing *FileTracing `yaml:"tracing,omitempty"`
	Handoff *FileHandoff `yaml:"handoff,omitempty"`
}

// FileStore is the YAML store section.
type FileStore struct {
	Backend       string `yaml:"backend,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       *int   `yaml:"redisDb,omitempty"`
	PostgresDSN   string `yaml:"postgresDsn,omitempty"`
}

// FileAI is the YAML ai section.
type FileAI struct {
	Endpoint         string   `yaml:"endpoint,omitempty"`
	APIKey           string   `yaml:"apiKey,omitempty"`
	Timeout          string   `yaml:"timeout,omitempty"`
	RPS              *float64 `yaml:"rps,omitempty"`
	Burst            *int     `yaml:"burst,omitempty"`
	BreakerThreshold *int     `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string   `yaml:"breakerReset,omitempty"`
	GuardrailID      string   `yaml:"guardrailId,omitempty"`

	UseManagedChat      *bool `yaml:"managedChat,omitempty"`
	UseManagedKB        *bool `yaml:"managedKnowledgeBase,omitempty"`
	UseManagedSentiment *bool `yaml:"managedSentiment,omitempty"`
	UseManagedPII       *bool `yaml:"managedPii,omitempty"`
	UseManagedTranslate *bool `yaml:"managedTranslate,omitempty"`
}

// FileTracing is the YAML tracing section.
type FileTracing struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
}

// FileHandoff is the YAML handoff section.
type FileHandoff struct {
	KafkaBrokers []string `yaml:"kafkaBrokers,omitempty"`
	KafkaTopic   string   `yaml:"kafkaTopic,omitempty"`
	Dir          string   `yaml:"dir,omitempty"`
}
