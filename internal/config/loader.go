// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	envFile    string
	version    string
}

// NewLoader creates a new configuration loader. envFile names an optional
// dotenv file whose variables are applied without overriding the process
// environment.
func NewLoader(configPath, envFile, version string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    envFile,
		version:    version,
	}
}

// ConfigPath returns the YAML path the loader reads, if any.
func (l *Loader) ConfigPath() string { return l.configPath }

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	if err := l.loadDotEnv(); err != nil {
		return AppConfig{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := LoadFileConfig(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) loadDotEnv() error {
	if l.envFile == "" {
		return nil
	}
	err := godotenv.Load(l.envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Listen:       ":3000",
		MaxConns:     512,
		LogLevel:     "info",
		DataDir:      "./data",
		RateLimitRPM: 600,
		DefaultTier:  "Platinum",
		ManifestSize: 200,
		Store: StoreConfig{
			Backend:   StoreMemory,
			RedisAddr: "localhost:6379",
		},
		AI: AIConfig{
			Timeout:          4 * time.Second,
			RPS:              5,
			Burst:            10,
			BreakerThreshold: 3,
			BreakerReset:     30 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "demo",
		},
		Handoff: HandoffConfig{
			KafkaTopic: "rebookd.escalations",
		},
	}
}

// LoadFileConfig parses a YAML config file strictly. Unknown keys are errors.
func LoadFileConfig(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.Listen, f.Listen)
	setInt(&cfg.MaxConns, f.MaxConns)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.DataDir, f.DataDir)
	if len(f.CORSOrigins) > 0 {
		cfg.CORSOrigins = append([]string(nil), f.CORSOrigins...)
	}
	setInt(&cfg.RateLimitRPM, f.RateLimitRPM)
	setString(&cfg.DefaultTier, f.DefaultTier)
	setInt(&cfg.ManifestSize, f.ManifestSize)

	if s := f.Store; s != nil {
		setString(&cfg.Store.Backend, s.Backend)
		setString(&cfg.Store.RedisAddr, s.RedisAddr)
		setString(&cfg.Store.RedisPassword, s.RedisPassword)
		setInt(&cfg.Store.RedisDB, s.RedisDB)
		setString(&cfg.Store.PostgresDSN, s.PostgresDSN)
	}

	if a := f.AI; a != nil {
		setString(&cfg.AI.Endpoint, a.Endpoint)
		setString(&cfg.AI.APIKey, a.APIKey)
		if err := setDuration(&cfg.AI.Timeout, "ai.timeout", a.Timeout); err != nil {
			return err
		}
		if a.RPS != nil {
			cfg.AI.RPS = *a.RPS
		}
		setInt(&cfg.AI.Burst, a.Burst)
		setInt(&cfg.AI.BreakerThreshold, a.BreakerThreshold)
		if err := setDuration(&cfg.AI.BreakerReset, "ai.breakerReset", a.BreakerReset); err != nil {
			return err
		}
		setString(&cfg.AI.GuardrailID, a.GuardrailID)
		setBool(&cfg.AI.UseManagedChat, a.UseManagedChat)
		setBool(&cfg.AI.UseManagedKB, a.UseManagedKB)
		setBool(&cfg.AI.UseManagedSentiment, a.UseManagedSentiment)
		setBool(&cfg.AI.UseManagedPII, a.UseManagedPII)
		setBool(&cfg.AI.UseManagedTranslate, a.UseManagedTranslate)
	}

	if t := f.Tracing; t != nil {
		setBool(&cfg.Tracing.Enabled, t.Enabled)
		setString(&cfg.Tracing.Exporter, t.Exporter)
		setString(&cfg.Tracing.Endpoint, t.Endpoint)
		if t.SamplingRate != nil {
			cfg.Tracing.SamplingRate = *t.SamplingRate
		}
		setString(&cfg.Tracing.Environment, t.Environment)
	}

	if h := f.Handoff; h != nil {
		if len(h.KafkaBrokers) > 0 {
			cfg.Handoff.KafkaBrokers = append([]string(nil), h.KafkaBrokers...)
		}
		setString(&cfg.Handoff.KafkaTopic, h.KafkaTopic)
		setString(&cfg.Handoff.Dir, h.Dir)
	}
	return nil
}

func mergeEnvConfig(cfg *AppConfig) {
	cfg.Listen = ParseString("REBOOKD_LISTEN", cfg.Listen)
	cfg.MaxConns = ParseInt("REBOOKD_MAX_CONNS", cfg.MaxConns)
	cfg.LogLevel = ParseString("REBOOKD_LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = ParseString("REBOOKD_DATA_DIR", cfg.DataDir)
	cfg.CORSOrigins = ParseStringSlice("REBOOKD_CORS_ORIGINS", cfg.CORSOrigins)
	cfg.RateLimitRPM = ParseInt("REBOOKD_RATE_LIMIT_RPM", cfg.RateLimitRPM)
	cfg.DefaultTier = ParseString("REBOOKD_DEFAULT_TIER", cfg.DefaultTier)
	cfg.ManifestSize = ParseInt("REBOOKD_MANIFEST_SIZE", cfg.ManifestSize)

	cfg.Store.Backend = ParseString("REBOOKD_STORE", cfg.Store.Backend)
	cfg.Store.RedisAddr = ParseString("REBOOKD_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = ParseString("REBOOKD_REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = ParseInt("REBOOKD_REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.PostgresDSN = ParseString("REBOOKD_POSTGRES_DSN", cfg.Store.PostgresDSN)

	cfg.AI.Endpoint = ParseString("REBOOKD_AI_ENDPOINT", cfg.AI.Endpoint)
	cfg.AI.APIKey = ParseString("REBOOKD_AI_API_KEY", cfg.AI.APIKey)
	cfg.AI.Timeout = ParseDuration("REBOOKD_AI_TIMEOUT", cfg.AI.Timeout)
	cfg.AI.RPS = ParseFloat("REBOOKD_AI_RPS", cfg.AI.RPS)
	cfg.AI.Burst = ParseInt("REBOOKD_AI_BURST", cfg.AI.Burst)
	cfg.AI.BreakerThreshold = ParseInt("REBOOKD_AI_BREAKER_THRESHOLD", cfg.AI.BreakerThreshold)
	cfg.AI.BreakerReset = ParseDuration("REBOOKD_AI_BREAKER_RESET", cfg.AI.BreakerReset)
	cfg.AI.GuardrailID = ParseString("REBOOKD_GUARDRAIL_ID", cfg.AI.GuardrailID)
	cfg.AI.UseManagedChat = ParseBool("REBOOKD_USE_MANAGED_CHAT", cfg.AI.UseManagedChat)
	cfg.AI.UseManagedKB = ParseBool("REBOOKD_USE_MANAGED_KB", cfg.AI.UseManagedKB)
	cfg.AI.UseManagedSentiment = ParseBool("REBOOKD_USE_MANAGED_SENTIMENT", cfg.AI.UseManagedSentiment)
	cfg.AI.UseManagedPII = ParseBool("REBOOKD_USE_MANAGED_PII", cfg.AI.UseManagedPII)
	cfg.AI.UseManagedTranslate = ParseBool("REBOOKD_USE_MANAGED_TRANSLATE", cfg.AI.UseManagedTranslate)

	cfg.Tracing.Enabled = ParseBool("REBOOKD_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = ParseString("REBOOKD_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = ParseString("REBOOKD_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = ParseFloat("REBOOKD_TRACING_SAMPLING", cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = ParseString("REBOOKD_ENVIRONMENT", cfg.Tracing.Environment)

	cfg.Handoff.KafkaBrokers = ParseStringSlice("REBOOKD_KAFKA_BROKERS", cfg.Handoff.KafkaBrokers)
	cfg.Handoff.KafkaTopic = ParseString("REBOOKD_KAFKA_TOPIC", cfg.Handoff.KafkaTopic)
	cfg.Handoff.Dir = ParseString("REBOOKD_HANDOFF_DIR", cfg.Handoff.Dir)
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
