// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oasdiff/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeValidConfig marshals a minimal config to avoid YAML indentation mistakes.
func writeValidConfig(t *testing.T, path, logLevel string) {
	t.Helper()
	cfg := map[string]any{
		"logLevel": logLevel,
		"dataDir":  filepath.Dir(path),
		"store": map[string]any{
			"backend": "memory",
		},
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestHolder_ReloadAppliesAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeValidConfig(t, path, "info")

	loader := NewLoader(path, "", "v1")
	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewHolder(initial, loader)
	var seen atomic.Value
	holder.OnReload(func(c AppConfig) { seen.Store(c.LogLevel) })

	writeValidConfig(t, path, "debug")
	require.NoError(t, holder.Reload(context.Background()))

	assert.Equal(t, "debug", holder.Get().LogLevel)
	assert.Equal(t, "debug", seen.Load())
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeValidConfig(t, path, "warn")

	loader := NewLoader(path, "", "v1")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := NewHolder(initial, loader)

	require.NoError(t, os.WriteFile(path, []byte("unknownKey: true\n"), 0o600))
	require.Error(t, holder.Reload(context.Background()))
	assert.Equal(t, "warn", holder.Get().LogLevel)
}

func TestHolder_WatcherDisabledWithoutFile(t *testing.T) {
	holder := NewHolder(Defaults(), NewLoader("", "", "v1"))
	assert.NoError(t, holder.StartWatcher(context.Background()))
	holder.Stop()
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeValidConfig(t, path, "info")

	loader := NewLoader(path, "", "v1")
	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewHolder(initial, loader)
	holder.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, holder.StartWatcher(ctx))

	writeValidConfig(t, path, "error")

	assert.Eventually(t, func() bool {
		return holder.Get().LogLevel == "error"
	}, 3*time.Second, 20*time.Millisecond)
}
