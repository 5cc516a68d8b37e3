// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/dashboard"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "healthcheck", "seed", "manifest"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestManifestCmd(t *testing.T) {
	out, err := execute(t, "manifest", "--count", "40", "--seed", "DIS-TEST")
	require.NoError(t, err)

	var rep struct {
		Summary struct {
			TotalPassengers int `json:"totalPassengers"`
		} `json:"summary"`
		Focus      []json.RawMessage `json:"focusPassengers"`
		Passengers []json.RawMessage `json:"passengers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 40, rep.Summary.TotalPassengers)
	assert.NotEmpty(t, rep.Focus)
	assert.Empty(t, rep.Passengers)

	again, err := execute(t, "manifest", "--count", "40", "--seed", "DIS-TEST")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestHealthcheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		mode    string
		wantErr string
	}{
		{"live ok", "live", ""},
		{"ready unavailable", "ready", "status"},
		{"unknown mode", "deep", "unknown healthcheck mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runHealthcheck(context.Background(), &out, &healthcheckOptions{
				mode:    tt.mode,
				addr:    srv.URL,
				timeout: time.Second,
			})
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Contains(t, out.String(), "Healthcheck successful (live)")
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHealthcheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := runHealthcheck(context.Background(), &bytes.Buffer{}, &healthcheckOptions{mode: "live", addr: addr, timeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network")
}

func TestSeed_SQLitePersists(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Backend = config.StoreSQLite
	cfg.DataDir = t.TempDir()
	now := time.Now().UTC()

	var out bytes.Buffer
	require.NoError(t, runSeed(context.Background(), &out, cfg, now))
	assert.Contains(t, out.String(), `"store": "sqlite"`)
	assert.Contains(t, out.String(), `"escalations": 13`)

	st, err := store.Open(context.Background(), cfg.Store, cfg.DataDir)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	rep, err := dashboard.New(st, func() time.Time { return now }).Build(context.Background(), "24h")
	require.NoError(t, err)
	assert.Equal(t, 7, rep.Bookings.Total)
	assert.Equal(t, 2, rep.Bookings.Failed)
}

func TestSeed_MemoryStoreWarns(t *testing.T) {
	var logs bytes.Buffer
	xglog.Configure(xglog.Config{Level: "info", Output: &logs})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()

	var out bytes.Buffer
	require.NoError(t, runSeed(context.Background(), &out, cfg, time.Now().UTC()))
	assert.Contains(t, out.String(), `"store": "memory"`)
	assert.Contains(t, logs.String(), `"event":"seed.memory_store"`)
	assert.Contains(t, logs.String(), `"event":"dashboard.seeded"`)
}

func TestSeedCmd_UsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REBOOKD_STORE", "badger")
	t.Setenv("REBOOKD_DATA_DIR", dir)

	out, err := execute(t, "seed", "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, `"store": "badger"`)
	assert.Contains(t, out, `"sessions": 17`)
}

func TestServe_StartsAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Setenv("REBOOKD_DATA_DIR", t.TempDir())
	t.Setenv("REBOOKD_LISTEN", "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, &globalFlags{}) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	t.Setenv("REBOOKD_DATA_DIR", t.TempDir())
	t.Setenv("REBOOKD_DEFAULT_TIER", "Diamond")

	_, err := execute(t, "serve", "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
