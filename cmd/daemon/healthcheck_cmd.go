package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	mode    string
	addr    string
	timeout time.Duration
}

func newHealthcheckCmd() *cobra.Command {
	opts := &healthcheckOptions{}
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running rebookd (for container health checks)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealthcheck(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "ready", "healthcheck mode: ready (default) or live")
	cmd.Flags().StringVar(&opts.addr, "addr", "http://localhost:3000", "base URL of the API")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "check timeout")
	return cmd
}

func runHealthcheck(ctx context.Context, out io.Writer, opts *healthcheckOptions) error {
	path := "/health"
	switch opts.mode {
	case "ready":
		path = "/readyz"
	case "live":
	default:
		return fmt.Errorf("unknown healthcheck mode %q (want ready or live)", opts.mode)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.addr+path, nil)
	if err != nil {
		return fmt.Errorf("healthcheck request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck failed (network): %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck failed (status): %s", resp.Status)
	}

	_, _ = fmt.Fprintf(out, "Healthcheck successful (%s)\n", opts.mode)
	return nil
}
