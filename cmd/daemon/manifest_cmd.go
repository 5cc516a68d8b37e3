// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"io"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/ManuGH/rebookd/internal/manifest"
	"github.com/spf13/cobra"
)

type manifestReport struct {
	Params  manifest.Params        `json:"params"`
	Summary domain.ManifestSummary `json:"summary"`
	Focus   []manifest.Entry       `json:"focusPassengers"`
	All     []manifest.Entry       `json:"passengers,omitempty"`
}

func newManifestCmd() *cobra.Command {
	var (
		p   manifest.Params
		all bool
	)
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print a synthetic passenger manifest summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifest(cmd.OutOrStdout(), p, all)
		},
	}
	cmd.Flags().StringVar(&p.Origin, "origin", "FRA", "origin airport")
	cmd.Flags().StringVar(&p.Destination, "destination", "JFK", "destination airport")
	cmd.Flags().StringVar(&p.FlightNumber, "flight", "UA891", "flight number")
	cmd.Flags().IntVar(&p.Count, "count", manifest.DefaultCount, "number of passengers")
	cmd.Flags().StringVar(&p.Seed, "seed", "DIS-DEMO", "seed, typically a disruption id")
	cmd.Flags().BoolVar(&all, "all", false, "include every passenger in the output")
	return cmd
}

func runManifest(out io.Writer, p manifest.Params, all bool) error {
	entries := manifest.Generate(p)
	rep := manifestReport{
		Params:  p,
		Summary: manifest.Summarize(entries),
		Focus:   manifest.FocusPassengers(entries),
	}
	if all {
		rep.All = entries
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
