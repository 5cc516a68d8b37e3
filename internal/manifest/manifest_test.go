// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manifest

import (
	"testing"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(seed string, count int) Params {
	return Params{Origin: "FRA", Destination: "JFK", FlightNumber: "UA891", Count: count, Seed: seed}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(params("DIS-1", 50))
	b := Generate(params("DIS-1", 50))
	c := Generate(params("DIS-2", 50))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	entries := Generate(params("DIS-shape", 300))
	require.Len(t, entries, 300)

	ids := make(map[string]bool)
	for i, e := range entries {
		ids[e.PassengerID] = true
		assert.Equal(t, "FRA", e.Origin)
		assert.Equal(t, SeatClass(e.Tier), e.SeatClass)
		if e.ConsentForProactive {
			assert.True(t, e.HasApp, "consent requires app")
		}
		if e.ConnectionRisk != nil {
			assert.GreaterOrEqual(t, e.ConnectionRisk.ConnectionTime, 30)
			assert.Less(t, e.ConnectionRisk.ConnectionTime, 150)
		}
		if i > 0 {
			assert.LessOrEqual(t, entries[i-1].Tier.Rank(), e.Tier.Rank(), "sorted by tier")
		}
	}
	assert.Len(t, ids, 300)
}

func TestGenerateCountBounds(t *testing.T) {
	assert.Len(t, Generate(params("x", 0)), DefaultCount)
	assert.Len(t, Generate(params("x", MaxCount+1)), MaxCount)
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Passenger: domain.Passenger{Tier: domain.TierPlatinum, HasApp: true, ConsentForProactive: true}},
		{Passenger: domain.Passenger{Tier: domain.TierGeneral, SpecialRequirements: "Service animal",
			ConnectionRisk: &domain.ConnectionRisk{ConnectingFlight: "UA1234", ConnectionTime: 40}}},
		{Passenger: domain.Passenger{Tier: domain.TierGeneral, HasApp: true}},
	}
	s := Summarize(entries)
	assert.Equal(t, 3, s.TotalPassengers)
	assert.Equal(t, map[domain.Tier]int{
		domain.TierPlatinum: 1, domain.TierGold: 0, domain.TierSilver: 0, domain.TierGeneral: 2,
	}, s.TierBreakdown)
	assert.Equal(t, 1, s.ConnectionAtRisk)
	assert.Equal(t, 1, s.ProactiveEligible)
	assert.Equal(t, 2, s.AppUsers)
	assert.Equal(t, 1, s.SpecialRequirements)
}

func TestSummarizeLargeManifest(t *testing.T) {
	s := Summarize(Generate(params("DIS-large", 2000)))
	assert.Equal(t, 2000, s.TotalPassengers)
	// Weighted tiers: General dominates, Platinum is rare.
	assert.Greater(t, s.TierBreakdown[domain.TierGeneral], s.TierBreakdown[domain.TierPlatinum])
	assert.Greater(t, s.AppUsers, s.ProactiveEligible)
	assert.Positive(t, s.ConnectionAtRisk)
}

func TestFocusPassengers(t *testing.T) {
	focus := FocusPassengers(Generate(params("DIS-focus", 200)))
	require.Len(t, focus, 5)
	assert.Equal(t, domain.TierPlatinum, focus[0].Tier)
	assert.Equal(t, domain.TierPlatinum, focus[1].Tier)
	assert.Equal(t, domain.TierGold, focus[2].Tier)
	assert.Equal(t, domain.TierGeneral, focus[3].Tier)
	assert.Equal(t, domain.TierGeneral, focus[4].Tier)

	assert.Empty(t, FocusPassengers(nil))
}
