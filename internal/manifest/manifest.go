// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package manifest generates the synthetic passenger population affected by
// a disruption. Output is deterministic for a given seed. All data is
// synthetic.
package manifest

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"

	"github.com/ManuGH/rebookd/internal/domain"
)

// DefaultCount is the manifest size when none is requested.
const DefaultCount = 200

// MaxCount bounds generation for a single disruption.
const MaxCount = 5000

var firstNames = []string{
	"Alice", "Bob", "Carlos", "Diana", "Erik", "Fatima", "George", "Hannah",
	"Ivan", "Julia", "Kenji", "Lina", "Marcus", "Nadia", "Omar", "Priya",
	"Quinn", "Rosa", "Stefan", "Tanya", "Umar", "Vera", "Wei", "Xena", "Yuki", "Zara",
}

var lastNames = []string{
	"Anderson", "Bauer", "Chen", "Diaz", "Evans", "Fischer", "Garcia", "Hoffman",
	"Ibrahim", "Jensen", "Kim", "Lee", "Martinez", "Nguyen", "Olsson", "Patel",
	"Quinn", "Rivera", "Singh", "Torres", "Ueda", "Voss", "Wang", "Xu", "Yamamoto", "Zhao",
}

var tierWeights = []float64{0.08, 0.15, 0.22, 0.55}

// Empty entries mean no requirement; most passengers have none.
var specialRequirements = []string{
	"", "", "", "", "",
	"Wheelchair assistance",
	"Unaccompanied minor",
	"Service animal",
	"Medical oxygen",
	"Bassinet seat",
}

const (
	appShare        = 0.65
	consentShare    = 0.85
	connectionShare = 0.20
)

// Entry is one passenger on the manifest.
type Entry struct {
	PassengerID string `json:"passengerId"`
	domain.Passenger
}

// Params describe the flight the manifest is generated for.
type Params struct {
	Origin       string
	Destination  string
	FlightNumber string
	Count        int
	// Seed makes the manifest reproducible, typically the disruption id.
	Seed string
}

// Generate builds the manifest sorted by tier, Platinum first.
func Generate(p Params) []Entry {
	count := p.Count
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}

	rng := rand.New(rand.NewPCG(seed(p.Seed), 0x9e3779b97f4a7c15))
	out := make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		tier := pickTier(rng)
		hasApp := rng.Float64() < appShare
		consent := hasApp && rng.Float64() < consentShare

		var risk *domain.ConnectionRisk
		if rng.Float64() < connectionShare {
			risk = &domain.ConnectionRisk{
				ConnectingFlight: fmt.Sprintf("UA%d", 1000+rng.IntN(9000)),
				ConnectionTime:   30 + rng.IntN(120),
			}
		}

		out = append(out, Entry{
			PassengerID: fmt.Sprintf("PAX-%04d", i+1),
			Passenger: domain.Passenger{
				FirstName:           firstNames[rng.IntN(len(firstNames))],
				LastName:            lastNames[rng.IntN(len(lastNames))],
				Tier:                tier,
				Origin:              p.Origin,
				Destination:         p.Destination,
				FlightNumber:        p.FlightNumber,
				Constraints:         []string{},
				ConnectionRisk:      risk,
				SpecialRequirements: specialRequirements[rng.IntN(len(specialRequirements))],
				ConsentForProactive: consent,
				HasApp:              hasApp,
				SeatClass:           SeatClass(tier),
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier.Rank() < out[j].Tier.Rank()
	})
	return out
}

func seed(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func pickTier(rng *rand.Rand) domain.Tier {
	r := rng.Float64()
	var cumulative float64
	for i, w := range tierWeights {
		cumulative += w
		if r <= cumulative {
			return domain.Tiers[i]
		}
	}
	return domain.TierGeneral
}

// SeatClass is the cabin a tier travels in on the synthetic manifest.
func SeatClass(t domain.Tier) string {
	switch t {
	case domain.TierPlatinum:
		return "Business"
	case domain.TierGold:
		return "Premium Economy"
	default:
		return "Economy"
	}
}

// Summarize aggregates a manifest.
func Summarize(entries []Entry) domain.ManifestSummary {
	s := domain.ManifestSummary{
		TotalPassengers: len(entries),
		TierBreakdown:   make(map[domain.Tier]int, len(domain.Tiers)),
	}
	for _, t := range domain.Tiers {
		s.TierBreakdown[t] = 0
	}
	for _, e := range entries {
		s.TierBreakdown[e.Tier]++
		if e.ConnectionRisk != nil {
			s.ConnectionAtRisk++
		}
		if e.ConsentForProactive {
			s.ProactiveEligible++
		}
		if e.HasApp {
			s.AppUsers++
		}
		if e.SpecialRequirements != "" {
			s.SpecialRequirements++
		}
	}
	return s
}

// FocusPassengers picks the demo focus set: the first two Platinum, one Gold
// and two General passengers.
func FocusPassengers(entries []Entry) []Entry {
	quota := map[domain.Tier]int{
		domain.TierPlatinum: 2,
		domain.TierGold:     1,
		domain.TierGeneral:  2,
	}
	var out []Entry
	for _, tier := range []domain.Tier{domain.TierPlatinum, domain.TierGold, domain.TierGeneral} {
		for _, e := range entries {
			if quota[tier] == 0 {
				break
			}
			if e.Tier == tier {
				out = append(out, e)
				quota[tier]--
			}
		}
	}
	return out
}
