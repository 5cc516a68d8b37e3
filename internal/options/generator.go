// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package options builds the ranked rebooking itineraries offered to a
// disrupted passenger. Generation is a pure function of the passenger; only
// the mock flight numbers vary between runs.
package options

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ManuGH/rebookd/internal/domain"
)

// TightConnectionMinutes is the connection time below which itineraries
// with stops are unsafe.
const TightConnectionMinutes = 45

// arrivalCutoffHour is the bound behind domain.ConstraintArriveBefore2100.
const arrivalCutoffHour = 21

// template is a catalog entry before origin and destination are filled in.
type template struct {
	id        string
	depart    string
	arrive    string
	via       string
	routing   string // overrides the computed routing when set
	stops     int
	class     string
	costDelta int
	rationale string
	notes     string
	score     float64
	perks     []string
}

var baseCatalog = []template{
	{id: "A", depart: "14:30", arrive: "17:45", class: "Economy", score: 0.95,
		rationale: "Next available direct flight with the earliest arrival", notes: "Next available direct flight"},
	{id: "B", depart: "17:30", arrive: "20:00", class: "Economy", score: 0.90,
		rationale: "Evening direct flight, arrives before 21:00", notes: "Evening direct, upgrade possible"},
	{id: "C", depart: "15:15", arrive: "20:30", via: "DEN", stops: 1, class: "Economy", costDelta: -50, score: 0.85,
		rationale: "One stop via Denver with a fare credit", notes: "One stop via Denver, extra legroom available"},
	{id: "D", depart: "16:00", arrive: "22:15", via: "DFW", stops: 1, class: "Economy", costDelta: -75, score: 0.75,
		rationale: "One stop via Dallas with the largest fare credit", notes: "One stop via Dallas, meal service"},
}

var premiumCatalog = []template{
	{
		id:        "E",
		depart:    "09:00",
		arrive:    "12:15",
		routing:   "%s→%s (direct, next day)",
		class:     "Business",
		score:     0.80,
		rationale: "Early direct flight next morning in Business with an overnight stay covered",
		notes:     "Next morning direct, hotel voucher included",
		perks:     []string{"Hotel voucher", "Meal voucher", "Lounge access"},
	},
	{
		id:        "F",
		depart:    "13:00",
		arrive:    "19:30",
		routing:   "%s→rail→PHX→%s (mock partner connection)",
		stops:     1,
		class:     "Premium",
		score:     0.70,
		rationale: "Alternate-mode itinerary: rail to a partner hub, then partner airline",
		notes:     "Mock rail and air partner itinerary",
		perks:     []string{"Priority boarding", "Partner lounge access"},
	},
}

// Generator produces rebooking options.
type Generator struct {
	// FlightNumber returns the mock flight number for an option.
	FlightNumber func(optionID string) string
}

// New returns a generator with random mock flight numbers.
func New() *Generator {
	return &Generator{FlightNumber: randomFlightNumber}
}

func randomFlightNumber(string) string {
	return fmt.Sprintf("RB%d", 1000+rand.IntN(9000)) // #nosec G404 -- mock data
}

// Generate returns the ranked options for passenger.
func (g *Generator) Generate(p domain.Passenger, _ domain.Disruption) []domain.RebookingOption {
	catalog := append([]template(nil), baseCatalog...)
	if p.Tier.Premium() {
		catalog = append(catalog, premiumCatalog...)
	}

	candidates := make([]domain.RebookingOption, 0, len(catalog))
	for _, t := range catalog {
		candidates = append(candidates, g.build(t, p))
	}

	if p.ConnectionRisk != nil && p.ConnectionRisk.ConnectionTime < TightConnectionMinutes {
		candidates = keep(candidates, func(o domain.RebookingOption) bool { return o.Stops == 0 })
	}

	if p.HasConstraint(domain.ConstraintArriveBefore2100) {
		candidates, _ = filterFailOpen(candidates, arrivesBefore(arrivalCutoffHour))
	}

	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

func (g *Generator) build(t template, p domain.Passenger) domain.RebookingOption {
	var routing string
	switch {
	case t.routing != "":
		routing = fmt.Sprintf(t.routing, p.Origin, p.Destination)
	case t.via != "":
		routing = fmt.Sprintf("%s→%s→%s", p.Origin, t.via, p.Destination)
	default:
		routing = fmt.Sprintf("%s→%s (direct)", p.Origin, p.Destination)
	}

	flight := ""
	if g.FlightNumber != nil {
		flight = g.FlightNumber(t.id)
	}

	return domain.RebookingOption{
		OptionID:           t.id,
		FlightNumber:       flight,
		Depart:             t.depart,
		Arrive:             t.arrive,
		Routing:            routing,
		Stops:              t.stops,
		Class:              t.class,
		CostDelta:          t.costDelta,
		Rationale:          t.rationale,
		Notes:              t.notes,
		CompatibilityScore: t.score,
		PremiumPerks:       append([]string{}, t.perks...),
	}
}

// filterFailOpen applies pred and returns the filtered list, unless that
// would leave nothing, in which case the input is returned unchanged. The
// boolean reports whether the filter was applied.
func filterFailOpen(in []domain.RebookingOption, pred func(domain.RebookingOption) bool) ([]domain.RebookingOption, bool) {
	out := keep(in, pred)
	if len(out) == 0 {
		return in, false
	}
	return out, true
}

func keep(in []domain.RebookingOption, pred func(domain.RebookingOption) bool) []domain.RebookingOption {
	out := make([]domain.RebookingOption, 0, len(in))
	for _, o := range in {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}

func arrivesBefore(hour int) func(domain.RebookingOption) bool {
	return func(o domain.RebookingOption) bool {
		h, ok := ArrivalHour(o.Arrive)
		return ok && h < hour
	}
}

// ArrivalHour parses the hour of an "HH:MM" time.
func ArrivalHour(hhmm string) (int, bool) {
	head, _, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
