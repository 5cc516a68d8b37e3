// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/store"
)

type sampleEscalation struct {
	name     string
	tier     domain.Tier
	reason   string
	priority domain.Priority
}

type sampleBooking struct {
	tier   domain.Tier
	status string
}

type sampleSession struct {
	id         string
	disruption string
	age        time.Duration
	escalation *sampleEscalation
	booking    *sampleBooking
}

const (
	reasonAgent      = "Customer requested agent assistance"
	reasonSentiment  = "Sentiment auto-escalation (negative)"
	reasonWheelchair = "Wheelchair assistance needed"
	reasonComp       = "Compensation inquiry"

	statusConfirmed = "CONFIRMED"
)

const day = 24 * time.Hour

// samples is spread so that every dashboard range sees a different mix.
var samples = []sampleSession{
	// last hour
	{id: "SES-000A", disruption: "DIS-001", age: 15 * time.Minute,
		escalation: &sampleEscalation{"Jennifer Davis", domain.TierGold, reasonAgent, domain.PriorityMedium},
		booking:    &sampleBooking{domain.TierGold, statusConfirmed}},
	{id: "SES-000B", disruption: "DIS-001", age: 30 * time.Minute,
		booking: &sampleBooking{domain.TierPlatinum, statusConfirmed}},
	{id: "SES-000C", disruption: "DIS-001", age: 45 * time.Minute,
		escalation: &sampleEscalation{"Robert Taylor", domain.TierSilver, reasonSentiment, domain.PriorityNormal}},

	// last 24 hours
	{id: "SES-001", disruption: "DIS-001", age: 2 * time.Hour,
		escalation: &sampleEscalation{"John Smith", domain.TierPlatinum, reasonAgent, domain.PriorityHigh},
		booking:    &sampleBooking{domain.TierPlatinum, statusConfirmed}},
	{id: "SES-002", disruption: "DIS-001", age: 5 * time.Hour,
		escalation: &sampleEscalation{"Sarah Johnson", domain.TierGold, reasonSentiment, domain.PriorityMedium},
		booking:    &sampleBooking{domain.TierGold, StatusFailed}},
	{id: "SES-003", disruption: "DIS-001", age: 8 * time.Hour,
		booking: &sampleBooking{domain.TierSilver, statusConfirmed}},
	{id: "SES-004", disruption: "DIS-001", age: 12 * time.Hour,
		escalation: &sampleEscalation{"Mike Chen", domain.TierPlatinum, reasonWheelchair, domain.PriorityHigh},
		booking:    &sampleBooking{domain.TierPlatinum, StatusFailed}},
	{id: "SES-005", disruption: "DIS-001", age: 18 * time.Hour,
		booking: &sampleBooking{domain.TierGeneral, statusConfirmed}},

	// last 7 days
	{id: "SES-006", disruption: "DIS-002", age: 2 * day,
		escalation: &sampleEscalation{"Emma Wilson", domain.TierGold, reasonComp, domain.PriorityMedium},
		booking:    &sampleBooking{domain.TierGold, statusConfirmed}},
	{id: "SES-007", disruption: "DIS-002", age: 3 * day,
		booking: &sampleBooking{domain.TierSilver, statusConfirmed}},
	{id: "SES-008", disruption: "DIS-002", age: 4 * day,
		escalation: &sampleEscalation{"Alex Rodriguez", domain.TierGeneral, reasonAgent, domain.PriorityNormal},
		booking:    &sampleBooking{domain.TierGeneral, StatusFailed}},
	{id: "SES-009", disruption: "DIS-002", age: 6 * day,
		escalation: &sampleEscalation{"Maria Garcia", domain.TierSilver, reasonSentiment, domain.PriorityNormal}},

	// last 30 days
	{id: "SES-010", disruption: "DIS-003", age: 10 * day,
		escalation: &sampleEscalation{"James Lee", domain.TierPlatinum, reasonComp, domain.PriorityHigh},
		booking:    &sampleBooking{domain.TierPlatinum, statusConfirmed}},
	{id: "SES-011", disruption: "DIS-004", age: 15 * day,
		escalation: &sampleEscalation{"Lisa Brown", domain.TierGold, reasonWheelchair, domain.PriorityMedium},
		booking:    &sampleBooking{domain.TierGold, statusConfirmed}},
	{id: "SES-012", disruption: "DIS-004", age: 20 * day,
		escalation: &sampleEscalation{"David Kim", domain.TierGeneral, reasonAgent, domain.PriorityNormal},
		booking:    &sampleBooking{domain.TierGeneral, StatusFailed}},
	{id: "SES-013", disruption: "DIS-005", age: 25 * day,
		escalation: &sampleEscalation{"Rachel White", domain.TierPlatinum, reasonSentiment, domain.PriorityHigh},
		booking:    &sampleBooking{domain.TierPlatinum, statusConfirmed}},
	{id: "SES-014", disruption: "DIS-006", age: 29 * day,
		escalation: &sampleEscalation{"Tom Anderson", domain.TierSilver, reasonComp, domain.PriorityNormal},
		booking:    &sampleBooking{domain.TierSilver, StatusFailed}},
}

var sampleDisruptions = []domain.Disruption{
	{ID: "DIS-001", Type: domain.DisruptionCancellation, Reason: "mechanical", Airport: "ORD"},
	{ID: "DIS-002", Type: domain.DisruptionDelay, Reason: "weather", Airport: "SFO"},
	{ID: "DIS-003", Type: domain.DisruptionCancellation, Reason: "crew availability", Airport: "DEN"},
	{ID: "DIS-004", Type: domain.DisruptionDelay, Reason: "air traffic control", Airport: "EWR"},
	{ID: "DIS-005", Type: domain.DisruptionCancellation, Reason: "weather", Airport: "IAH"},
	{ID: "DIS-006", Type: domain.DisruptionDelay, Reason: "mechanical", Airport: "LAX"},
}

// SeedResult counts what SeedSample wrote.
type SeedResult struct {
	Disruptions int `json:"disruptions"`
	Sessions    int `json:"sessions"`
	Escalations int `json:"escalations"`
	Bookings    int `json:"bookings"`
}

// SeedSample writes demo sessions with escalations and bookings spread over
// the last 30 days relative to now. Existing sample items are overwritten.
func SeedSample(ctx context.Context, s store.Store, now time.Time) (SeedResult, error) {
	var res SeedResult
	now = now.UTC()

	for _, d := range sampleDisruptions {
		d.CreatedAt = now.Add(-4 * time.Minute)
		if err := store.PutJSON(ctx, s, store.DisruptionPK(d.ID), store.SKMeta, d); err != nil {
			return res, fmt.Errorf("seed disruption %s: %w", d.ID, err)
		}
		res.Disruptions++
	}

	for _, smp := range samples {
		at := now.Add(-smp.age)
		pk := store.SessionPK(smp.id)

		meta := domain.Session{
			SessionID:    smp.id,
			DisruptionID: smp.disruption,
			Status:       domain.SessionCompleted,
			CreatedAt:    at,
		}
		if err := store.PutJSON(ctx, s, pk, store.SKMeta, meta); err != nil {
			return res, fmt.Errorf("seed session %s: %w", smp.id, err)
		}
		if err := store.PutJSON(ctx, s, store.DisruptionPK(smp.disruption), store.SessionLinkSK(smp.id), meta); err != nil {
			return res, fmt.Errorf("seed session link %s: %w", smp.id, err)
		}
		res.Sessions++

		if e := smp.escalation; e != nil {
			packet := domain.EscalationPacket{
				SessionID:        smp.id,
				Reason:           e.reason,
				Priority:         e.priority,
				EscalatedAt:      at,
				PassengerSummary: domain.PassengerSummary{Name: e.name, Tier: e.tier},
			}
			if err := store.PutJSON(ctx, s, pk, store.SKEscalation, packet); err != nil {
				return res, fmt.Errorf("seed escalation %s: %w", smp.id, err)
			}
			res.Escalations++
		}

		if b := smp.booking; b != nil {
			booking := domain.Booking{
				PNR:              "PNR" + smp.id[len("SES-"):],
				Status:           b.status,
				BookedAt:         at,
				ItinerarySummary: domain.ItinerarySummary{Tier: b.tier},
			}
			if err := store.PutJSON(ctx, s, pk, store.SKBooking, booking); err != nil {
				return res, fmt.Errorf("seed booking %s: %w", smp.id, err)
			}
			res.Bookings++
		}
	}

	logger := xglog.WithComponentFromContext(ctx, "dashboard")
	logger.Info().
		Str("event", "dashboard.seeded").
		Int("sessions", res.Sessions).
		Int("escalations", res.Escalations).
		Int("bookings", res.Bookings).
		Msg("sample data written")
	return res, nil
}
