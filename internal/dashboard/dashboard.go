// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dashboard rolls persisted session state up into operator counts.
// It reads the store only and never writes.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/store"
)

// DefaultRange is used when the caller does not choose a window.
const DefaultRange = "24h"

// StatusFailed marks a booking that did not go through.
const StatusFailed = "FAILED"

const unknownKey = "Unknown"

var ranges = map[string]time.Duration{
	"1h":  time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// ParseRange maps a timeRange parameter to its window. Empty selects
// DefaultRange.
func ParseRange(s string) (string, time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultRange
	}
	d, ok := ranges[s]
	if !ok {
		return "", 0, &domain.ValidationError{
			Fields:  []string{"timeRange"},
			Message: fmt.Sprintf("Invalid timeRange %q: expected one of 1h, 24h, 7d, 30d", s),
		}
	}
	return s, d, nil
}

// EscalationStats groups escalations that happened inside the window.
type EscalationStats struct {
	Total      int            `json:"total"`
	ByTier     map[string]int `json:"byTier"`
	ByReason   map[string]int `json:"byReason"`
	ByPriority map[string]int `json:"byPriority"`
}

// BookingStats groups bookings made inside the window.
type BookingStats struct {
	Total    int            `json:"total"`
	ByTier   map[string]int `json:"byTier"`
	ByStatus map[string]int `json:"byStatus"`
	Failed   int            `json:"failed"`
}

// Totals are the headline counts.
type Totals struct {
	Sessions    int `json:"sessions"`
	Escalations int `json:"escalations"`
	Bookings    int `json:"bookings"`
}

// Report is the dashboard payload.
type Report struct {
	TimeRange   string          `json:"timeRange"`
	Since       time.Time       `json:"since"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Totals      Totals          `json:"totals"`
	Escalations EscalationStats `json:"escalations"`
	Bookings    BookingStats    `json:"bookings"`
	// FailureRate is failed bookings over all bookings, 0 when there are none.
	FailureRate float64 `json:"failureRate"`
}

// Aggregator builds reports from the session partitions of a store.
type Aggregator struct {
	store store.Store
	now   func() time.Time
}

// New returns an aggregator. A nil now uses the wall clock.
func New(s store.Store, now func() time.Time) *Aggregator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregator{store: s, now: now}
}

// Build aggregates everything recorded in the timeRange window ending now.
func (a *Aggregator) Build(ctx context.Context, timeRange string) (Report, error) {
	name, window, err := ParseRange(timeRange)
	if err != nil {
		return Report{}, err
	}

	now := a.now()
	since := now.Add(-window)
	rep := newReport(name, since, now)

	items, err := a.store.ScanPrefix(ctx, store.PrefixSession)
	if err != nil {
		return Report{}, fmt.Errorf("scan sessions: %w", err)
	}

	logger := xglog.WithComponentFromContext(ctx, "dashboard")
	skipped := 0
	for _, item := range items {
		if err := rep.add(item, since, now); err != nil {
			skipped++
			logger.Warn().Err(err).Str("pk", item.PK).Str("sk", item.SK).Msg("skipping undecodable item")
		}
	}

	if rep.Bookings.Total > 0 {
		rep.FailureRate = float64(rep.Bookings.Failed) / float64(rep.Bookings.Total)
	}
	rep.Totals.Escalations = rep.Escalations.Total
	rep.Totals.Bookings = rep.Bookings.Total

	logger.Debug().
		Str("event", "dashboard.built").
		Str("time_range", name).
		Int("items", len(items)).
		Int("skipped", skipped).
		Msg("dashboard aggregated")
	return rep, nil
}

func newReport(name string, since, now time.Time) Report {
	return Report{
		TimeRange:   name,
		Since:       since,
		GeneratedAt: now,
		Escalations: EscalationStats{
			ByTier:     map[string]int{},
			ByReason:   map[string]int{},
			ByPriority: map[string]int{},
		},
		Bookings: BookingStats{
			ByTier:   map[string]int{},
			ByStatus: map[string]int{},
		},
	}
}

func inWindow(t, since, now time.Time) bool {
	return !t.IsZero() && !t.Before(since) && !t.After(now)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknownKey
	}
	return s
}

func (r *Report) add(item store.Item, since, now time.Time) error {
	switch item.SK {
	case store.SKMeta:
		var s domain.Session
		if err := item.Decode(&s); err != nil {
			return err
		}
		if inWindow(s.CreatedAt, since, now) {
			r.Totals.Sessions++
		}

	case store.SKEscalation:
		var p domain.EscalationPacket
		if err := item.Decode(&p); err != nil {
			return err
		}
		if !inWindow(p.EscalatedAt, since, now) {
			return nil
		}
		r.Escalations.Total++
		r.Escalations.ByTier[orUnknown(string(p.PassengerSummary.Tier))]++
		r.Escalations.ByReason[orUnknown(p.Reason)]++
		r.Escalations.ByPriority[orUnknown(string(p.Priority))]++

	case store.SKBooking:
		var b domain.Booking
		if err := item.Decode(&b); err != nil {
			return err
		}
		if !inWindow(b.BookedAt, since, now) {
			return nil
		}
		r.Bookings.Total++
		r.Bookings.ByTier[orUnknown(string(b.ItinerarySummary.Tier))]++
		r.Bookings.ByStatus[orUnknown(b.Status)]++
		if b.Status == StatusFailed {
			r.Bookings.Failed++
		}
	}
	return nil
}
