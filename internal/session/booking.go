// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/store"
)

const (
	// BookingStatusConfirmed marks a mock booking.
	BookingStatusConfirmed = "CONFIRMED (MOCK)"
	// BookingStatusFailed marks a mock booking that could not be ticketed.
	BookingStatusFailed = "FAILED"

	errNoSelection = "No option selected yet. Please select an option first."
	offlineNote    = "This is a simulated booking for demonstration. No ticket has been issued and no payment was taken. Keep this PNR for reference if you lose connectivity."
)

// SelectResult is returned by SelectOption.
type SelectResult struct {
	SessionID string                 `json:"sessionId"`
	Selected  domain.RebookingOption `json:"selected"`
}

// SelectOption records optionID as the session's current selection,
// replacing any earlier one.
func (s *Service) SelectOption(ctx context.Context, sessionID, optionID string) (SelectResult, error) {
	if err := domain.RequireFields(
		domain.StringField("sessionId", sessionID),
		domain.StringField("optionId", optionID),
	); err != nil {
		return SelectResult{}, err
	}
	ctx = xglog.ContextWithSessionID(ctx, sessionID)

	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return SelectResult{}, err
	}
	set, err := s.loadOptions(ctx, sessionID)
	if err != nil {
		return SelectResult{}, err
	}
	opt, ok := set.Find(optionID)
	if !ok {
		return SelectResult{}, &domain.NotFoundError{Kind: "Option", ID: optionID}
	}

	sel := domain.Selection{OptionID: optionID, Selected: opt, SelectedAt: s.now()}
	if err := store.PutJSON(ctx, s.store, store.SessionPK(sessionID), store.SKSelection, sel); err != nil {
		return SelectResult{}, fmt.Errorf("save selection: %w", err)
	}

	xglog.LogMetric(ctx, "OptionSelected", 1, map[string]string{"optionId": optionID})
	return SelectResult{SessionID: sessionID, Selected: opt}, nil
}

// ConfirmResult is returned by Confirm.
type ConfirmResult struct {
	SessionID string         `json:"sessionId"`
	Booking   domain.Booking `json:"booking"`
}

// Confirm turns the current selection into a mock booking.
func (s *Service) Confirm(ctx context.Context, sessionID string) (ConfirmResult, error) {
	if err := domain.RequireFields(domain.StringField("sessionId", sessionID)); err != nil {
		return ConfirmResult{}, err
	}
	ctx = xglog.ContextWithSessionID(ctx, sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return ConfirmResult{}, err
	}
	var sel domain.Selection
	found, err := s.getOptional(ctx, store.SessionPK(sessionID), store.SKSelection, &sel)
	if err != nil {
		return ConfirmResult{}, err
	}
	if !found {
		return ConfirmResult{}, &domain.PreconditionError{Message: errNoSelection}
	}

	booking := NewBooking(sess.Passenger, sel.Selected, s.now())
	if err := store.PutJSON(ctx, s.store, store.SessionPK(sessionID), store.SKBooking, booking); err != nil {
		return ConfirmResult{}, fmt.Errorf("save booking: %w", err)
	}

	metrics.IncBooking(string(sess.Passenger.Tier))
	xglog.LogMetric(ctx, "BookingConfirmed", 1, map[string]string{"pnr": booking.PNR})
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str("event", "booking.confirmed").
		Str("pnr", booking.PNR).
		Str("option", sel.OptionID).
		Msg("mock booking confirmed")

	return ConfirmResult{SessionID: sessionID, Booking: booking}, nil
}

// NewBooking builds a confirmed mock booking for opt.
func NewBooking(p domain.Passenger, opt domain.RebookingOption, at time.Time) domain.Booking {
	perks := append([]string(nil), opt.PremiumPerks...)
	return domain.Booking{
		PNR:      NewPNR(),
		Status:   BookingStatusConfirmed,
		BookedAt: at,
		Selected: opt,
		ItinerarySummary: domain.ItinerarySummary{
			Passenger: p.FullName(),
			Tier:      p.Tier,
			Departure: opt.Depart,
			Arrival:   opt.Arrive,
			Routing:   opt.Routing,
			Class:     opt.Class,
			Flights:   []string{opt.FlightNumber},
			Perks:     perks,
		},
		OfflineNote: offlineNote,
	}
}

// NewPNR returns a mock confirmation code PNR-DEMO-NNNNN.
func NewPNR() string {
	return fmt.Sprintf("PNR-DEMO-%d", 10000+rand.IntN(90000)) // #nosec G404 -- mock data
}
