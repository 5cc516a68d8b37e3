// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/manifest"
	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/notify"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/ManuGH/rebookd/internal/translate"
)

// DefaultFlightNumber is assigned to passengers created without one.
const DefaultFlightNumber = "UA891"

// CreateDisruptionInput is the body of a disruption report.
type CreateDisruptionInput struct {
	Type           string            `json:"type"`
	Reason         string            `json:"reason"`
	Airport        string            `json:"airport"`
	Passenger      *domain.Passenger `json:"passenger"`
	PassengerCount int               `json:"passengerCount,omitempty"`
}

// CreateDisruptionResult is returned by CreateDisruption.
type CreateDisruptionResult struct {
	DisruptionID    string                   `json:"disruptionId"`
	SessionID       string                   `json:"sessionId"`
	Passenger       domain.Passenger         `json:"passenger"`
	Notification    domain.Notification      `json:"notification"`
	ManifestSummary domain.ManifestSummary   `json:"manifestSummary"`
	Options         []domain.RebookingOption `json:"options"`
	Message         string                   `json:"message"`
}

// sessionLink is stored in the disruption partition for each session.
type sessionLink struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateDisruption records a disruption and opens the session of the
// reporting passenger with generated options and a proactive notification.
func (s *Service) CreateDisruption(ctx context.Context, in CreateDisruptionInput) (CreateDisruptionResult, error) {
	if err := domain.RequireFields(
		domain.StringField("type", in.Type),
		domain.StringField("reason", in.Reason),
		domain.StringField("airport", in.Airport),
		domain.Field{Name: "passenger", Present: in.Passenger != nil},
	); err != nil {
		return CreateDisruptionResult{}, err
	}
	dtype := domain.DisruptionType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !dtype.Valid() {
		return CreateDisruptionResult{}, &domain.ValidationError{
			Fields:  []string{"type"},
			Message: fmt.Sprintf("Invalid disruption type: %s (expected CANCELLATION or DELAY)", in.Type),
		}
	}
	if in.PassengerCount < 0 {
		return CreateDisruptionResult{}, &domain.ValidationError{
			Fields:  []string{"passengerCount"},
			Message: "passengerCount must not be negative",
		}
	}

	now := s.now()
	d := domain.Disruption{
		ID:        newID("DIS"),
		Type:      dtype,
		Reason:    strings.TrimSpace(in.Reason),
		Airport:   strings.ToUpper(strings.TrimSpace(in.Airport)),
		CreatedAt: now,
	}
	sess := domain.Session{
		SessionID:    newID("SES"),
		DisruptionID: d.ID,
		Passenger:    s.withDefaults(*in.Passenger, d),
		Status:       domain.SessionActive,
		CreatedAt:    now,
	}
	ctx = xglog.ContextWithDisruptionID(xglog.ContextWithSessionID(ctx, sess.SessionID), d.ID)

	opts := s.options.Generate(sess.Passenger, d)
	note := notify.Build(sess.Passenger, d, len(opts), now)
	note = translate.Notification(ctx, s.translator, note, sess.Passenger.Language)

	count := in.PassengerCount
	if count == 0 {
		count = s.manifestSize
	}
	summary := manifest.Summarize(manifest.Generate(manifest.Params{
		Origin:       sess.Passenger.Origin,
		Destination:  sess.Passenger.Destination,
		FlightNumber: sess.Passenger.FlightNumber,
		Count:        count,
		Seed:         d.ID,
	}))

	dpk, spk := store.DisruptionPK(d.ID), store.SessionPK(sess.SessionID)
	writes := []struct {
		pk, sk string
		v      any
	}{
		{dpk, store.SKMeta, d},
		{spk, store.SKMeta, sess},
		{spk, store.SKOptions, domain.OptionSet{Options: opts, GeneratedAt: now}},
		{spk, store.SKNotification, note},
		{dpk, store.SessionLinkSK(sess.SessionID), sessionLink{SessionID: sess.SessionID, CreatedAt: now}},
	}
	for _, w := range writes {
		if err := store.PutJSON(ctx, s.store, w.pk, w.sk, w.v); err != nil {
			return CreateDisruptionResult{}, fmt.Errorf("create disruption: %w", err)
		}
	}

	metrics.IncDisruptionCreated(string(d.Type), string(sess.Passenger.Tier))
	metrics.ObserveOptionsGenerated(len(opts))
	xglog.LogMetric(ctx, "DisruptionCreated", 1, map[string]string{"type": string(d.Type)})
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str("event", "disruption.created").
		Str("tier", string(sess.Passenger.Tier)).
		Int("options", len(opts)).
		Int("manifest_passengers", summary.TotalPassengers).
		Msg("disruption session created")

	return CreateDisruptionResult{
		DisruptionID:    d.ID,
		SessionID:       sess.SessionID,
		Passenger:       sess.Passenger,
		Notification:    note,
		ManifestSummary: summary,
		Options:         opts,
		Message: fmt.Sprintf("Disruption %s created. Session %s initialized with %d rebooking options.",
			d.ID, sess.SessionID, len(opts)),
	}, nil
}

// withDefaults fills the fields a demo client commonly omits.
func (s *Service) withDefaults(p domain.Passenger, d domain.Disruption) domain.Passenger {
	if p.Tier == "" {
		p.Tier = s.defaultTier
	}
	if p.FlightNumber == "" {
		p.FlightNumber = DefaultFlightNumber
	}
	if p.Origin == "" {
		p.Origin = d.Airport
	}
	if p.Constraints == nil {
		p.Constraints = []string{}
	}
	if p.SeatClass == "" {
		p.SeatClass = manifest.SeatClass(p.Tier)
	}
	if p.Language == "" {
		p.Language = translate.SourceLanguage
	}
	return p
}

// SessionSummary is the nested view of a session in ListDisruptions.
type SessionSummary struct {
	SessionID string               `json:"sessionId"`
	Status    domain.SessionStatus `json:"status"`
	Passenger domain.Passenger     `json:"passenger"`
}

// DisruptionView is a disruption with its sessions.
type DisruptionView struct {
	domain.Disruption
	Sessions []SessionSummary `json:"sessions"`
}

// ListDisruptions returns every disruption, newest first, with its sessions.
func (s *Service) ListDisruptions(ctx context.Context) ([]DisruptionView, error) {
	items, err := s.store.ScanPrefix(ctx, store.PrefixDisruption)
	if err != nil {
		return nil, fmt.Errorf("scan disruptions: %w", err)
	}

	byID := make(map[string]*DisruptionView)
	var order []string
	view := func(pk string) *DisruptionView {
		id := store.IDFromPK(pk)
		v, ok := byID[id]
		if !ok {
			v = &DisruptionView{Disruption: domain.Disruption{ID: id}, Sessions: []SessionSummary{}}
			byID[id] = v
			order = append(order, id)
		}
		return v
	}

	for _, it := range items {
		v := view(it.PK)
		switch {
		case it.SK == store.SKMeta:
			if err := it.Decode(&v.Disruption); err != nil {
				return nil, err
			}
		case strings.HasPrefix(it.SK, store.PrefixSession):
			var link sessionLink
			if err := it.Decode(&link); err != nil {
				return nil, err
			}
			sess, err := s.loadSession(ctx, link.SessionID)
			if err != nil {
				if domain.IsNotFound(err) {
					continue
				}
				return nil, err
			}
			v.Sessions = append(v.Sessions, SessionSummary{
				SessionID: sess.SessionID,
				Status:    sess.Status,
				Passenger: sess.Passenger,
			})
		}
	}

	out := make([]DisruptionView, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
