// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/ManuGH/rebookd/internal/escalation"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/store"
)

// TriggerManual labels escalations requested through Escalate.
const TriggerManual = "manual"

// EscalateResult is returned by Escalate.
type EscalateResult struct {
	SessionID string                  `json:"sessionId"`
	Escalated bool                    `json:"escalated"`
	Packet    domain.EscalationPacket `json:"packet"`
}

// Escalate snapshots the session into a handoff packet, stores it and hands
// it to the publisher. Publishing is best effort.
func (s *Service) Escalate(ctx context.Context, sessionID, reason string) (EscalateResult, error) {
	if err := domain.RequireFields(domain.StringField("sessionId", sessionID)); err != nil {
		return EscalateResult{}, err
	}
	ctx = xglog.ContextWithSessionID(ctx, sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return EscalateResult{}, err
	}
	ctx = xglog.ContextWithDisruptionID(ctx, sess.DisruptionID)
	pk := store.SessionPK(sessionID)

	d := domain.Disruption{ID: sess.DisruptionID}
	if _, err := s.getOptional(ctx, store.DisruptionPK(sess.DisruptionID), store.SKMeta, &d); err != nil {
		return EscalateResult{}, err
	}
	set, err := s.loadOptions(ctx, sessionID)
	if err != nil {
		return EscalateResult{}, err
	}

	var (
		sel     domain.Selection
		booking domain.Booking
	)
	hasSel, err := s.getOptional(ctx, pk, store.SKSelection, &sel)
	if err != nil {
		return EscalateResult{}, err
	}
	hasBooking, err := s.getOptional(ctx, pk, store.SKBooking, &booking)
	if err != nil {
		return EscalateResult{}, err
	}
	turns, err := s.loadTurns(ctx, sessionID)
	if err != nil {
		return EscalateResult{}, err
	}

	in := escalation.Input{
		SessionID:   sessionID,
		Reason:      reason,
		Passenger:   sess.Passenger,
		Disruption:  d,
		Options:     set.Options,
		Transcript:  turns,
		EscalatedAt: s.now(),
	}
	if hasSel {
		in.Selection = &sel
	}
	if hasBooking {
		in.Booking = &booking
	}
	packet := escalation.Build(in)

	if err := store.PutJSON(ctx, s.store, pk, store.SKEscalation, packet); err != nil {
		return EscalateResult{}, fmt.Errorf("save escalation: %w", err)
	}

	metrics.IncEscalation(string(packet.Priority), TriggerManual)
	xglog.LogMetric(ctx, "Escalation", 1, map[string]string{"priority": string(packet.Priority)})
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str("event", "escalation.created").
		Str("priority", string(packet.Priority)).
		Str("reason", packet.Reason).
		Int("transcript_turns", len(packet.Transcript)).
		Msg("session escalated to agent")

	if err := s.publisher.Publish(ctx, packet); err != nil {
		logger.Warn().
			Err(err).
			Str("event", "escalation.publish_failed").
			Msg("handoff delivery failed, packet remains stored")
	}

	return EscalateResult{SessionID: sessionID, Escalated: true, Packet: packet}, nil
}
