// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session orchestrates a passenger's disruption conversation:
// creating the disruption and session, chat turns, option selection, mock
// booking and escalation to a human agent. Every operation is a single pass
// over the store and holds no lock across I/O.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/ManuGH/rebookd/internal/handoff"
	"github.com/ManuGH/rebookd/internal/manifest"
	"github.com/ManuGH/rebookd/internal/options"
	"github.com/ManuGH/rebookd/internal/pii"
	"github.com/ManuGH/rebookd/internal/router"
	"github.com/ManuGH/rebookd/internal/sentiment"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/ManuGH/rebookd/internal/translate"
	"github.com/google/uuid"
)

// OptionGenerator produces the rebooking options for a passenger.
type OptionGenerator interface {
	Generate(p domain.Passenger, d domain.Disruption) []domain.RebookingOption
}

// Responder answers a chat message. *router.Router satisfies it.
type Responder interface {
	Route(ctx context.Context, req router.Request) router.Response
}

// Deps are the collaborators of a Service. Only Store is required.
type Deps struct {
	Store      store.Store
	Options    OptionGenerator
	Sentiment  sentiment.Classifier
	PII        pii.Detector
	Router     Responder
	Translator translate.Translator
	Publisher  handoff.Publisher

	// DefaultTier applies to passengers created without a tier.
	DefaultTier domain.Tier
	// ManifestSize is used when a request does not set passengerCount.
	ManifestSize int
	// Now is the clock; defaults to time.Now in UTC.
	Now func() time.Time
}

// Service implements the session operations.
type Service struct {
	store      store.Store
	options    OptionGenerator
	sentiment  sentiment.Classifier
	pii        pii.Detector
	router     Responder
	translator translate.Translator
	publisher  handoff.Publisher

	defaultTier  domain.Tier
	manifestSize int
	now          func() time.Time
}

// New fills unset collaborators with their local implementations.
func New(d Deps) *Service {
	s := &Service{
		store:        d.Store,
		options:      d.Options,
		sentiment:    d.Sentiment,
		pii:          d.PII,
		router:       d.Router,
		translator:   d.Translator,
		publisher:    d.Publisher,
		defaultTier:  d.DefaultTier,
		manifestSize: d.ManifestSize,
		now:          d.Now,
	}
	if s.options == nil {
		s.options = options.New()
	}
	if s.sentiment == nil {
		s.sentiment = sentiment.NewFallback(nil)
	}
	if s.pii == nil {
		s.pii = pii.NewFallback(nil)
	}
	if s.router == nil {
		s.router = router.New(nil, nil)
	}
	if s.translator == nil {
		s.translator = translate.Passthrough{}
	}
	if s.publisher == nil {
		s.publisher = handoff.Nop{}
	}
	if s.defaultTier == "" {
		s.defaultTier = domain.TierPlatinum
	}
	if s.manifestSize <= 0 {
		s.manifestSize = manifest.DefaultCount
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// newID returns prefix-XXXXXXXX from the first group of a random UUID.
func newID(prefix string) string {
	head, _, _ := strings.Cut(uuid.NewString(), "-")
	return prefix + "-" + strings.ToUpper(head)
}

// loadSession returns the session META or a NotFoundError.
func (s *Service) loadSession(ctx context.Context, sessionID string) (domain.Session, error) {
	var sess domain.Session
	err := store.GetJSON(ctx, s.store, store.SessionPK(sessionID), store.SKMeta, &sess)
	if errors.Is(err, store.ErrNotFound) {
		return sess, &domain.NotFoundError{Kind: "Session", ID: sessionID}
	}
	if err != nil {
		return sess, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return sess, nil
}

// getOptional decodes pk/sk into v and reports whether it existed.
func (s *Service) getOptional(ctx context.Context, pk, sk string, v any) (bool, error) {
	err := store.GetJSON(ctx, s.store, pk, sk, v)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s/%s: %w", pk, sk, err)
	}
	return true, nil
}

func (s *Service) loadOptions(ctx context.Context, sessionID string) (domain.OptionSet, error) {
	var set domain.OptionSet
	if _, err := s.getOptional(ctx, store.SessionPK(sessionID), store.SKOptions, &set); err != nil {
		return set, err
	}
	return set, nil
}

func (s *Service) loadTurns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	items, err := s.store.Query(ctx, store.SessionPK(sessionID), store.PrefixTurn)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	turns := make([]domain.Turn, 0, len(items))
	for _, it := range items {
		var t domain.Turn
		if err := it.Decode(&t); err != nil {
			return nil, fmt.Errorf("decode turn %s: %w", it.SK, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}
