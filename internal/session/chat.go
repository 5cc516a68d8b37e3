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
	"github.com/ManuGH/rebookd/internal/pii"
	"github.com/ManuGH/rebookd/internal/router"
	"github.com/ManuGH/rebookd/internal/sentiment"
	"github.com/ManuGH/rebookd/internal/store"
	"golang.org/x/sync/errgroup"
)

// MaxChatOptions caps the options echoed back on a chat turn.
const MaxChatOptions = 4

// SentimentView is the sentiment of the current user message.
type SentimentView struct {
	Current domain.Sentiment       `json:"current"`
	Scores  domain.SentimentScores `json:"scores"`
}

// AutoEscalation is set on a chat result when the negative run crossed the
// threshold. The turn itself is not escalated; the client decides.
type AutoEscalation struct {
	Triggered           bool   `json:"triggered"`
	Reason              string `json:"reason"`
	ConsecutiveNegative int    `json:"consecutiveNegative"`
}

// ChatResult is returned by ChatTurn.
type ChatResult struct {
	SessionID         string                   `json:"sessionId"`
	Assistant         string                   `json:"assistant"`
	Options           []domain.RebookingOption `json:"options"`
	Sentiment         SentimentView            `json:"sentiment"`
	Source            string                   `json:"source"`
	Citations         []domain.Citation        `json:"citations"`
	AutoEscalation    *AutoEscalation          `json:"autoEscalation"`
	PIIDetected       []string                 `json:"piiDetected"`
	TransferRequested bool                     `json:"transferRequested"`
}

// ChatTurn processes one passenger message and appends the user and
// assistant turns to the session log.
func (s *Service) ChatTurn(ctx context.Context, sessionID, message string) (ChatResult, error) {
	if err := domain.RequireFields(
		domain.StringField("sessionId", sessionID),
		domain.StringField("message", message),
	); err != nil {
		return ChatResult{}, err
	}
	ctx = xglog.ContextWithSessionID(ctx, sessionID)

	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return ChatResult{}, err
	}
	ctx = xglog.ContextWithDisruptionID(ctx, sess.DisruptionID)

	set, err := s.loadOptions(ctx, sessionID)
	if err != nil {
		return ChatResult{}, err
	}
	history, err := s.loadTurns(ctx, sessionID)
	if err != nil {
		return ChatResult{}, err
	}

	mood, piiTypes := s.analyze(ctx, message)

	userTurn := domain.Turn{
		Role:            domain.RoleUser,
		Content:         message,
		Timestamp:       s.now(),
		Sentiment:       mood.Sentiment,
		SentimentScores: &mood.Scores,
		PIIDetected:     piiTypes,
	}
	if err := s.appendTurn(ctx, sessionID, userTurn, len(history)); err != nil {
		return ChatResult{}, err
	}

	verdict := escalation.Evaluate(append(userSentiments(history), mood))

	resp := s.router.Route(ctx, router.Request{
		Message:      message,
		Passenger:    sess.Passenger,
		DisruptionID: sess.DisruptionID,
		Options:      set.Options,
		History:      history,
	})

	assistantTurn := domain.Turn{
		Role:      domain.RoleAssistant,
		Content:   resp.Text,
		Timestamp: s.now(),
		Source:    resp.Source,
		Citations: resp.Citations,
	}
	if err := s.appendTurn(ctx, sessionID, assistantTurn, len(history)+1); err != nil {
		return ChatResult{}, err
	}

	out := ChatResult{
		SessionID:         sessionID,
		Assistant:         resp.Text,
		Options:           firstN(set.Options, MaxChatOptions),
		Sentiment:         SentimentView{Current: mood.Sentiment, Scores: mood.Scores},
		Source:            resp.Source,
		Citations:         resp.Citations,
		PIIDetected:       piiTypes,
		TransferRequested: router.DetectTransferIntent(message),
	}
	if out.Citations == nil {
		out.Citations = []domain.Citation{}
	}

	metrics.IncChatTurn(resp.Source, string(mood.Sentiment))
	logger := xglog.WithComponentFromContext(ctx, "session")
	if verdict.ShouldEscalate {
		out.AutoEscalation = &AutoEscalation{
			Triggered:           true,
			Reason:              verdict.Reason,
			ConsecutiveNegative: verdict.ConsecutiveNegative,
		}
		metrics.IncAutoEscalationSignal()
		xglog.LogMetric(ctx, "AutoEscalationTriggered", 1, map[string]string{"tier": string(sess.Passenger.Tier)})
		logger.Warn().
			Str("event", "chat.auto_escalation").
			Int("consecutive_negative", verdict.ConsecutiveNegative).
			Msg("negative sentiment run crossed threshold")
	}
	logger.Info().
		Str("event", "chat.turn").
		Str("source", resp.Source).
		Str("sentiment", string(mood.Sentiment)).
		Strs("pii", piiTypes).
		Bool("transfer_requested", out.TransferRequested).
		Msg("chat turn processed")

	return out, nil
}

// analyze runs sentiment and PII detection in parallel. Neither can fail
// the turn: sentiment degrades to the heuristic and PII to no findings.
func (s *Service) analyze(ctx context.Context, message string) (domain.SentimentResult, []string) {
	var (
		mood     domain.SentimentResult
		entities []pii.Entity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.sentiment.Classify(gctx, message)
		if err != nil {
			res = sentiment.Score(message)
		}
		mood = res
		return nil
	})
	g.Go(func() error {
		found, err := s.pii.Detect(gctx, message)
		if err != nil {
			logger := xglog.WithComponentFromContext(ctx, "session")
			logger.Debug().Err(err).Msg("pii detection failed")
			return nil
		}
		entities = found
		return nil
	})
	_ = g.Wait()

	types := pii.Types(entities)
	if types == nil {
		types = []string{}
	}
	return mood, types
}

func (s *Service) appendTurn(ctx context.Context, sessionID string, t domain.Turn, seq int) error {
	if err := store.PutJSON(ctx, s.store, store.SessionPK(sessionID), store.TurnSK(t.Timestamp, seq), t); err != nil {
		return fmt.Errorf("append %s turn: %w", t.Role, err)
	}
	return nil
}

// userSentiments extracts the sentiment log of user turns, oldest first.
func userSentiments(turns []domain.Turn) []domain.SentimentResult {
	out := make([]domain.SentimentResult, 0, len(turns)+1)
	for _, t := range turns {
		if t.Role != domain.RoleUser || t.Sentiment == "" {
			continue
		}
		r := domain.SentimentResult{Sentiment: t.Sentiment}
		if t.SentimentScores != nil {
			r.Scores = *t.SentimentScores
		}
		out = append(out, r)
	}
	return out
}

func firstN(opts []domain.RebookingOption, n int) []domain.RebookingOption {
	if len(opts) > n {
		opts = opts[:n]
	}
	out := make([]domain.RebookingOption, len(opts))
	copy(out, opts)
	return out
}
