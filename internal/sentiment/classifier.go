// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sentiment labels passenger messages as POSITIVE, NEGATIVE, NEUTRAL
// or MIXED with per-label scores that sum to 1.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ManuGH/rebookd/internal/aigw"
	"github.com/ManuGH/rebookd/internal/domain"
)

// Classifier assigns a sentiment to a message.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.SentimentResult, error)
}

type managedRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type managedResponse struct {
	Sentiment string                 `json:"sentiment"`
	Scores    domain.SentimentScores `json:"scores"`
}

// Managed calls the gateway sentiment capability.
type Managed struct {
	client   aigw.Caller
	language string
}

func NewManaged(client aigw.Caller, language string) *Managed {
	if language == "" {
		language = "en"
	}
	return &Managed{client: client, language: language}
}

func (m *Managed) Classify(ctx context.Context, text string) (domain.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.NeutralResult(), nil
	}

	var resp managedResponse
	if err := m.client.Call(ctx, aigw.CapSentiment, managedRequest{Text: text, LanguageCode: m.language}, &resp); err != nil {
		return domain.SentimentResult{}, err
	}

	label := domain.Sentiment(strings.ToUpper(resp.Sentiment))
	switch label {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed:
	default:
		return domain.SentimentResult{}, fmt.Errorf("sentiment: unknown label %q", resp.Sentiment)
	}
	s := resp.Scores
	if !finite(s.Positive, s.Negative, s.Neutral, s.Mixed) {
		return domain.SentimentResult{}, fmt.Errorf("sentiment: invalid scores %+v", s)
	}
	return domain.SentimentResult{Sentiment: label, Scores: s}, nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// Fallback prefers the managed classifier and degrades to the heuristic.
// It never returns an error.
type Fallback struct {
	primary Classifier
}

// NewFallback wraps primary. A nil primary always uses the heuristic.
func NewFallback(primary Classifier) *Fallback {
	return &Fallback{primary: primary}
}

// Managed reports whether a managed classifier is configured.
func (f *Fallback) Managed() bool { return f.primary != nil }

func (f *Fallback) Classify(ctx context.Context, text string) (domain.SentimentResult, error) {
	if f.primary == nil {
		return Score(text), nil
	}
	res, err := f.primary.Classify(ctx, text)
	if err != nil {
		aigw.RecordFallback(ctx, aigw.CapSentiment, aigw.Reason(err), err)
		return Score(text), nil
	}
	return res, nil
}
