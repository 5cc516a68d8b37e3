// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

// Sentiment is the label assigned to a user message.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// SentimentScores are per-label confidences summing to 1.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Mixed    float64 `json:"mixed"`
}

// NeutralScores is the result for empty or unclassifiable text.
func NeutralScores() SentimentScores {
	return SentimentScores{Neutral: 1}
}

// SentimentResult is the output of a classifier.
type SentimentResult struct {
	Sentiment Sentiment       `json:"sentiment"`
	Scores    SentimentScores `json:"scores"`
}

// NeutralResult returns the neutral verdict used for empty input and failures.
func NeutralResult() SentimentResult {
	return SentimentResult{Sentiment: SentimentNeutral, Scores: NeutralScores()}
}
