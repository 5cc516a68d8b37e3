// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package escalation decides when a conversation needs a human agent and
// assembles the handoff packet the agent receives.
package escalation

import (
	"fmt"

	"github.com/ManuGH/rebookd/internal/domain"
)

const (
	// NegativeThreshold is the negative score a turn must exceed to extend
	// a negative run.
	NegativeThreshold = 0.7
	// MinConsecutiveNegative is the run length that triggers escalation.
	MinConsecutiveNegative = 2
)

// Verdict is the outcome of Evaluate. Reason is empty unless ShouldEscalate.
type Verdict struct {
	ShouldEscalate      bool
	Reason              string
	ConsecutiveNegative int
}

// Evaluate counts the run of strongly negative entries at the end of the
// user-turn sentiment history, most recent last.
func Evaluate(history []domain.SentimentResult) Verdict {
	run := 0
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		if e.Sentiment != domain.SentimentNegative || e.Scores.Negative <= NegativeThreshold {
			break
		}
		run++
	}

	v := Verdict{ConsecutiveNegative: run, ShouldEscalate: run >= MinConsecutiveNegative}
	if v.ShouldEscalate {
		v.Reason = fmt.Sprintf("Passenger sentiment detected as NEGATIVE for %d consecutive messages (auto-escalation triggered)", run)
	}
	return v
}

// Priority maps a tier to its queue priority.
func Priority(tier domain.Tier) domain.Priority {
	switch tier {
	case domain.TierPlatinum:
		return domain.PriorityHigh
	case domain.TierGold:
		return domain.PriorityMedium
	default:
		return domain.PriorityNormal
	}
}
