// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sentiment

import (
	"context"
	"strings"
	"unicode"

	"github.com/ManuGH/rebookd/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type phrase struct {
	text   string
	weight float64
}

// negativePhrases carry weight 1.5 for strong signals and 1 otherwise.
var negativePhrases = []phrase{
	{"unacceptable", 1.5},
	{"furious", 1.5},
	{"outrage", 1.5},
	{"disgust", 1.5},
	{"livid", 1.5},
	{"worst", 1.5},
	{"ridiculous", 1.5},
	{"frustrat", 1},
	{"angry", 1},
	{"upset", 1},
	{"annoy", 1},
	{"terrible", 1},
	{"horrible", 1},
	{"awful", 1},
	{"disappoint", 1},
	{"useless", 1},
	{"waste", 1},
	{"never again", 1},
	{"hate", 1},
	{"stranded", 1},
	{"stuck", 1},
	{"not happy", 1},
	{"complain", 1},
	{"lawyer", 1},
	{"refund now", 1},
	{"incompetent", 1},
	{"fed up", 1},
}

var positivePhrases = []phrase{
	{"thank", 1},
	{"great", 1},
	{"perfect", 1},
	{"appreciate", 1},
	{"helpful", 1},
	{"excellent", 1},
	{"awesome", 1},
	{"wonderful", 1},
	{"fantastic", 1},
	{"love", 1},
	{"sounds good", 1},
	{"works for me", 1},
	{"glad", 1},
	{"relieved", 1},
}

// acronyms are upper-case tokens that do not signal shouting.
var acronyms = map[string]struct{}{
	"PNR": {}, "EU": {}, "GDPR": {}, "USA": {}, "SMS": {}, "APP": {}, "API": {},
	"ETA": {}, "ETD": {}, "VIP": {}, "ID": {}, "OK": {}, "FAQ": {}, "EUR": {}, "USD": {},
	"JFK": {}, "FRA": {}, "LAX": {}, "ORD": {}, "DEN": {}, "DFW": {}, "SFO": {},
	"LHR": {}, "CDG": {}, "ATL": {}, "MUC": {}, "AMS": {}, "SEA": {}, "BOS": {}, "EWR": {},
}

const (
	amplifierStep   = 0.5
	maxExclamations = 3
	maxCapsWords    = 3
	mixedCap        = 0.3
	mixedThreshold  = 0.2
)

// Heuristic is the deterministic keyword classifier used when no managed
// classifier is configured or the managed one fails.
type Heuristic struct{}

func (Heuristic) Classify(_ context.Context, text string) (domain.SentimentResult, error) {
	return Score(text), nil
}

// Score classifies text with the fixed phrase tables.
func Score(text string) domain.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return domain.NeutralResult()
	}

	folded := cases.Fold().String(norm.NFKC.String(text))
	neg := count(folded, negativePhrases)
	pos := count(folded, positivePhrases)

	if neg > 0 {
		neg += amplifierStep * float64(min(strings.Count(text, "!"), maxExclamations))
		neg += amplifierStep * float64(min(capsWords(text), maxCapsWords))
	}

	total := neg + pos + 1
	scores := domain.SentimentScores{
		Negative: neg / total,
		Positive: pos / total,
		Neutral:  1 / total,
	}
	scores.Mixed = min(scores.Negative*scores.Positive*4, mixedCap)

	sum := scores.Negative + scores.Positive + scores.Neutral + scores.Mixed
	scores.Negative /= sum
	scores.Positive /= sum
	scores.Neutral /= sum
	scores.Mixed /= sum

	return domain.SentimentResult{Sentiment: label(scores), Scores: scores}
}

func label(s domain.SentimentScores) domain.Sentiment {
	out := domain.SentimentNeutral
	switch {
	case s.Negative > s.Neutral && s.Negative > s.Positive:
		out = domain.SentimentNegative
	case s.Positive > s.Neutral && s.Positive > s.Negative:
		out = domain.SentimentPositive
	}
	if s.Mixed > mixedThreshold {
		out = domain.SentimentMixed
	}
	return out
}

func count(folded string, table []phrase) float64 {
	var n float64
	for _, p := range table {
		n += p.weight * float64(strings.Count(folded, p.text))
	}
	return n
}

// capsWords counts upper-case words of three or more letters, ignoring acronyms.
func capsWords(text string) int {
	n := 0
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if len([]rune(word)) < 3 {
			continue
		}
		if _, ok := acronyms[word]; ok {
			continue
		}
		upper := true
		for _, r := range word {
			if !unicode.IsUpper(r) {
				upper = false
				break
			}
		}
		if upper {
			n++
		}
	}
	return n
}
