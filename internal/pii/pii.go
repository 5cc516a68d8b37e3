// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pii finds personal data in passenger messages. Detection only
// flags the turn; it never blocks or rewrites it.
package pii

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/ManuGH/rebookd/internal/aigw"
)

// Entity types reported by the detectors.
const (
	TypeEmail    = "EMAIL"
	TypePhone    = "PHONE"
	TypeCard     = "CREDIT_DEBIT_NUMBER"
	TypeSSN      = "SSN"
	TypePassport = "PASSPORT_NUMBER"
	TypeDateTime = "DATE_TIME"
)

// Entity is a detected span of personal data.
type Entity struct {
	Type        string  `json:"type"`
	Score       float64 `json:"score"`
	BeginOffset int     `json:"beginOffset"`
	EndOffset   int     `json:"endOffset"`
}

// Detector finds PII entities in text.
type Detector interface {
	Detect(ctx context.Context, text string) ([]Entity, error)
}

type pattern struct {
	typ   string
	re    *regexp.Regexp
	score float64
	check func(string) bool
}

var patterns = []pattern{
	{typ: TypeEmail, re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), score: 0.99},
	{typ: TypeCard, re: regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`), score: 0.95, check: luhn},
	{typ: TypeSSN, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), score: 0.9},
	{typ: TypePhone, re: regexp.MustCompile(`(?:\+\d{1,3}[ \-]?)?\(?\d{3}\)?[ \-.]\d{3}[ \-.]\d{4}\b`), score: 0.85},
	{typ: TypePassport, re: regexp.MustCompile(`(?i)\bpassport(?:\s+(?:no\.?|number|#))?\s*:?\s*([A-Z0-9]{6,9})\b`), score: 0.8},
	{typ: TypeDateTime, re: regexp.MustCompile(`(?i)\b(?:dob|date of birth|born on)\s*:?\s*\d{1,4}[./\-]\d{1,2}[./\-]\d{1,4}\b`), score: 0.75},
}

// Local is a regular-expression detector.
type Local struct{}

func (Local) Detect(_ context.Context, text string) ([]Entity, error) {
	return Scan(text), nil
}

// Scan runs every pattern over text. Overlapping matches keep the first
// (highest precedence) type.
func Scan(text string) []Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []Entity
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if p.check != nil && !p.check(text[loc[0]:loc[1]]) {
				continue
			}
			if overlaps(out, loc[0], loc[1]) {
				continue
			}
			out = append(out, Entity{Type: p.typ, Score: p.score, BeginOffset: loc[0], EndOffset: loc[1]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BeginOffset < out[j].BeginOffset })
	return out
}

func overlaps(found []Entity, begin, end int) bool {
	for _, e := range found {
		if begin < e.EndOffset && e.BeginOffset < end {
			return true
		}
	}
	return false
}

func luhn(s string) bool {
	sum, n := 0, 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
		n++
	}
	return n >= 13 && sum%10 == 0
}

// Types returns the distinct entity types in first-seen order.
func Types(entities []Entity) []string {
	seen := make(map[string]bool, len(entities))
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		if !seen[e.Type] {
			seen[e.Type] = true
			out = append(out, e.Type)
		}
	}
	return out
}

type managedRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type managedResponse struct {
	Entities []Entity `json:"entities"`
}

// Managed calls the gateway PII capability.
type Managed struct {
	client aigw.Caller
}

func NewManaged(client aigw.Caller) *Managed { return &Managed{client: client} }

func (m *Managed) Detect(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var resp managedResponse
	if err := m.client.Call(ctx, aigw.CapPII, managedRequest{Text: text, LanguageCode: "en"}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// Fallback prefers the managed detector and degrades to Local. It never
// returns an error.
type Fallback struct {
	primary Detector
}

// NewFallback wraps primary. A nil primary always uses Local.
func NewFallback(primary Detector) *Fallback { return &Fallback{primary: primary} }

func (f *Fallback) Detect(ctx context.Context, text string) ([]Entity, error) {
	if f.primary == nil {
		return Scan(text), nil
	}
	entities, err := f.primary.Detect(ctx, text)
	if err != nil {
		aigw.RecordFallback(ctx, aigw.CapPII, aigw.Reason(err), err)
		return Scan(text), nil
	}
	return entities, nil
}
