// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/rebookd/internal/aigw"
	"github.com/ManuGH/rebookd/internal/domain"
	"golang.org/x/text/cases"
)

var policyKeywords = []string{
	"eu261", "eu 261", "regulation", "compensation", "entitled", "rights",
	"refund", "claim", "gdpr", "data", "privacy", "personal data",
	"how much", "am i entitled", "can i get", "what are my rights",
	"policy", "rule", "law", "legal", "obligation",
	"hotel", "meal", "voucher", "care", "assistance",
	"extraordinary", "weather", "mechanical",
	"how long", "when will", "processing time",
	"complaint", "escalate", "supervisor",
}

var folder = cases.Fold()

func fold(s string) string { return folder.String(s) }

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// IsPolicyQuestion reports whether a message should go to the policy
// responder. Matching is a case-folded substring test.
func IsPolicyQuestion(message string) bool {
	if strings.TrimSpace(message) == "" {
		return false
	}
	return containsAny(fold(message), policyKeywords...)
}

const (
	policyCompensation = "Under EU Regulation 261/2004, you may be entitled to compensation of €250–€600 depending on your flight distance and the circumstances of the disruption. Compensation is not due if the disruption was caused by extraordinary circumstances (e.g., severe weather, ATC restrictions). For a detailed assessment of your specific case, please speak with an agent who can review the full details."
	policyRefund       = "EU261 requires refunds to be processed within 7 business days for credit card payments. Goodwill miles/credits are typically applied within 72 hours. If you haven't received your refund within the expected timeframe, please contact our claims department."
	policyCare         = "Under EU261, you're entitled to meals and refreshments during delays of 2+ hours (short-haul), 3+ hours (medium-haul), or 4+ hours (long-haul). If your delay requires an overnight stay, hotel accommodation including transport is provided. These rights apply regardless of the cause of the disruption."
	policyGDPR         = "Your personal data is handled in accordance with GDPR. You have the right to access, rectify, or request deletion of your data. Chat transcripts are retained for 90 days. For a full data export or erasure request, please contact our data protection team."
	policyDefault      = "I'd be happy to help with your question about airline policies and passenger rights. For the most accurate information about your specific situation, I recommend speaking with one of our agents who can review the details of your case."
)

const (
	uriEU261   = "knowledge-base/eu261-regulation.md"
	uriAirline = "knowledge-base/airline-policy.md"
	uriFAQ     = "knowledge-base/disruption-faq.md"
	uriGDPR    = "knowledge-base/gdpr-data-handling.md"
)

// LocalPolicy answers from canned paragraphs with citation stubs.
type LocalPolicy struct{}

func (LocalPolicy) Answer(_ context.Context, req Request) (Answer, error) {
	q := fold(req.Message)
	return Answer{Text: policyText(q), Citations: policyCitations(q)}, nil
}

func policyText(q string) string {
	switch {
	case containsAny(q, "compensation", "entitled", "eu261"):
		return policyCompensation
	case containsAny(q, "refund", "how long"):
		return policyRefund
	case containsAny(q, "hotel", "meal", "care"):
		return policyCare
	case containsAny(q, "gdpr", "data", "privacy"):
		return policyGDPR
	default:
		return policyDefault
	}
}

// policyCitations accumulates every matching topic, unlike policyText.
func policyCitations(q string) []domain.Citation {
	var out []domain.Citation
	if containsAny(q, "eu261", "compensation", "entitled", "rights") {
		out = append(out,
			domain.Citation{Title: "EU Regulation 261/2004 - Passenger Rights", URI: uriEU261},
			domain.Citation{Title: "Airline Compensation Policy", URI: uriAirline},
		)
	}
	if containsAny(q, "refund", "how long", "claim") {
		out = append(out, domain.Citation{Title: "Disruption FAQ - Refunds & Claims", URI: uriFAQ})
	}
	if containsAny(q, "hotel", "meal", "care", "assistance") {
		out = append(out,
			domain.Citation{Title: "Disruption FAQ - Care & Assistance", URI: uriFAQ},
			domain.Citation{Title: "EU Regulation 261/2004 - Duty of Care", URI: uriEU261},
		)
	}
	if containsAny(q, "gdpr", "data", "privacy") {
		out = append(out, domain.Citation{Title: "GDPR Data Handling Policy", URI: uriGDPR})
	}
	if len(out) == 0 {
		out = append(out, domain.Citation{Title: "Airline Policy - General", URI: uriAirline})
	}
	return out
}

type kbRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type kbResponse struct {
	Text      string            `json:"text"`
	Citations []domain.Citation `json:"citations"`
}

const kbMaxResults = 5

// ManagedPolicy queries the gateway knowledge-base capability.
type ManagedPolicy struct {
	client aigw.Caller
}

func NewManagedPolicy(client aigw.Caller) *ManagedPolicy {
	return &ManagedPolicy{client: client}
}

func (m *ManagedPolicy) Answer(ctx context.Context, req Request) (Answer, error) {
	var resp kbResponse
	in := kbRequest{Query: EnrichQuery(req), MaxResults: kbMaxResults}
	if err := m.client.Call(ctx, aigw.CapKnowledgeBase, in, &resp); err != nil {
		return Answer{}, err
	}
	return Answer{Text: resp.Text, Citations: resp.Citations}, nil
}

// EnrichQuery prefixes the message with the passenger context the retriever
// filters on.
func EnrichQuery(req Request) string {
	tier := string(req.Passenger.Tier)
	if tier == "" {
		tier = "unknown"
	}
	disruption := req.DisruptionID
	if disruption == "" {
		disruption = "unknown"
	}
	return fmt.Sprintf("[Passenger tier: %s, Disruption: %s] %s", tier, disruption, req.Message)
}
