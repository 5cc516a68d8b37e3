// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package escalation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	"golang.org/x/text/cases"
)

// DefaultReason is used when the caller gives none.
const DefaultReason = "Customer requested agent assistance"

// Trend labels.
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient-data"
)

const trendDelta = 0.15

// extraordinaryCauses exempt the carrier from EU261 compensation.
var extraordinaryCauses = []string{"weather", "storm", "snow", "fog", "atc", "air traffic", "strike", "security", "volcanic", "bird strike"}

// Input is everything the packet is assembled from. Build copies it.
type Input struct {
	SessionID   string
	Reason      string
	Passenger   domain.Passenger
	Disruption  domain.Disruption
	Options     []domain.RebookingOption
	Selection   *domain.Selection
	Booking     *domain.Booking
	Transcript  []domain.Turn
	EscalatedAt time.Time
}

// Build assembles the immutable handoff packet.
func Build(in Input) domain.EscalationPacket {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	escalatedAt := in.EscalatedAt
	if escalatedAt.IsZero() {
		escalatedAt = time.Now().UTC()
	}

	sentiment := SummarizeSentiment(in.Transcript)

	packet := domain.EscalationPacket{
		SessionID:   in.SessionID,
		Reason:      reason,
		Priority:    Priority(in.Passenger.Tier),
		EscalatedAt: escalatedAt,
		PassengerSummary: domain.PassengerSummary{
			Name:                in.Passenger.FullName(),
			Tier:                in.Passenger.Tier,
			Origin:              in.Passenger.Origin,
			Destination:         in.Passenger.Destination,
			FlightNumber:        in.Passenger.FlightNumber,
			Constraints:         append([]string{}, in.Passenger.Constraints...),
			ConnectionRisk:      copyConnection(in.Passenger.ConnectionRisk),
			SpecialRequirements: in.Passenger.SpecialRequirements,
		},
		DisruptionSummary: domain.DisruptionSummary{
			DisruptionID: in.Disruption.ID,
			Type:         in.Disruption.Type,
			Reason:       in.Disruption.Reason,
			Airport:      in.Disruption.Airport,
		},
		OptionsPresented: copyOptions(in.Options),
		Transcript:       copyTurns(in.Transcript),
		SentimentSummary: sentiment,
		PolicyNotes:      PolicyNotesFor(in.Disruption),
	}

	if in.Selection != nil {
		opt := copyOption(in.Selection.Selected)
		at := in.Selection.SelectedAt
		packet.SelectionHistory = domain.SelectionHistory{SelectedOption: &opt, SelectedAt: &at}
	}
	if in.Booking != nil {
		b := *in.Booking
		b.Selected = copyOption(b.Selected)
		b.ItinerarySummary.Flights = append([]string{}, b.ItinerarySummary.Flights...)
		b.ItinerarySummary.Perks = append([]string{}, b.ItinerarySummary.Perks...)
		packet.Booking = &b
	}

	packet.AIRecommendation = Recommend(in.Passenger, in.Selection, in.Booking, sentiment)
	return packet
}

// Recommend writes the rule-based guidance shown to the agent.
func Recommend(p domain.Passenger, sel *domain.Selection, booking *domain.Booking, s domain.SentimentSummary) string {
	var notes []string

	switch Priority(p.Tier) {
	case domain.PriorityHigh:
		notes = append(notes, fmt.Sprintf("%s member: handle with top priority and offer premium recovery options.", p.Tier))
	case domain.PriorityMedium:
		notes = append(notes, fmt.Sprintf("%s member: prioritize and mention available premium perks.", p.Tier))
	default:
		notes = append(notes, "Standard priority passenger.")
	}

	switch {
	case booking != nil:
		notes = append(notes, fmt.Sprintf("Mock booking %s already confirmed for option %s; verify it meets the passenger's needs.", booking.PNR, booking.Selected.OptionID))
	case sel != nil:
		notes = append(notes, fmt.Sprintf("Passenger selected option %s but has not confirmed; help complete the booking.", sel.OptionID))
	default:
		notes = append(notes, "Passenger has not selected an option yet; walk through the top-ranked options.")
	}

	if p.ConnectionRisk != nil {
		notes = append(notes, fmt.Sprintf("Connection risk: onward flight %s with %d min connection; protect the connection.",
			p.ConnectionRisk.ConnectingFlight, p.ConnectionRisk.ConnectionTime))
	}
	if p.SpecialRequirements != "" {
		notes = append(notes, fmt.Sprintf("Special requirements: %s; arrange ground support.", p.SpecialRequirements))
	}

	if s.Negative > 0 || s.Trend == TrendDeclining {
		notes = append(notes, "Passenger is frustrated; consider a goodwill gesture such as bonus miles or a lounge pass.")
	} else {
		notes = append(notes, "Consider a goodwill gesture if the resolution takes longer than expected.")
	}

	return strings.Join(notes, " ")
}

// SummarizeSentiment folds the user turns of a transcript.
func SummarizeSentiment(turns []domain.Turn) domain.SentimentSummary {
	var (
		out      domain.SentimentSummary
		valences []float64
	)
	for _, t := range turns {
		if t.Role != domain.RoleUser || t.Sentiment == "" {
			continue
		}
		out.UserTurns++
		switch t.Sentiment {
		case domain.SentimentPositive:
			out.Positive++
		case domain.SentimentNegative:
			out.Negative++
		case domain.SentimentMixed:
			out.Mixed++
		default:
			out.Neutral++
		}
		out.Latest = string(t.Sentiment)
		valences = append(valences, valence(t))
	}

	out.Trend = trend(valences)
	return out
}

func valence(t domain.Turn) float64 {
	if t.SentimentScores != nil {
		return t.SentimentScores.Positive - t.SentimentScores.Negative
	}
	switch t.Sentiment {
	case domain.SentimentPositive:
		return 1
	case domain.SentimentNegative:
		return -1
	}
	return 0
}

// trend compares the mean valence of the earlier and later halves.
func trend(v []float64) string {
	if len(v) < 2 {
		return TrendInsufficientData
	}
	mid := len(v) / 2
	delta := mean(v[len(v)-mid:]) - mean(v[:mid])
	switch {
	case delta > trendDelta:
		return TrendImproving
	case delta < -trendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// PolicyNotesFor returns the regulatory reminders for a disruption.
func PolicyNotesFor(d domain.Disruption) domain.PolicyNotes {
	eu := "EU261: passenger may be entitled to €250–€600 compensation depending on distance, plus care (meals, hotel) while waiting."
	if isExtraordinary(d.Reason) {
		eu = "EU261: cause appears extraordinary (" + d.Reason + "); compensation likely not due, but duty of care (meals, hotel) still applies."
	}
	if d.Type == domain.DisruptionCancellation {
		eu += " Cancellation: offer re-routing or a full refund within 7 days."
	}
	return domain.PolicyNotes{
		EU261: eu,
		GDPR:  "GDPR: transcript contains personal data; use only for this case and retain no longer than 90 days.",
	}
}

func isExtraordinary(reason string) bool {
	folded := cases.Fold().String(reason)
	for _, c := range extraordinaryCauses {
		if strings.Contains(folded, c) {
			return true
		}
	}
	return false
}

func copyConnection(c *domain.ConnectionRisk) *domain.ConnectionRisk {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func copyOption(o domain.RebookingOption) domain.RebookingOption {
	o.PremiumPerks = append([]string{}, o.PremiumPerks...)
	return o
}

func copyOptions(in []domain.RebookingOption) []domain.RebookingOption {
	out := make([]domain.RebookingOption, len(in))
	for i, o := range in {
		out[i] = copyOption(o)
	}
	return out
}

func copyTurns(in []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, len(in))
	for i, t := range in {
		if t.SentimentScores != nil {
			s := *t.SentimentScores
			t.SentimentScores = &s
		}
		t.Citations = append([]domain.Citation(nil), t.Citations...)
		t.PIIDetected = append([]string(nil), t.PIIDetected...)
		out[i] = t
	}
	return out
}
