// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package domain holds the entities shared by the disruption engine:
// disruptions, passenger sessions, rebooking options, turns and the records
// derived from them.
package domain

import "time"

// DisruptionType classifies the operational event.
type DisruptionType string

const (
	DisruptionCancellation DisruptionType = "CANCELLATION"
	DisruptionDelay        DisruptionType = "DELAY"
)

// Valid reports whether t is a known disruption type.
func (t DisruptionType) Valid() bool {
	return t == DisruptionCancellation || t == DisruptionDelay
}

// Tier is the passenger loyalty status.
type Tier string

const (
	TierPlatinum Tier = "Platinum"
	TierGold     Tier = "Gold"
	TierSilver   Tier = "Silver"
	TierGeneral  Tier = "General"
)

// Tiers lists every tier from highest to lowest.
var Tiers = []Tier{TierPlatinum, TierGold, TierSilver, TierGeneral}

// Premium reports whether the tier unlocks premium-only itineraries.
func (t Tier) Premium() bool {
	return t == TierPlatinum || t == TierGold
}

// Rank orders tiers, lower is more senior. Unknown tiers rank last.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return len(Tiers)
}

// SessionStatus is the lifecycle state of a passenger session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// ConstraintArriveBefore2100 asks for arrivals strictly before 21:00 local.
const ConstraintArriveBefore2100 = "arrive_before_21_00"

// Disruption is an immutable airline operational event.
type Disruption struct {
	ID        string         `json:"disruptionId"`
	Type      DisruptionType `json:"type"`
	Reason    string         `json:"reason"`
	Airport   string         `json:"airport"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ConnectionRisk describes an onward connection that may be missed.
type ConnectionRisk struct {
	ConnectingFlight string `json:"connectingFlight"`
	ConnectionTime   int    `json:"connectionTime"` // minutes
}

// Passenger is supplied at session creation and read-only afterwards.
type Passenger struct {
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Tier                Tier            `json:"tier"`
	Origin              string          `json:"origin"`
	Destination         string          `json:"destination"`
	FlightNumber        string          `json:"flightNumber"`
	Constraints         []string        `json:"constraints"`
	ConnectionRisk      *ConnectionRisk `json:"connectionRisk"`
	SpecialRequirements string          `json:"specialRequirements,omitempty"`
	ConsentForProactive bool            `json:"consentForProactive"`
	HasApp              bool            `json:"hasApp"`
	Language            string          `json:"language,omitempty"`
	SeatClass           string          `json:"seatClass,omitempty"`
}

// FullName joins first and last name.
func (p Passenger) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// HasConstraint reports whether c is among the passenger constraints.
func (p Passenger) HasConstraint(c string) bool {
	for _, existing := range p.Constraints {
		if existing == c {
			return true
		}
	}
	return false
}

// Session is one passenger's interaction with one disruption.
type Session struct {
	SessionID    string        `json:"sessionId"`
	DisruptionID string        `json:"disruptionId"`
	Passenger    Passenger     `json:"passenger"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// RebookingOption is one generated itinerary. Options are immutable once generated.
type RebookingOption struct {
	OptionID           string   `json:"optionId"`
	Rank               int      `json:"rank"`
	FlightNumber       string   `json:"flightNumber"`
	Depart             string   `json:"depart"`
	Arrive             string   `json:"arrive"`
	Routing            string   `json:"routing"`
	Stops              int      `json:"stops"`
	Class              string   `json:"class"`
	CostDelta          int      `json:"costDelta"`
	Rationale          string   `json:"rationale"`
	Notes              string   `json:"notes,omitempty"`
	CompatibilityScore float64  `json:"compatibilityScore"`
	PremiumPerks       []string `json:"premiumPerks"`
}

// OptionSet is the single generated option list a session holds.
type OptionSet struct {
	Options     []RebookingOption `json:"options"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Find returns the option with the given id.
func (s OptionSet) Find(optionID string) (RebookingOption, bool) {
	for _, o := range s.Options {
		if o.OptionID == optionID {
			return o, true
		}
	}
	return RebookingOption{}, false
}

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the append-only conversation log.
type Turn struct {
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	Timestamp       time.Time        `json:"timestamp"`
	Sentiment       Sentiment        `json:"sentiment,omitempty"`
	SentimentScores *SentimentScores `json:"sentimentScores,omitempty"`
	Source          string           `json:"source,omitempty"`
	Citations       []Citation       `json:"citations,omitempty"`
	PIIDetected     []string         `json:"piiDetected,omitempty"`
}

// Selection is the passenger's current choice. Re-selecting overwrites it.
type Selection struct {
	OptionID   string          `json:"optionId"`
	Selected   RebookingOption `json:"selected"`
	SelectedAt time.Time       `json:"selectedAt"`
}

// ItinerarySummary is the printable part of a booking.
type ItinerarySummary struct {
	Passenger string   `json:"passenger"`
	Tier      Tier     `json:"tier"`
	Departure string   `json:"departure"`
	Arrival   string   `json:"arrival"`
	Routing   string   `json:"routing"`
	Class     string   `json:"class"`
	Flights   []string `json:"flights"`
	Perks     []string `json:"perks,omitempty"`
}

// Booking is the mock confirmation created from the current selection.
type Booking struct {
	PNR              string           `json:"pnr"`
	Status           string           `json:"status"`
	BookedAt         time.Time        `json:"bookedAt"`
	Selected         RebookingOption  `json:"selected"`
	ItinerarySummary ItinerarySummary `json:"itinerarySummary"`
	OfflineNote      string           `json:"offlineNote"`
}

// Notification is the proactive message sent when a disruption is reported.
type Notification struct {
	PrimaryChannel     string    `json:"primaryChannel"`
	Channels           []string  `json:"channels"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	AffectedFlight     string    `json:"affectedFlight"`
	Cause              string    `json:"cause"`
	CTAOptions         []string  `json:"ctaOptions"`
	Language           string    `json:"language"`
	OriginalBody       string    `json:"originalBody,omitempty"`
	OriginalCTAOptions []string  `json:"originalCtaOptions,omitempty"`
	TranslatedFrom     string    `json:"translatedFrom,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ManifestSummary aggregates the affected passenger population.
type ManifestSummary struct {
	TotalPassengers     int          `json:"totalPassengers"`
	TierBreakdown       map[Tier]int `json:"tierBreakdown"`
	ConnectionAtRisk    int          `json:"connectionAtRisk"`
	ProactiveEligible   int          `json:"proactiveEligible"`
	AppUsers            int          `json:"appUsers"`
	SpecialRequirements int          `json:"specialRequirements"`
}

// Citation points at a policy document backing an answer.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}
