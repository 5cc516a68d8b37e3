// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import "time"

// Priority is the agent-queue priority of an escalation.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityNormal Priority = "NORMAL"
)

// PassengerSummary is the passenger view inside an escalation packet.
type PassengerSummary struct {
	Name                string          `json:"name"`
	Tier                Tier            `json:"tier"`
	Origin              string          `json:"origin"`
	Destination         string          `json:"destination"`
	FlightNumber        string          `json:"flightNumber"`
	Constraints         []string        `json:"constraints"`
	ConnectionRisk      *ConnectionRisk `json:"connectionRisk"`
	SpecialRequirements string          `json:"specialRequirements,omitempty"`
}

// DisruptionSummary is the disruption view inside an escalation packet.
type DisruptionSummary struct {
	DisruptionID string         `json:"disruptionId"`
	Type         DisruptionType `json:"type"`
	Reason       string         `json:"reason"`
	Airport      string         `json:"airport"`
}

// SelectionHistory records what the passenger picked, if anything.
type SelectionHistory struct {
	SelectedOption *RebookingOption `json:"selectedOption"`
	SelectedAt     *time.Time       `json:"selectedAt,omitempty"`
}

// SentimentSummary folds the user-turn sentiment log.
type SentimentSummary struct {
	UserTurns int    `json:"userTurns"`
	Positive  int    `json:"positive"`
	Negative  int    `json:"negative"`
	Neutral   int    `json:"neutral"`
	Mixed     int    `json:"mixed"`
	Trend     string `json:"trend"`
	Latest    string `json:"latest,omitempty"`
}

// PolicyNotes carry the regulatory reminders for the agent.
type PolicyNotes struct {
	EU261 string `json:"eu261"`
	GDPR  string `json:"gdpr"`
}

// EscalationPacket is the write-once handoff bundle for a human agent. It is
// built from copies of session state and never references it live.
type EscalationPacket struct {
	SessionID         string            `json:"sessionId"`
	Reason            string            `json:"reason"`
	Priority          Priority          `json:"priority"`
	EscalatedAt       time.Time         `json:"escalatedAt"`
	PassengerSummary  PassengerSummary  `json:"passengerSummary"`
	DisruptionSummary DisruptionSummary `json:"disruptionSummary"`
	OptionsPresented  []RebookingOption `json:"optionsPresented"`
	SelectionHistory  SelectionHistory  `json:"selectionHistory"`
	Transcript        []Turn            `json:"transcript"`
	Booking           *Booking          `json:"booking"`
	AIRecommendation  string            `json:"aiRecommendation"`
	SentimentSummary  SentimentSummary  `json:"sentimentSummary"`
	PolicyNotes       PolicyNotes       `json:"policyNotes"`
}
