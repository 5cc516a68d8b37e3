// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package notify drafts the proactive disruption notification sent to a
// passenger before they open the chat.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
)

// Delivery channels.
const (
	ChannelPush  = "push"
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Channels lists delivery channels, most immediate first. Premium members
// always get an app push alongside sms and email.
func Channels(p domain.Passenger) []string {
	if p.HasApp || p.Tier.Premium() {
		return []string{ChannelPush, ChannelSMS, ChannelEmail}
	}
	return []string{ChannelSMS, ChannelEmail}
}

// PrimaryChannel is push only for app users who consented to proactive
// messages, sms otherwise.
func PrimaryChannel(p domain.Passenger) string {
	if p.HasApp && p.ConsentForProactive {
		return ChannelPush
	}
	return ChannelSMS
}

// Build drafts the English notification for a passenger.
func Build(p domain.Passenger, d domain.Disruption, optionCount int, now time.Time) domain.Notification {
	name := p.FirstName
	if name == "" {
		name = "there"
	}
	flight := p.FlightNumber

	verb := "delayed"
	if d.Type == domain.DisruptionCancellation {
		verb = "cancelled"
	}

	var b strings.Builder
	switch p.Tier {
	case domain.TierPlatinum:
		fmt.Fprintf(&b, "Dear %s, as a Platinum member you have priority rebooking. ", name)
	case domain.TierGold:
		fmt.Fprintf(&b, "Dear %s, as a Gold member you have priority access to rebooking. ", name)
	default:
		fmt.Fprintf(&b, "Hi %s, ", name)
	}
	fmt.Fprintf(&b, "Your flight %s from %s to %s has been %s due to %s. ", flight, p.Origin, p.Destination, verb, lowerFirst(d.Reason))
	if p.Tier.Premium() {
		fmt.Fprintf(&b, "We've prepared %d rebooking options for you, including premium alternatives with lounge access and hotel vouchers. ", optionCount)
	} else {
		fmt.Fprintf(&b, "We've prepared %d rebooking options for you. ", optionCount)
	}
	if p.ConnectionRisk != nil {
		fmt.Fprintf(&b, "We're also protecting your onward connection %s. ", p.ConnectionRisk.ConnectingFlight)
	}
	b.WriteString("Tap to review and choose the option that works best.")

	cta := []string{"View options", "Chat with assistant", "Talk to an agent"}
	if p.Tier.Premium() {
		cta = append(cta, "Call priority desk")
	}

	return domain.Notification{
		PrimaryChannel: PrimaryChannel(p),
		Channels:       Channels(p),
		Title:          fmt.Sprintf("Flight %s %s", flight, verb),
		Body:           b.String(),
		AffectedFlight: flight,
		Cause:          d.Reason,
		CTAOptions:     cta,
		Language:       "en",
		CreatedAt:      now,
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return "an operational issue"
	}
	r := []rune(s)
	if len(r) > 1 && r[1] >= 'A' && r[1] <= 'Z' {
		return s
	}
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
