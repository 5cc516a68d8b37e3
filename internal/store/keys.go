// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"fmt"
	"strings"
	"time"
)

// Partition key prefixes.
const (
	PrefixSession    = "SESSION#"
	PrefixDisruption = "DISRUPTION#"
)

// Sort keys.
const (
	SKMeta         = "META"
	SKOptions      = "OPTIONS"
	SKSelection    = "SELECTION"
	SKBooking      = "BOOKING"
	SKEscalation   = "ESCALATION"
	SKNotification = "NOTIFICATION"
	PrefixTurn     = "TURN#"
)

// turnTimeLayout is RFC 3339 with a fixed-width fraction so that sort keys
// order lexically in time order.
const turnTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func SessionPK(sessionID string) string       { return PrefixSession + sessionID }
func DisruptionPK(disruptionID string) string { return PrefixDisruption + disruptionID }

// SessionLinkSK is the sort key of the link item a disruption partition
// carries for each of its sessions.
func SessionLinkSK(sessionID string) string { return PrefixSession + sessionID }

// TurnSK builds TURN#<timestamp>#<seq>.
func TurnSK(ts time.Time, seq int) string {
	return fmt.Sprintf("%s%s#%06d", PrefixTurn, ts.UTC().Format(turnTimeLayout), seq)
}

// IDFromPK strips a known prefix from a partition key.
func IDFromPK(pk string) string {
	for _, p := range []string{PrefixSession, PrefixDisruption} {
		if strings.HasPrefix(pk, p) {
			return strings.TrimPrefix(pk, p)
		}
	}
	return pk
}
