// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID    = "request_id"
	FieldSessionID    = "session_id"
	FieldDisruptionID = "disruption_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSource    = "source"

	// Passenger fields
	FieldTier     = "tier"
	FieldPriority = "priority"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
