// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Session attributes
	SessionIDKey    = "rebookd.session_id"
	DisruptionIDKey = "rebookd.disruption_id"
	PassengerTier   = "rebookd.passenger.tier"
	OperationKey    = "rebookd.operation"

	// AI collaborator attributes
	AICapabilityKey     = "ai.capability"
	AISourceKey         = "ai.source"
	AIFallbackReasonKey = "ai.fallback_reason"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes creates session span attributes, skipping empty values.
func SessionAttributes(operation, sessionID, disruptionID, tier string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	attrs = append(attrs, attribute.String(OperationKey, operation))
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if disruptionID != "" {
		attrs = append(attrs, attribute.String(DisruptionIDKey, disruptionID))
	}
	if tier != "" {
		attrs = append(attrs, attribute.String(PassengerTier, tier))
	}
	return attrs
}

// ErrorAttributes creates error span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(ErrorKey, err.Error()),
		attribute.String(ErrorTypeKey, errorType),
	}
}
