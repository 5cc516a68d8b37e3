// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	disruptionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_disruptions_created_total",
		Help: "Disruption sessions created by disruption type and passenger tier",
	}, []string{"type", "tier"})

	optionsGenerated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rebookd_options_generated",
		Help:    "Number of rebooking options returned per generation",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})

	chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_chat_turns_total",
		Help: "Chat turns processed by responder source and user sentiment",
	}, []string{"source", "sentiment"})

	aiFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_ai_fallbacks_total",
		Help: "Managed AI calls that degraded to the local fallback",
	}, []string{"capability", "reason"}) // reason=disabled|error|circuit_open|guardrail

	aiCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rebookd_ai_call_duration_seconds",
		Help:    "Latency of managed AI collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"capability", "outcome"}) // outcome=success|failure

	escalations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_escalations_total",
		Help: "Escalation packets created by priority and trigger",
	}, []string{"priority", "trigger"}) // trigger=manual|auto

	autoEscalationSignals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rebookd_auto_escalation_signals_total",
		Help: "Chat turns whose sentiment history crossed the auto-escalation threshold",
	})

	bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_bookings_total",
		Help: "Mock bookings confirmed by tier",
	}, []string{"tier"})

	handoffPublish = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_handoff_publish_total",
		Help: "Escalation handoff deliveries by sink and outcome",
	}, []string{"sink", "outcome"})

	// Operational metrics
	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_operation_errors_total",
		Help: "Operation failures by operation and error kind",
	}, []string{"operation", "kind"}) // kind=validation|not_found|precondition|internal

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rebookd_store_operation_duration_seconds",
		Help:    "Session store operation latency by backend and operation",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"backend", "op"})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rebookd_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"})
)

// IncDisruptionCreated counts a new disruption session.
func IncDisruptionCreated(disruptionType, tier string) {
	disruptionsCreated.WithLabelValues(disruptionType, tier).Inc()
}

// ObserveOptionsGenerated records the size of a generated option list.
func ObserveOptionsGenerated(n int) {
	optionsGenerated.Observe(float64(n))
}

// IncChatTurn counts a processed chat turn.
func IncChatTurn(source, sentiment string) {
	chatTurns.WithLabelValues(source, sentiment).Inc()
}

// IncAIFallback counts a degradation to the local fallback.
func IncAIFallback(capability, reason string) {
	aiFallbacks.WithLabelValues(capability, reason).Inc()
}

// ObserveAICall records the latency of a managed collaborator call.
func ObserveAICall(capability string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	aiCallDuration.WithLabelValues(capability, outcome).Observe(d.Seconds())
}

// IncEscalation counts a created escalation packet.
func IncEscalation(priority, trigger string) {
	escalations.WithLabelValues(priority, trigger).Inc()
}

// IncAutoEscalationSignal counts a turn that crossed the sentiment threshold.
func IncAutoEscalationSignal() {
	autoEscalationSignals.Inc()
}

// IncBooking counts a confirmed mock booking.
func IncBooking(tier string) {
	bookings.WithLabelValues(tier).Inc()
}

// RecordHandoffPublish counts a handoff delivery attempt.
func RecordHandoffPublish(sink string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	handoffPublish.WithLabelValues(sink, outcome).Inc()
}

// IncOperationError counts a failed operation.
func IncOperationError(operation, kind string) {
	operationErrors.WithLabelValues(operation, kind).Inc()
}

// ObserveStoreOp records a store operation latency.
func ObserveStoreOp(backend, op string, start time.Time) {
	storeOpDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// IncConfigReload counts a configuration reload attempt.
func IncConfigReload(success bool) {
	if success {
		configReloads.WithLabelValues("success").Inc()
		return
	}
	configReloads.WithLabelValues("failure").Inc()
}
