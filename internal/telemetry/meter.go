// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ManuGH/rebookd"

// FallbackRecorder counts AI collaborator degradations through the otel
// metric API so the signal travels with traces to the collector.
type FallbackRecorder struct {
	counter metric.Int64Counter
}

// NewFallbackRecorder builds a recorder on the given meter provider. A nil
// provider uses the global one.
func NewFallbackRecorder(mp metric.MeterProvider) (*FallbackRecorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	counter, err := mp.Meter(meterName).Int64Counter(
		"rebookd.ai.fallbacks",
		metric.WithDescription("Managed AI calls answered by the local fallback"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	return &FallbackRecorder{counter: counter}, nil
}

// Record adds one fallback for capability with the given reason.
func (r *FallbackRecorder) Record(ctx context.Context, capability, reason string) {
	if r == nil {
		return
	}
	r.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AICapabilityKey, capability),
		attribute.String(AIFallbackReasonKey, reason),
	))
}

var (
	defaultRecorderOnce sync.Once
	defaultRecorder     *FallbackRecorder
)

// Fallbacks returns the process-wide recorder bound to the global meter provider.
func Fallbacks() *FallbackRecorder {
	defaultRecorderOnce.Do(func() {
		r, err := NewFallbackRecorder(nil)
		if err == nil {
			defaultRecorder = r
		}
	})
	return defaultRecorder
}
