// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package aigw

import (
	"context"

	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/telemetry"
)

// Disabled is the fallback reason when a managed capability is switched off.
const Disabled = "disabled"

// RecordFallback counts a degradation to the local implementation in both
// Prometheus and the otel meter, and logs it.
func RecordFallback(ctx context.Context, capability, reason string, err error) {
	metrics.IncAIFallback(capability, reason)
	telemetry.Fallbacks().Record(ctx, capability, reason)
	xglog.LogMetric(ctx, "AIFallback", 1, map[string]string{"capability": capability, "reason": reason})

	if err == nil {
		return
	}
	logger := xglog.WithComponentFromContext(ctx, "aigw")
	logger.Warn().
		Err(err).
		Str("event", "ai.fallback").
		Str("capability", capability).
		Str("reason", reason).
		Msg("managed capability failed, using local fallback")
}
