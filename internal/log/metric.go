// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"
	"sort"
)

// LogMetric emits a structured metric line. Dashboards built on log queries
// filter on event=metric and aggregate the value field by name.
func LogMetric(ctx context.Context, name string, value float64, dims map[string]string) {
	l := WithComponentFromContext(ctx, "metrics")
	evt := l.Info().
		Str(FieldEvent, "metric").
		Str("metric", name).
		Float64("value", value)

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		evt = evt.Str(k, dims[k])
	}
	evt.Msg("metric")
}
