// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented decorates a Store with latency metrics and spans.
type Instrumented struct {
	inner   Store
	backend string
	tracer  trace.Tracer
}

// Instrument wraps s. backend labels metrics and spans.
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{inner: s, backend: backend, tracer: telemetry.Tracer("rebookd/store")}
}

func (s *Instrumented) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	attrs = append(attrs, attribute.String("store.backend", s.backend))
	ctx, span := s.tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))
	return ctx, span, time.Now()
}

func (s *Instrumented) finish(span trace.Span, op string, start time.Time, err error) {
	metrics.ObserveStoreOp(s.backend, op, start)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Instrumented) Put(ctx context.Context, item Item) (err error) {
	ctx, span, start := s.start(ctx, "put", attribute.String("store.pk", item.PK), attribute.String("store.sk", item.SK))
	defer func() { s.finish(span, "put", start, err) }()
	return s.inner.Put(ctx, item)
}

func (s *Instrumented) Get(ctx context.Context, pk, sk string) (item Item, err error) {
	ctx, span, start := s.start(ctx, "get", attribute.String("store.pk", pk), attribute.String("store.sk", sk))
	defer func() { s.finish(span, "get", start, err) }()
	return s.inner.Get(ctx, pk, sk)
}

func (s *Instrumented) Query(ctx context.Context, pk, skPrefix string) (items []Item, err error) {
	ctx, span, start := s.start(ctx, "query", attribute.String("store.pk", pk))
	defer func() {
		span.SetAttributes(attribute.Int("store.items", len(items)))
		s.finish(span, "query", start, err)
	}()
	return s.inner.Query(ctx, pk, skPrefix)
}

func (s *Instrumented) ScanPrefix(ctx context.Context, pkPrefix string) (items []Item, err error) {
	ctx, span, start := s.start(ctx, "scan", attribute.String("store.prefix", pkPrefix))
	defer func() {
		span.SetAttributes(attribute.Int("store.items", len(items)))
		s.finish(span, "scan", start, err)
	}()
	return s.inner.ScanPrefix(ctx, pkPrefix)
}

func (s *Instrumented) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }
func (s *Instrumented) Close() error                   { return s.inner.Close() }

// Backend returns the label of the wrapped backend.
func (s *Instrumented) Backend() string { return s.backend }
