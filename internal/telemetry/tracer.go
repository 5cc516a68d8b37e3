// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package telemetry provides OpenTelemetry tracing and metering for rebookd.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName = "rebookd"

	flushTimeout = 5 * time.Second
)

// Resource attribute keys describing how this instance is wired. They let a
// trace backend split latency by store and by managed vs local AI.
const (
	AttrStoreBackend = attribute.Key("rebookd.store.backend")
	AttrAIManaged    = attribute.Key("rebookd.ai.managed")
	AttrAIGateway    = attribute.Key("rebookd.ai.gateway")
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceVersion string
	Environment    string

	// Exporter is "grpc" (collector on :4317) or "http" (:4318).
	Exporter     string
	Endpoint     string
	SamplingRate float64

	StoreBackend string
	// ManagedAI lists the capabilities served by the AI gateway.
	ManagedAI []string
	AIGateway string
}

// ConfigFrom derives the tracing setup from the application config.
func ConfigFrom(cfg config.AppConfig) Config {
	return Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		StoreBackend:   cfg.Store.Backend,
		ManagedAI:      managedCapabilities(cfg.AI),
		AIGateway:      cfg.AI.Endpoint,
	}
}

func managedCapabilities(ai config.AIConfig) []string {
	toggles := map[string]bool{
		"chat":      ai.UseManagedChat,
		"kb":        ai.UseManagedKB,
		"sentiment": ai.UseManagedSentiment,
		"pii":       ai.UseManagedPII,
		"translate": ai.UseManagedTranslate,
	}
	out := []string{}
	for capability, on := range toggles {
		if on {
			out = append(out, capability)
		}
	}
	sort.Strings(out)
	return out
}

type exporterFactory func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"grpc": func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	},
	"http": func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	},
}

// Provider owns the tracer provider installed for the process.
type Provider struct {
	tp       *sdktrace.TracerProvider
	resource *resource.Resource
}

// NewProvider installs the global tracer provider. The W3C propagator is
// installed even when disabled so trace headers from the booking frontend
// pass through to the AI gateway.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{}, nil
	}

	newExporter, ok := exporters[cfg.Exporter]
	if !ok {
		return nil, fmt.Errorf("unsupported trace exporter %q (want grpc or http)", cfg.Exporter)
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	exporter, err := newExporter(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", cfg.Exporter, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	return &Provider{tp: tp, resource: res}, nil
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		AttrStoreBackend.String(cfg.StoreBackend),
		AttrAIManaged.StringSlice(cfg.ManagedAI),
	}
	if gw := strings.TrimSpace(cfg.AIGateway); gw != "" && len(cfg.ManagedAI) > 0 {
		attrs = append(attrs, AttrAIGateway.String(gw))
	}
	return attrs
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p.tp != nil }

// Shutdown flushes buffered spans and stops the exporter. Both steps share
// one bounded deadline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()

	return errors.Join(p.tp.ForceFlush(ctx), p.tp.Shutdown(ctx))
}

// Tracer returns a tracer for the given name.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
