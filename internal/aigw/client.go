// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package aigw is the HTTP client for the managed AI gateway. Every managed
// collaborator (chat, knowledge base, sentiment, PII, translation) posts JSON
// to a capability path on the same gateway.
package aigw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/rebookd/internal/metrics"
	"github.com/ManuGH/rebookd/internal/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Capabilities served by the gateway. Each has its own circuit breaker.
const (
	CapChat          = "chat"
	CapKnowledgeBase = "knowledge-base"
	CapSentiment     = "sentiment"
	CapPII           = "pii"
	CapTranslate     = "translate"
)

const (
	defaultTimeout          = 4 * time.Second
	defaultRPS              = 5
	defaultBurst            = 10
	defaultBreakerThreshold = 3
	defaultBreakerReset     = 30 * time.Second
	maxResponseBytes        = 1 << 20
)

// Caller is the part of Client the managed collaborators depend on.
type Caller interface {
	Call(ctx context.Context, capability string, in, out any) error
}

// StatusError is returned when the gateway answers with a non-2xx status.
type StatusError struct {
	Capability string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai gateway %s: status %d: %s", e.Capability, e.StatusCode, e.Body)
}

// Options configures the gateway client.
type Options struct {
	Endpoint         string
	APIKey           string
	Timeout          time.Duration
	RPS              float64
	Burst            int
	BreakerThreshold int
	BreakerReset     time.Duration
	UserAgent        string
	// HTTPClient overrides the default instrumented client (tests).
	HTTPClient *http.Client
}

// Client posts JSON requests to the gateway. Calls are rate limited,
// bounded by Timeout and guarded by a per-capability circuit breaker.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter

	breakerThreshold int
	breakerReset     time.Duration

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// New creates a gateway client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = defaultBreakerThreshold
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = defaultBreakerReset
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "rebookd"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	}

	return &Client{
		baseURL:          strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		apiKey:           opts.APIKey,
		userAgent:        opts.UserAgent,
		timeout:          opts.Timeout,
		http:             httpClient,
		limiter:          rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		breakerThreshold: opts.BreakerThreshold,
		breakerReset:     opts.BreakerReset,
		breakers:         make(map[string]*resilience.CircuitBreaker),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialTimeout := timeout
	if dialTimeout > 3*time.Second {
		dialTimeout = 3 * time.Second
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(base),
	}
}

// Breaker returns the circuit breaker guarding capability.
func (c *Client) Breaker(capability string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[capability]
	if !ok {
		cb = resilience.NewCircuitBreaker("ai_"+capability, c.breakerThreshold, c.breakerReset)
		c.breakers[capability] = cb
	}
	return cb
}

// Breakers returns every breaker created so far.
func (c *Client) Breakers() []*resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*resilience.CircuitBreaker, 0, len(c.breakers))
	for _, cb := range c.breakers {
		out = append(out, cb)
	}
	return out
}

// Call posts in as JSON to /v1/<capability> and decodes the response into out.
func (c *Client) Call(ctx context.Context, capability string, in, out any) error {
	start := time.Now()
	err := c.Breaker(capability).ExecuteContext(ctx, func(ctx context.Context) error {
		return c.do(ctx, capability, in, out)
	})
	metrics.ObserveAICall(capability, time.Since(start), err)
	return err
}

func (c *Client) do(ctx context.Context, capability string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ai gateway %s: rate limit: %w", capability, err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ai gateway %s: encode: %w", capability, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/"+capability, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ai gateway %s: %w", capability, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ai gateway %s: %w", capability, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(limited, 512))
		return &StatusError{Capability: capability, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, limited)
		return nil
	}
	if err := json.NewDecoder(limited).Decode(out); err != nil {
		return fmt.Errorf("ai gateway %s: decode: %w", capability, err)
	}
	return nil
}

// Reason classifies a failed call for fallback metrics.
func Reason(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &statusErr):
		return "upstream_status"
	default:
		return "upstream_error"
	}
}
