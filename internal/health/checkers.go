// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/rebookd/internal/resilience"
)

const pingTimeout = 2 * time.Second

// Pinger is the part of the session store the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker pings the session store backend.
type StoreChecker struct {
	backend string
	store   Pinger
}

func NewStoreChecker(backend string, store Pinger) *StoreChecker {
	return &StoreChecker{backend: backend, store: store}
}

func (c *StoreChecker) Name() string { return CheckStore }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := c.store.Ping(ctx)
	details := map[string]string{
		"backend": c.backend,
		"latency": time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("%s store unreachable", c.backend),
			Error:   err.Error(),
			Details: details,
		}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%s store reachable", c.backend), Details: details}
}

// BreakerChecker reports the managed AI circuits by capability. An open
// circuit degrades the service to local fallbacks but never makes it unready.
type BreakerChecker struct {
	breakers func() []*resilience.CircuitBreaker
}

// NewBreakerChecker reads the breaker list on every check since breakers are
// created lazily per capability.
func NewBreakerChecker(breakers func() []*resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{breakers: breakers}
}

func (c *BreakerChecker) Name() string { return CheckCircuits }

func (c *BreakerChecker) Check(context.Context) CheckResult {
	breakers := c.breakers()
	if len(breakers) == 0 {
		return CheckResult{Status: StatusHealthy, Message: "no managed capabilities called yet"}
	}

	details := make(map[string]string, len(breakers))
	open := 0
	for _, cb := range breakers {
		state := cb.State()
		details[strings.TrimPrefix(cb.Name(), "ai_")] = string(state)
		if state != resilience.StateClosed {
			open++
		}
	}
	if open == 0 {
		return CheckResult{Status: StatusHealthy, Message: "all circuits closed", Details: details}
	}
	return CheckResult{
		Status:  StatusDegraded,
		Message: fmt.Sprintf("%d of %d circuits not closed; using local fallbacks", open, len(breakers)),
		Details: details,
	}
}
