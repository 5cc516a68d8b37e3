// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package handoff delivers escalation packets to the human-agent side.
package handoff

import (
	"context"
	"errors"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/ManuGH/rebookd/internal/metrics"
)

// Publisher delivers an escalation packet. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, packet domain.EscalationPacket) error
	Close() error
}

// Nop drops every packet. It is used when no sink is configured.
type Nop struct{}

func (Nop) Publish(context.Context, domain.EscalationPacket) error { return nil }
func (Nop) Close() error                                           { return nil }

type namedPublisher struct {
	name string
	pub  Publisher
}

// Multi fans a packet out to every sink and joins their errors.
type Multi struct {
	sinks []namedPublisher
}

func (m *Multi) Publish(ctx context.Context, packet domain.EscalationPacket) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.pub.Publish(ctx, packet)
		metrics.RecordHandoffPublish(s.name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.pub.Close())
	}
	return errors.Join(errs...)
}

// Len reports how many sinks are configured.
func (m *Multi) Len() int { return len(m.sinks) }

// FromConfig builds the configured sinks. With neither Kafka brokers nor a
// directory set the result publishes nowhere.
func FromConfig(cfg config.HandoffConfig) (*Multi, error) {
	m := &Multi{}
	if cfg.Dir != "" {
		fp, err := NewFilePublisher(cfg.Dir)
		if err != nil {
			return nil, err
		}
		m.sinks = append(m.sinks, namedPublisher{name: "file", pub: fp})
	}
	if len(cfg.KafkaBrokers) > 0 {
		m.sinks = append(m.sinks, namedPublisher{name: "kafka", pub: NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)})
	}

	logger := xglog.WithComponent("handoff")
	logger.Info().
		Str("event", "handoff.configured").
		Int("sinks", len(m.sinks)).
		Strs("kafka_brokers", cfg.KafkaBrokers).
		Str("dir", cfg.Dir).
		Msg("escalation handoff sinks ready")
	return m, nil
}
