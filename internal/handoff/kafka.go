// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/segmentio/kafka-go"
)

// EventEscalationCreated is the event header value on published messages.
const EventEscalationCreated = "escalation.created"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher produces one message per packet, keyed by session id so an
// agent desk consumer sees a session's escalations in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, packet domain.EscalationPacket) error {
	body, err := json.Marshal(packet)
	if err != nil {
		return fmt.Errorf("marshal handoff packet: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(packet.SessionID),
		Value: body,
		Time:  packet.EscalatedAt,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventEscalationCreated)},
			{Key: "priority", Value: []byte(packet.Priority)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error { return k.writer.Close() }
