// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/rebookd/internal/config"
	"github.com/ManuGH/rebookd/internal/domain"
	xglog "github.com/ManuGH/rebookd/internal/log"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePacket() domain.EscalationPacket {
	return domain.EscalationPacket{
		SessionID:   "SES-ABC123",
		Reason:      "Customer requested agent assistance",
		Priority:    domain.PriorityHigh,
		EscalatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFilePublisher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "handoff")
	fp, err := NewFilePublisher(dir)
	require.NoError(t, err)

	require.NoError(t, fp.Publish(context.Background(), samplePacket()))

	raw, err := os.ReadFile(filepath.Join(dir, "SES-ABC123.json"))
	require.NoError(t, err)
	var got domain.EscalationPacket
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, domain.PriorityHigh, got.Priority)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFilePublisherPathTraversal(t *testing.T) {
	fp, err := NewFilePublisher(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fp.dir, "passwd.json"), fp.Path("../../etc/passwd"))
}

func TestFilePublisherCanceled(t *testing.T) {
	fp, err := NewFilePublisher(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, fp.Publish(ctx, samplePacket()), context.Canceled)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaPublisher(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 &&
			string(msgs[0].Key) == "SES-ABC123" &&
			string(msgs[0].Headers[1].Value) == "HIGH"
	})).Return(nil).Once()
	w.On("Close").Return(nil)

	kp := &KafkaPublisher{writer: w, topic: "t"}
	require.NoError(t, kp.Publish(context.Background(), samplePacket()))
	require.NoError(t, kp.Close())
	w.AssertExpectations(t)
}

func TestKafkaPublisherError(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("no brokers"))

	kp := &KafkaPublisher{writer: w, topic: "escalations"}
	err := kp.Publish(context.Background(), samplePacket())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write to escalations")
}

type stubPublisher struct {
	err   error
	calls int
}

func (s *stubPublisher) Publish(context.Context, domain.EscalationPacket) error {
	s.calls++
	return s.err
}

func (s *stubPublisher) Close() error { return nil }

func TestMultiJoinsErrors(t *testing.T) {
	ok, bad := &stubPublisher{}, &stubPublisher{err: errors.New("down")}
	m := &Multi{sinks: []namedPublisher{{name: "ok", pub: ok}, {name: "bad", pub: bad}}}

	err := m.Publish(context.Background(), samplePacket())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
	assert.NoError(t, m.Close())
}

func TestFromConfig(t *testing.T) {
	m, err := FromConfig(config.HandoffConfig{})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.NoError(t, m.Publish(context.Background(), samplePacket()))

	m, err = FromConfig(config.HandoffConfig{Dir: t.TempDir(), KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.NoError(t, m.Close())
}

func TestFromConfigLogsSinks(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "info", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	dir := t.TempDir()
	m, err := FromConfig(config.HandoffConfig{Dir: dir})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "handoff.configured", entry["event"])
	assert.Equal(t, "handoff", entry["component"])
	assert.EqualValues(t, 1, entry["sinks"])
	assert.Equal(t, dir, entry["dir"])
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), samplePacket()))
	assert.NoError(t, p.Close())
}
