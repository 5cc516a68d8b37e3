// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/rebookd/internal/domain"
	"github.com/ManuGH/rebookd/internal/options"
	"github.com/ManuGH/rebookd/internal/pii"
	"github.com/ManuGH/rebookd/internal/router"
	"github.com/ManuGH/rebookd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	packets []domain.EscalationPacket
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, packet domain.EscalationPacket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.packets = append(p.packets, packet)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (domain.SentimentResult, error) {
	return domain.SentimentResult{}, errors.New("classifier offline")
}

type failingDetector struct{}

func (failingDetector) Detect(context.Context, string) ([]pii.Entity, error) {
	return nil, errors.New("detector offline")
}

// tickingClock advances one millisecond per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func newTestService(t *testing.T, mutate ...func(*Deps)) (*Service, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	deps := Deps{
		Store:        st,
		Options:      &options.Generator{FlightNumber: func(id string) string { return "RB-" + id }},
		Publisher:    pub,
		ManifestSize: 50,
		Now:          tickingClock(),
	}
	for _, m := range mutate {
		m(&deps)
	}
	return New(deps), st, pub
}

func platinumInput() CreateDisruptionInput {
	return CreateDisruptionInput{
		Type:    "CANCELLATION",
		Reason:  "Severe weather at FRA",
		Airport: "FRA",
		Passenger: &domain.Passenger{
			FirstName:    "Alice",
			LastName:     "Anderson",
			Tier:         domain.TierPlatinum,
			Origin:       "FRA",
			Destination:  "JFK",
			FlightNumber: "UA891",
		},
	}
}

func create(t *testing.T, svc *Service, in CreateDisruptionInput) CreateDisruptionResult {
	t.Helper()
	res, err := svc.CreateDisruption(context.Background(), in)
	require.NoError(t, err)
	return res
}

func TestCreateDisruption_PlatinumScenario(t *testing.T) {
	svc, st, _ := newTestService(t)
	res := create(t, svc, platinumInput())

	assert.Regexp(t, `^DIS-[0-9A-F]{8}$`, res.DisruptionID)
	assert.Regexp(t, `^SES-[0-9A-F]{8}$`, res.SessionID)
	assert.Len(t, res.Options, 6)
	assert.Contains(t, res.Notification.Channels, "push")
	assert.Positive(t, res.ManifestSummary.TotalPassengers)
	assert.Equal(t, 50, res.ManifestSummary.TotalPassengers)
	assert.Contains(t, res.Message, res.SessionID)
	assert.Equal(t, "Business", res.Passenger.SeatClass)

	ctx := context.Background()
	for _, sk := range []string{store.SKMeta, store.SKOptions, store.SKNotification} {
		_, err := st.Get(ctx, store.SessionPK(res.SessionID), sk)
		assert.NoError(t, err, sk)
	}
	_, err := st.Get(ctx, store.DisruptionPK(res.DisruptionID), store.SessionLinkSK(res.SessionID))
	assert.NoError(t, err)
}

func TestCreateDisruption_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDisruption(ctx, CreateDisruptionInput{})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, "Missing required fields: type, reason, airport, passenger", err.Error())

	in := platinumInput()
	in.Type = "DIVERSION"
	_, err = svc.CreateDisruption(ctx, in)
	assert.True(t, domain.IsValidation(err))

	in = platinumInput()
	in.PassengerCount = -1
	_, err = svc.CreateDisruption(ctx, in)
	assert.True(t, domain.IsValidation(err))
}

func TestCreateDisruption_Defaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := platinumInput()
	in.Type = "delay"
	in.PassengerCount = 10
	in.Passenger = &domain.Passenger{FirstName: "Bob", Destination: "LHR"}

	res := create(t, svc, in)
	assert.Equal(t, domain.TierPlatinum, res.Passenger.Tier)
	assert.Equal(t, DefaultFlightNumber, res.Passenger.FlightNumber)
	assert.Equal(t, "FRA", res.Passenger.Origin)
	assert.Equal(t, "en", res.Passenger.Language)
	assert.NotNil(t, res.Passenger.Constraints)
	assert.Equal(t, 10, res.ManifestSummary.TotalPassengers)

	svc, _, _ = newTestService(t, func(d *Deps) { d.DefaultTier = domain.TierGeneral })
	res = create(t, svc, in)
	assert.Equal(t, domain.TierGeneral, res.Passenger.Tier)
	assert.Len(t, res.Options, 4)
	assert.NotContains(t, res.Notification.Channels, "push")
}

func TestChatTurn_AutoEscalationScenario(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	res := create(t, svc, platinumInput())

	first, err := svc.ChatTurn(ctx, res.SessionID, "This is unacceptable, I am furious")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, first.Sentiment.Current)
	assert.Nil(t, first.AutoEscalation)

	second, err := svc.ChatTurn(ctx, res.SessionID, "This is unacceptable, I am furious")
	require.NoError(t, err)
	require.NotNil(t, second.AutoEscalation)
	assert.True(t, second.AutoEscalation.Triggered)
	assert.Equal(t, 2, second.AutoEscalation.ConsecutiveNegative)
	assert.Len(t, second.Options, MaxChatOptions)

	items, err := st.Query(ctx, store.SessionPK(res.SessionID), store.PrefixTurn)
	require.NoError(t, err)
	require.Len(t, items, 4)
	roles := make([]domain.Role, 0, len(items))
	for _, it := range items {
		var turn domain.Turn
		require.NoError(t, it.Decode(&turn))
		roles = append(roles, turn.Role)
	}
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAssistant, domain.RoleUser, domain.RoleAssistant}, roles)
}

func TestChatTurn_PositiveBreaksRun(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	res := create(t, svc, platinumInput())

	for _, msg := range []string{
		"This is unacceptable, I am furious",
		"thank you, this is great",
		"This is unacceptable, I am furious",
	} {
		out, err := svc.ChatTurn(ctx, res.SessionID, msg)
		require.NoError(t, err)
		assert.Nil(t, out.AutoEscalation, msg)
	}
}

func TestChatTurn_RoutingAndSignals(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	res := create(t, svc, platinumInput())

	out, err := svc.ChatTurn(ctx, res.SessionID, "Am I entitled to compensation? Reach me at alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, router.SourceKnowledgeBase, out.Source)
	assert.NotEmpty(t, out.Citations)
	assert.Equal(t, []string{pii.TypeEmail}, out.PIIDetected)
	assert.False(t, out.TransferRequested)

	out, err = svc.ChatTurn(ctx, res.SessionID, "Please transfer me to a real person")
	require.NoError(t, err)
	assert.Equal(t, router.SourceFallback, out.Source)
	assert.True(t, out.TransferRequested)
	assert.Empty(t, out.PIIDetected)
	assert.NotNil(t, out.PIIDetected)
}

func TestChatTurn_CollaboratorFailuresDegrade(t *testing.T) {
	svc, _, _ := newTestService(t, func(d *Deps) {
		d.Sentiment = failingClassifier{}
		d.PII = failingDetector{}
	})
	res := create(t, svc, platinumInput())

	out, err := svc.ChatTurn(context.Background(), res.SessionID, "This is unacceptable, I am furious")
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, out.Sentiment.Current)
	assert.Empty(t, out.PIIDetected)
}

func TestChatTurn_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ChatTurn(ctx, "", "")
	require.Error(t, err)
	assert.Equal(t, "Missing required fields: sessionId, message", err.Error())

	_, err = svc.ChatTurn(ctx, "SES-NOPE", "hello")
	assert.True(t, domain.IsNotFound(err))
}

func TestSelectAndConfirm(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	res := create(t, svc, platinumInput())

	_, err := svc.Confirm(ctx, res.SessionID)
	require.Error(t, err)
	assert.True(t, domain.IsPrecondition(err))
	assert.Equal(t, "No option selected yet. Please select an option first.", err.Error())

	_, err = svc.SelectOption(ctx, res.SessionID, "Z")
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.SelectOption(ctx, "SES-NOPE", "A")
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.SelectOption(ctx, res.SessionID, "")
	assert.True(t, domain.IsValidation(err))

	sel, err := svc.SelectOption(ctx, res.SessionID, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Selected.OptionID)

	sel, err = svc.SelectOption(ctx, res.SessionID, "E")
	require.NoError(t, err)
	assert.Equal(t, "E", sel.Selected.OptionID)

	conf, err := svc.Confirm(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^PNR-DEMO-\d{5}$`), conf.Booking.PNR)
	assert.Equal(t, BookingStatusConfirmed, conf.Booking.Status)
	assert.Equal(t, "E", conf.Booking.Selected.OptionID, "re-selection overwrote the first choice")
	assert.Equal(t, "Alice Anderson", conf.Booking.ItinerarySummary.Passenger)
	assert.Equal(t, []string{"RB-E"}, conf.Booking.ItinerarySummary.Flights)
	assert.NotEmpty(t, conf.Booking.ItinerarySummary.Perks)
	assert.NotEmpty(t, conf.Booking.OfflineNote)
}

func TestEscalate_PlatinumWithoutSelection(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()
	res := create(t, svc, platinumInput())
	_, err := svc.ChatTurn(ctx, res.SessionID, "hello")
	require.NoError(t, err)

	out, err := svc.Escalate(ctx, res.SessionID, "")
	require.NoError(t, err)
	assert.True(t, out.Escalated)
	assert.Equal(t, domain.PriorityHigh, out.Packet.Priority)
	assert.Contains(t, out.Packet.AIRecommendation, "not selected")
	assert.Equal(t, "Customer requested agent assistance", out.Packet.Reason)
	assert.Equal(t, res.DisruptionID, out.Packet.DisruptionSummary.DisruptionID)
	assert.Equal(t, domain.DisruptionCancellation, out.Packet.DisruptionSummary.Type)
	assert.Len(t, out.Packet.Transcript, 2)
	assert.Len(t, out.Packet.OptionsPresented, 6)
	assert.Nil(t, out.Packet.Booking)

	var stored domain.EscalationPacket
	require.NoError(t, store.GetJSON(ctx, st, store.SessionPK(res.SessionID), store.SKEscalation, &stored))
	assert.Equal(t, out.Packet.Priority, stored.Priority)

	require.Len(t, pub.packets, 1)
	assert.Equal(t, res.SessionID, pub.packets[0].SessionID)
}

func TestEscalate_WithBookingAndPublishFailure(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")
	ctx := context.Background()

	in := platinumInput()
	in.Passenger.Tier = domain.TierGold
	res := create(t, svc, in)
	_, err := svc.SelectOption(ctx, res.SessionID, "B")
	require.NoError(t, err)
	conf, err := svc.Confirm(ctx, res.SessionID)
	require.NoError(t, err)

	out, err := svc.Escalate(ctx, res.SessionID, "Wants a refund")
	require.NoError(t, err, "publisher failures never fail escalation")
	assert.Equal(t, domain.PriorityMedium, out.Packet.Priority)
	assert.Equal(t, "Wants a refund", out.Packet.Reason)
	require.NotNil(t, out.Packet.Booking)
	assert.Equal(t, conf.Booking.PNR, out.Packet.Booking.PNR)
	require.NotNil(t, out.Packet.SelectionHistory.SelectedOption)
	assert.Equal(t, "B", out.Packet.SelectionHistory.SelectedOption.OptionID)
}

func TestEscalate_Errors(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Escalate(context.Background(), "", "")
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Escalate(context.Background(), "SES-NOPE", "")
	assert.True(t, domain.IsNotFound(err))
}

func TestListDisruptions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.ListDisruptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := create(t, svc, platinumInput())
	second := create(t, svc, platinumInput())

	list, err := svc.ListDisruptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.DisruptionID, list[0].ID, "newest first")
	assert.Equal(t, first.DisruptionID, list[1].ID)
	require.Len(t, list[1].Sessions, 1)
	assert.Equal(t, first.SessionID, list[1].Sessions[0].SessionID)
	assert.Equal(t, domain.SessionActive, list[1].Sessions[0].Status)
	assert.Equal(t, "Alice", list[1].Sessions[0].Passenger.FirstName)
	assert.Equal(t, "FRA", list[1].Airport)
}
