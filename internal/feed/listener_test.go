package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEventSource ведёт себя как outbox-таблица: выдаёт необработанные
// события порциями и учитывает отметки обработки и счётчики попыток
type fakeEventSource struct {
	events     []*model.ChangeEvent
	processed  []int64
	attempted  []int64
	fetchCalls int
}

func (f *fakeEventSource) GetUnprocessed(_ context.Context, maxAttempts, limit int) ([]*model.ChangeEvent, error) {
	f.fetchCalls++
	var out []*model.ChangeEvent
	for _, ev := range f.events {
		if ev.ProcessedAt == nil && ev.Attempts < maxAttempts {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeEventSource) MarkProcessed(_ context.Context, id int64) error {
	f.processed = append(f.processed, id)
	for _, ev := range f.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
		}
	}
	return nil
}

func (f *fakeEventSource) IncrementAttempts(_ context.Context, id int64) error {
	f.attempted = append(f.attempted, id)
	for _, ev := range f.events {
		if ev.ID == id {
			ev.Attempts++
		}
	}
	return nil
}

type fakeUserDirectory struct {
	users map[int64]*model.User
}

func (f *fakeUserDirectory) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserDirectory) GetByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeNotificationLog struct {
	created []*model.Notification
	err     error
}

func (f *fakeNotificationLog) Create(_ context.Context, n *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

type fakeCoordinationTracker struct {
	phases map[[2]int64]model.CoordinationPhase
}

func (f *fakeCoordinationTracker) GetByPair(_ context.Context, userA, userB int64) (*model.CoordinationState, error) {
	a, b := model.OrderPair(userA, userB)
	phase, ok := f.phases[[2]int64{a, b}]
	if !ok {
		return nil, nil
	}
	return &model.CoordinationState{UserAID: a, UserBID: b, Phase: phase}, nil
}

func (f *fakeCoordinationTracker) SetPhase(_ context.Context, userA, userB int64, phase model.CoordinationPhase) error {
	a, b := model.OrderPair(userA, userB)
	f.phases[[2]int64{a, b}] = phase
	return nil
}

type fakeAvailabilityChecker struct {
	hasSlots map[int64]bool
}

func (f *fakeAvailabilityChecker) HasAny(_ context.Context, userID int64) (bool, error) {
	return f.hasSlots[userID], nil
}

type fakeDelivery struct {
	sent []int64
	err  error
}

func (f *fakeDelivery) Send(_ context.Context, user *model.User, _ *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, user.ID)
	return nil
}

type listenerFixture struct {
	listener      *Listener
	source        *fakeEventSource
	users         *fakeUserDirectory
	notifications *fakeNotificationLog
	coordination  *fakeCoordinationTracker
	availability  *fakeAvailabilityChecker
	delivery      *fakeDelivery
	hub           *Hub
}

func newListenerFixture(events ...*model.ChangeEvent) *listenerFixture {
	partnerOf := func(id int64) *int64 { return &id }
	f := &listenerFixture{
		source: &fakeEventSource{events: events},
		users: &fakeUserDirectory{users: map[int64]*model.User{
			1: {ID: 1, DisplayName: "Alice", PartnerID: partnerOf(2)},
			2: {ID: 2, DisplayName: "Bob", PartnerID: partnerOf(1)},
			3: {ID: 3, DisplayName: "Carol"},
		}},
		notifications: &fakeNotificationLog{},
		coordination:  &fakeCoordinationTracker{phases: make(map[[2]int64]model.CoordinationPhase)},
		availability:  &fakeAvailabilityChecker{hasSlots: make(map[int64]bool)},
		delivery:      &fakeDelivery{},
		hub:           NewHub(time.Minute, zap.NewNop()),
	}
	f.listener = NewListener(nil, f.source, f.users, f.notifications, f.coordination, f.availability, f.hub, f.delivery, zap.NewNop())
	return f
}

func changeEvent(id int64, entity, op string, payload string) *model.ChangeEvent {
	return &model.ChangeEvent{
		ID:         id,
		Entity:     entity,
		Op:         op,
		Payload:    json.RawMessage(payload),
		OccurredAt: time.Now(),
	}
}

func TestListenerProcessPartnerRequest(t *testing.T) {
	f := newListenerFixture()
	connA := f.hub.Subscribe(1)
	<-connA.Events
	connB := f.hub.Subscribe(2)
	<-connB.Events

	ev := changeEvent(1, model.EntityPartnerRequest, "INSERT", `{"requester_id":1,"target_id":2,"status":"pending"}`)
	require.NoError(t, f.listener.process(context.Background(), ev))

	// Обе стороны получают durable-уведомление и push
	require.Len(t, f.notifications.created, 2)
	assert.Equal(t, model.NotificationPartnerRequest, f.notifications.created[0].Type)
	assert.Equal(t, "Partner request", f.notifications.created[0].Title)
	assert.ElementsMatch(t, []int64{1, 2}, f.delivery.sent)

	for _, conn := range []*Conn{connA, connB} {
		pushed := <-conn.Events
		assert.Equal(t, model.NotificationPartnerRequest, pushed.Type)
		assert.Equal(t, model.EntityPartnerRequest, pushed.Entity)
		assert.Equal(t, "INSERT", pushed.Op)
		require.Len(t, pushed.Parties, 2)
	}
}

func TestListenerProcessAvailabilityNotifiesPartner(t *testing.T) {
	f := newListenerFixture()

	ev := changeEvent(1, model.EntityAvailabilitySlot, "INSERT", `{"user_id":1,"day":1,"start_unit":36,"end_unit":42}`)
	require.NoError(t, f.listener.process(context.Background(), ev))

	var userIDs []int64
	for _, n := range f.notifications.created {
		userIDs = append(userIDs, n.UserID)
	}
	assert.ElementsMatch(t, []int64{1, 2}, userIDs)
}

func TestListenerProcessAvailabilityWithoutPartner(t *testing.T) {
	f := newListenerFixture()

	ev := changeEvent(1, model.EntityAvailabilitySlot, "INSERT", `{"user_id":3,"day":1,"start_unit":36,"end_unit":42}`)
	require.NoError(t, f.listener.process(context.Background(), ev))

	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, int64(3), f.notifications.created[0].UserID)
}

func TestListenerProcessUnknownEntity(t *testing.T) {
	f := newListenerFixture()

	ev := changeEvent(1, "unknown_table", "INSERT", `{}`)
	require.NoError(t, f.listener.process(context.Background(), ev))
	assert.Empty(t, f.notifications.created)
}

func TestListenerProcessBadPayload(t *testing.T) {
	f := newListenerFixture()

	ev := changeEvent(1, model.EntitySession, "INSERT", `not json`)
	assert.Error(t, f.listener.process(context.Background(), ev))
}

func TestListenerNotificationLogFailureIsFatal(t *testing.T) {
	f := newListenerFixture()
	f.notifications.err = errors.New("db down")

	ev := changeEvent(1, model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2}`)
	assert.Error(t, f.listener.process(context.Background(), ev))
}

func TestListenerDeliveryFailureIsNotFatal(t *testing.T) {
	f := newListenerFixture()
	f.delivery.err = errors.New("telegram down")

	ev := changeEvent(1, model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2}`)
	require.NoError(t, f.listener.process(context.Background(), ev))
	assert.Len(t, f.notifications.created, 2)
}

func TestListenerAdvancesCoordination(t *testing.T) {
	ctx := context.Background()

	t.Run("session insert confirms the pair", func(t *testing.T) {
		f := newListenerFixture()
		f.coordination.phases[[2]int64{1, 2}] = model.PhaseAvailabilityReady

		ev := changeEvent(1, model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2,"status":"confirmed"}`)
		require.NoError(t, f.listener.process(ctx, ev))
		assert.Equal(t, model.PhaseSessionsConfirmed, f.coordination.phases[[2]int64{1, 2}])
	})

	t.Run("session update does not touch the phase", func(t *testing.T) {
		f := newListenerFixture()
		f.coordination.phases[[2]int64{1, 2}] = model.PhaseSessionsConfirmed

		ev := changeEvent(1, model.EntitySession, "UPDATE", `{"user_a_id":1,"user_b_id":2,"status":"cancelled"}`)
		require.NoError(t, f.listener.process(ctx, ev))
		assert.Equal(t, model.PhaseSessionsConfirmed, f.coordination.phases[[2]int64{1, 2}])
	})

	t.Run("availability ready once both sides have slots", func(t *testing.T) {
		f := newListenerFixture()
		f.coordination.phases[[2]int64{1, 2}] = model.PhaseWaitingAvailability
		f.availability.hasSlots[1] = true
		f.availability.hasSlots[2] = true

		ev := changeEvent(1, model.EntityAvailabilitySlot, "INSERT", `{"user_id":1,"day":1,"start_unit":36,"end_unit":42}`)
		require.NoError(t, f.listener.process(ctx, ev))
		assert.Equal(t, model.PhaseAvailabilityReady, f.coordination.phases[[2]int64{1, 2}])
	})

	t.Run("waits while the partner has no slots", func(t *testing.T) {
		f := newListenerFixture()
		f.coordination.phases[[2]int64{1, 2}] = model.PhaseWaitingAvailability
		f.availability.hasSlots[1] = true

		ev := changeEvent(1, model.EntityAvailabilitySlot, "INSERT", `{"user_id":1,"day":1,"start_unit":36,"end_unit":42}`)
		require.NoError(t, f.listener.process(ctx, ev))
		assert.Equal(t, model.PhaseWaitingAvailability, f.coordination.phases[[2]int64{1, 2}])
	})

	t.Run("does not regress a later phase", func(t *testing.T) {
		f := newListenerFixture()
		f.coordination.phases[[2]int64{1, 2}] = model.PhaseSessionsConfirmed
		f.availability.hasSlots[1] = true
		f.availability.hasSlots[2] = true

		ev := changeEvent(1, model.EntityAvailabilitySlot, "INSERT", `{"user_id":1,"day":1,"start_unit":36,"end_unit":42}`)
		require.NoError(t, f.listener.process(ctx, ev))
		assert.Equal(t, model.PhaseSessionsConfirmed, f.coordination.phases[[2]int64{1, 2}])
	})
}

func TestListenerDrain(t *testing.T) {
	t.Run("marks good events processed", func(t *testing.T) {
		f := newListenerFixture(
			changeEvent(1, model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2}`),
			changeEvent(2, model.EntityPartnerRequest, "INSERT", `{"requester_id":1,"target_id":2}`),
		)

		f.listener.drain(context.Background())

		assert.Equal(t, []int64{1, 2}, f.source.processed)
		assert.Empty(t, f.source.attempted)
	})

	t.Run("failed event gets an attempt and does not block the rest", func(t *testing.T) {
		f := newListenerFixture(
			changeEvent(1, model.EntitySession, "INSERT", `broken`),
			changeEvent(2, model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2}`),
		)

		f.listener.drain(context.Background())

		assert.Equal(t, []int64{1}, f.source.attempted)
		assert.Equal(t, []int64{2}, f.source.processed)
	})

	t.Run("backlog larger than one batch is drained to the end", func(t *testing.T) {
		var events []*model.ChangeEvent
		for i := 1; i <= drainBatchSize+3; i++ {
			events = append(events, changeEvent(int64(i), model.EntitySession, "INSERT", `{"user_a_id":1,"user_b_id":2}`))
		}
		f := newListenerFixture(events...)

		f.listener.drain(context.Background())

		assert.Len(t, f.source.processed, drainBatchSize+3)
		assert.GreaterOrEqual(t, f.source.fetchCalls, 2)
	})

	t.Run("poison event is skipped after max attempts", func(t *testing.T) {
		poison := changeEvent(1, model.EntitySession, "INSERT", `broken`)
		poison.Attempts = maxEventAttempts
		f := newListenerFixture(poison)

		f.listener.drain(context.Background())

		assert.Empty(t, f.source.attempted)
		assert.Empty(t, f.source.processed)
	})
}

func TestNotificationText(t *testing.T) {
	tests := []struct {
		eventType string
		op        string
		title     string
	}{
		{model.NotificationPartnerRequest, "INSERT", "Partner request"},
		{model.NotificationSessionProposal, "UPDATE", "Session proposal"},
		{model.NotificationSession, "INSERT", "Session confirmed"},
		{model.NotificationSession, "UPDATE", "Session update"},
		{model.NotificationAvailability, "INSERT", "Availability update"},
		{model.NotificationCoordinationState, "UPDATE", "Coordination update"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.eventType, tt.op), func(t *testing.T) {
			title, message := notificationText(tt.eventType, tt.op)
			assert.Equal(t, tt.title, title)
			assert.NotEmpty(t, message)
		})
	}
}
