package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/delivery"
	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	listenChannel = "change_feed"

	defaultPollInterval = 15 * time.Second
	drainBatchSize      = 100
	maxEventAttempts    = 5
)

// Контракты слушателя. Боевые реализации - репозитории из
// internal/repository.

type EventSource interface {
	GetUnprocessed(ctx context.Context, maxAttempts, limit int) ([]*model.ChangeEvent, error)
	MarkProcessed(ctx context.Context, id int64) error
	IncrementAttempts(ctx context.Context, id int64) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
}

type NotificationLog interface {
	Create(ctx context.Context, n *model.Notification) error
}

type CoordinationTracker interface {
	GetByPair(ctx context.Context, userA, userB int64) (*model.CoordinationState, error)
	SetPhase(ctx context.Context, userA, userB int64, phase model.CoordinationPhase) error
}

type AvailabilityChecker interface {
	HasAny(ctx context.Context, userID int64) (bool, error)
}

// Listener наблюдает за outbox-таблицей change_events: просыпается по
// pg_notify, добирает необработанные события, строит типизированные
// события, durable-журналирует уведомления и рассылает их в hub.
// Работает в стороне от пути запросов; сбой обработки одного события
// логируется и не останавливает цикл.
type Listener struct {
	pool          *pgxpool.Pool
	events        EventSource
	users         UserDirectory
	notifications NotificationLog
	coordination  CoordinationTracker
	availability  AvailabilityChecker
	hub           *Hub
	delivery      delivery.Delivery // может быть nil
	logger        *zap.Logger
	pollInterval  time.Duration
}

func NewListener(
	pool *pgxpool.Pool,
	events EventSource,
	users UserDirectory,
	notifications NotificationLog,
	coordination CoordinationTracker,
	availability AvailabilityChecker,
	hub *Hub,
	dlv delivery.Delivery,
	logger *zap.Logger,
) *Listener {
	return &Listener{
		pool:          pool,
		events:        events,
		users:         users,
		notifications: notifications,
		coordination:  coordination,
		availability:  availability,
		hub:           hub,
		delivery:      dlv,
		logger:        logger,
		pollInterval:  defaultPollInterval,
	}
}

// Run держит LISTEN-соединение до отмены контекста, переподключаясь
// с фибоначчи-бэкоффом при потере соединения
func (l *Listener) Run(ctx context.Context) error {
	backoff := retry.WithCappedDuration(30*time.Second, retry.NewFibonacci(time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.logger.Error("Change feed connection lost, reconnecting", zap.Error(err))
		return retry.RetryableError(err)
	})
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+listenChannel); err != nil {
		return fmt.Errorf("listen %s: %w", listenChannel, err)
	}

	l.logger.Info("Change feed listener started")

	// Добираем события, случившиеся пока слушателя не было
	l.drain(ctx)

	for {
		waitCtx, cancel := context.WithTimeout(ctx, l.pollInterval)
		_, err := conn.Conn().WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("wait for notification: %w", err)
			}
			// Таймаут ожидания - страховочный дренаж на случай
			// потерянного NOTIFY
		}

		l.drain(ctx)
	}
}

// drain обрабатывает накопившиеся outbox-события в порядке записи
func (l *Listener) drain(ctx context.Context) {
	for {
		events, err := l.events.GetUnprocessed(ctx, maxEventAttempts, drainBatchSize)
		if err != nil {
			l.logger.Error("Failed to fetch change events", zap.Error(err))
			return
		}
		if len(events) == 0 {
			return
		}

		for _, ev := range events {
			if err := l.process(ctx, ev); err != nil {
				l.logger.Error("Failed to process change event",
					zap.Int64("event_id", ev.ID),
					zap.String("entity", ev.Entity),
					zap.Error(err),
				)
				if err := l.events.IncrementAttempts(ctx, ev.ID); err != nil {
					l.logger.Error("Failed to increment event attempts", zap.Error(err))
					return
				}
				continue
			}

			if err := l.events.MarkProcessed(ctx, ev.ID); err != nil {
				l.logger.Error("Failed to mark event processed", zap.Error(err))
				return
			}
		}

		if len(events) < drainBatchSize {
			return
		}
	}
}

// recordFields - поля, общие для записей всех пяти сущностей
type recordFields struct {
	UserID      *int64 `json:"user_id"`
	RequesterID *int64 `json:"requester_id"`
	TargetID    *int64 `json:"target_id"`
	ProposerID  *int64 `json:"proposer_id"`
	PartnerID   *int64 `json:"partner_id"`
	UserAID     *int64 `json:"user_a_id"`
	UserBID     *int64 `json:"user_b_id"`
}

func (l *Listener) process(ctx context.Context, ev *model.ChangeEvent) error {
	eventType, ok := entityEventTypes[ev.Entity]
	if !ok {
		// Неизвестная сущность: помечаем и идём дальше
		l.logger.Warn("Unknown change feed entity", zap.String("entity", ev.Entity))
		return nil
	}

	var fields recordFields
	if err := json.Unmarshal(ev.Payload, &fields); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	parties, err := l.resolveParties(ctx, ev.Entity, &fields)
	if err != nil {
		return err
	}
	if len(parties) == 0 {
		return nil
	}

	event := newEvent(eventType)
	event.Entity = ev.Entity
	event.Op = ev.Op
	event.Record = ev.Payload
	for _, u := range parties {
		event.Parties = append(event.Parties, Party{ID: u.ID, DisplayName: u.DisplayName})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	title, message := notificationText(eventType, ev.Op)
	for _, u := range parties {
		n := &model.Notification{
			UserID:  u.ID,
			Type:    eventType,
			Title:   title,
			Message: message,
			Payload: payload,
		}

		// Durable-журнал - обязательная часть доставки
		if err := l.notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("append notification: %w", err)
		}

		// Live push и внешний канал - best effort
		l.hub.Publish(u.ID, event)

		if l.delivery != nil {
			if err := l.delivery.Send(ctx, u, n); err != nil {
				l.logger.Warn("External delivery failed",
					zap.Int64("user_id", u.ID),
					zap.Error(err),
				)
			}
		}
	}

	l.advanceCoordination(ctx, ev, &fields)

	return nil
}

// resolveParties определяет затронутых пользователей по типу сущности
func (l *Listener) resolveParties(ctx context.Context, entity string, fields *recordFields) ([]*model.User, error) {
	var ids []int64

	switch entity {
	case model.EntityAvailabilitySlot:
		if fields.UserID == nil {
			return nil, fmt.Errorf("availability event without user_id")
		}
		ids = append(ids, *fields.UserID)

		// Изменение доступности касается и партнёра владельца
		owner, err := l.users.GetByID(ctx, *fields.UserID)
		if err != nil {
			return nil, fmt.Errorf("get slot owner: %w", err)
		}
		if owner != nil && owner.PartnerID != nil {
			ids = append(ids, *owner.PartnerID)
		}
	case model.EntityPartnerRequest:
		ids = pairIDs(fields.RequesterID, fields.TargetID)
	case model.EntitySessionProposal:
		ids = pairIDs(fields.ProposerID, fields.PartnerID)
	case model.EntitySession, model.EntityCoordinationState:
		ids = pairIDs(fields.UserAID, fields.UserBID)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	users, err := l.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve parties: %w", err)
	}

	return users, nil
}

// advanceCoordination продвигает рекомендательную фазу пары. Ошибки здесь
// не фатальны для события.
func (l *Listener) advanceCoordination(ctx context.Context, ev *model.ChangeEvent, fields *recordFields) {
	switch ev.Entity {
	case model.EntitySession:
		if ev.Op != "INSERT" || fields.UserAID == nil || fields.UserBID == nil {
			return
		}
		if err := l.coordination.SetPhase(ctx, *fields.UserAID, *fields.UserBID, model.PhaseSessionsConfirmed); err != nil {
			l.logger.Warn("Failed to advance coordination phase", zap.Error(err))
		}
	case model.EntityAvailabilitySlot:
		if fields.UserID == nil {
			return
		}

		owner, err := l.users.GetByID(ctx, *fields.UserID)
		if err != nil || owner == nil || owner.PartnerID == nil {
			return
		}

		state, err := l.coordination.GetByPair(ctx, owner.ID, *owner.PartnerID)
		if err != nil || state == nil || state.Phase != model.PhaseWaitingAvailability {
			return
		}

		ownerHas, err := l.availability.HasAny(ctx, owner.ID)
		if err != nil || !ownerHas {
			return
		}
		partnerHas, err := l.availability.HasAny(ctx, *owner.PartnerID)
		if err != nil || !partnerHas {
			return
		}

		if err := l.coordination.SetPhase(ctx, owner.ID, *owner.PartnerID, model.PhaseAvailabilityReady); err != nil {
			l.logger.Warn("Failed to advance coordination phase", zap.Error(err))
		}
	}
}

func pairIDs(a, b *int64) []int64 {
	var ids []int64
	if a != nil {
		ids = append(ids, *a)
	}
	if b != nil {
		ids = append(ids, *b)
	}
	return ids
}
