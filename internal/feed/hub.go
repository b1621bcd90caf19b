package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const connBufferSize = 16

// Conn - один логический push-канал пользователя
type Conn struct {
	ID     uuid.UUID
	UserID int64
	Events chan Event
}

// Hub держит по одному активному каналу на пользователя. Новая подписка
// того же пользователя вытесняет старую. Медленный потребитель с полным
// буфером отключается, а не тормозит рассылку.
type Hub struct {
	mu        sync.Mutex
	conns     map[int64]*Conn
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewHub(heartbeat time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		conns:     make(map[int64]*Conn),
		heartbeat: heartbeat,
		logger:    logger,
	}
}

// Subscribe открывает канал пользователя. Прежний канал того же
// пользователя закрывается. Первым событием приходит подтверждение
// подключения.
func (h *Hub) Subscribe(userID int64) *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[userID]; ok {
		close(old.Events)
		delete(h.conns, userID)
	}

	conn := &Conn{
		ID:     uuid.New(),
		UserID: userID,
		Events: make(chan Event, connBufferSize),
	}
	h.conns[userID] = conn

	conn.Events <- newEvent(EventConnected)

	h.logger.Debug("Push channel opened",
		zap.Int64("user_id", userID),
		zap.String("conn_id", conn.ID.String()),
	)

	return conn
}

// Unsubscribe закрывает канал, если он всё ещё активен. Идемпотентен.
func (h *Hub) Unsubscribe(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.conns[conn.UserID]
	if !ok || current.ID != conn.ID {
		return
	}

	close(current.Events)
	delete(h.conns, conn.UserID)
}

// Publish доставляет событие в канал пользователя, не блокируясь.
// Возвращает false, если канала нет или потребитель отстал и был отключён.
func (h *Hub) Publish(userID int64, event Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[userID]
	if !ok {
		return false
	}

	select {
	case conn.Events <- event:
		return true
	default:
		// Переполненный буфер - мёртвый или отставший клиент
		h.logger.Warn("Dropping slow push consumer",
			zap.Int64("user_id", userID),
			zap.String("conn_id", conn.ID.String()),
		)
		close(conn.Events)
		delete(h.conns, userID)
		return false
	}
}

// Run рассылает heartbeat всем каналам до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.broadcastHeartbeat()
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) broadcastHeartbeat() {
	h.mu.Lock()
	users := make([]int64, 0, len(h.conns))
	for userID := range h.conns {
		users = append(users, userID)
	}
	h.mu.Unlock()

	event := newEvent(EventHeartbeat)
	for _, userID := range users {
		h.Publish(userID, event)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conn := range h.conns {
		close(conn.Events)
		delete(h.conns, userID)
	}
}
