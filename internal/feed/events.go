package feed

import (
	"encoding/json"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

// Служебные типы событий push-канала
const (
	EventConnected = "connected"
	EventHeartbeat = "heartbeat"
)

// Party - денормализованные данные участника для отображения
type Party struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
}

// Event - типизированное событие, уходящее в push-канал пользователя
type Event struct {
	Type      string          `json:"type"`
	Entity    string          `json:"entity,omitempty"`
	Op        string          `json:"op,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	Parties   []Party         `json:"parties,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func newEvent(eventType string) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Тип события по имени сущности
var entityEventTypes = map[string]string{
	model.EntityAvailabilitySlot:  model.NotificationAvailability,
	model.EntityPartnerRequest:    model.NotificationPartnerRequest,
	model.EntitySessionProposal:   model.NotificationSessionProposal,
	model.EntitySession:           model.NotificationSession,
	model.EntityCoordinationState: model.NotificationCoordinationState,
}

// Заголовок и текст уведомления по типу события
func notificationText(eventType, op string) (string, string) {
	switch eventType {
	case model.NotificationPartnerRequest:
		if op == "INSERT" {
			return "Partner request", "You have a new partner request"
		}
		return "Partner request", "A partner request was updated"
	case model.NotificationSessionProposal:
		if op == "INSERT" {
			return "Session proposal", "You have a new session proposal"
		}
		return "Session proposal", "A session proposal was updated"
	case model.NotificationSession:
		if op == "INSERT" {
			return "Session confirmed", "A training session was confirmed"
		}
		return "Session update", "A training session was updated"
	case model.NotificationAvailability:
		return "Availability update", "Availability has changed"
	case model.NotificationCoordinationState:
		return "Coordination update", "Your coordination status has changed"
	}
	return "Update", "Something changed"
}
