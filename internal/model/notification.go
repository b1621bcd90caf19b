package model

import (
	"encoding/json"
	"time"
)

// Notification types emitted by the change feed
const (
	NotificationPartnerRequest    = "partner_request_update"
	NotificationSessionProposal   = "session_proposal_update"
	NotificationSession           = "session_update"
	NotificationAvailability      = "availability_update"
	NotificationCoordinationState = "coordination_state_update"
)

// Notification is a durable per-user notification row.
// Append-only; only the read marker is ever mutated.
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}
