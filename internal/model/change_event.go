package model

import (
	"encoding/json"
	"time"
)

// Entity names tracked by the change feed (table names)
const (
	EntityAvailabilitySlot  = "availability_slots"
	EntityPartnerRequest    = "partner_requests"
	EntitySessionProposal   = "session_proposals"
	EntitySession           = "sessions"
	EntityCoordinationState = "coordination_states"
)

// ChangeEvent is one outbox row written by the database triggers.
// Processed rows keep their payload for debugging; the listener only
// ever reads rows with processed_at IS NULL.
type ChangeEvent struct {
	ID          int64           `json:"id"`
	Entity      string          `json:"entity"`
	EntityID    int64           `json:"entity_id"`
	Op          string          `json:"op"` // 'INSERT' или 'UPDATE'
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	OccurredAt  time.Time       `json:"occurred_at"`
	ProcessedAt *time.Time      `json:"processed_at"`
}
