package model

import "time"

type CoordinationPhase string

const (
	PhaseWaitingAvailability CoordinationPhase = "waiting_availability"
	PhaseAvailabilityReady   CoordinationPhase = "availability_ready"
	PhaseSessionsConfirmed   CoordinationPhase = "sessions_confirmed"
)

// CoordinationState is an advisory per-pair phase label for UI convenience.
// The pair is stored ordered: user_a_id < user_b_id.
type CoordinationState struct {
	ID        int64             `json:"id"`
	UserAID   int64             `json:"user_a_id"`
	UserBID   int64             `json:"user_b_id"`
	Phase     CoordinationPhase `json:"phase"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// OrderPair возвращает пару идентификаторов в каноническом порядке (меньший первым)
func OrderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}
