package model

import "time"

type SessionStatus string

const (
	SessionStatusConfirmed SessionStatus = "confirmed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is a confirmed training session between exactly two partners.
// Created only as a side effect of accepting a proposal.
type Session struct {
	ID         int64         `json:"id"`
	UserAID    int64         `json:"user_a_id"`
	UserBID    int64         `json:"user_b_id"`
	Date       time.Time     `json:"date"`
	StartUnit  int           `json:"start_unit"`
	EndUnit    int           `json:"end_unit"`
	Status     SessionStatus `json:"status"`
	ProposalID *int64        `json:"proposal_id"`
	CreatedAt  time.Time     `json:"created_at"`
}

// HasParticipant checks if the given user takes part in the session
func (s *Session) HasParticipant(userID int64) bool {
	return s.UserAID == userID || s.UserBID == userID
}
