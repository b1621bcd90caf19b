package model

import "time"

// PartnerRequest represents one user's request to become another user's gym partner
type PartnerRequest struct {
	ID          int64      `json:"id"`
	RequesterID int64      `json:"requester_id"`
	TargetID    int64      `json:"target_id"`
	Status      string     `json:"status"` // 'pending', 'accepted', 'rejected'
	Message     string     `json:"message"`
	Response    string     `json:"response"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at"`
}

// Request status constants
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// IsPending checks if request is pending
func (r *PartnerRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// IsAccepted checks if request is accepted
func (r *PartnerRequest) IsAccepted() bool {
	return r.Status == RequestStatusAccepted
}

// IsRejected checks if request is rejected
func (r *PartnerRequest) IsRejected() bool {
	return r.Status == RequestStatusRejected
}
