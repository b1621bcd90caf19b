package model

import "time"

type ProposalStatus string

const (
	ProposalStatusPending         ProposalStatus = "pending"          // Ожидает ответа партнёра
	ProposalStatusAccepted        ProposalStatus = "accepted"         // Принято, сессия создана
	ProposalStatusRejected        ProposalStatus = "rejected"         // Отклонено
	ProposalStatusCounterProposed ProposalStatus = "counter_proposed" // Заменено встречным предложением
	ProposalStatusCancelled       ProposalStatus = "cancelled"        // Отменено автором
)

// Минимальная длительность сессии: 4 юнита = 2 часа
const MinSessionUnits = 4

type SessionProposal struct {
	ID               int64          `json:"id"`
	ProposerID       int64          `json:"proposer_id"`
	PartnerID        int64          `json:"partner_id"`
	Date             time.Time      `json:"date"`
	StartUnit        int            `json:"start_unit"`
	EndUnit          int            `json:"end_unit"`
	Status           ProposalStatus `json:"status"`
	Message          string         `json:"message"`
	Response         string         `json:"response"`
	ParentProposalID *int64         `json:"parent_proposal_id"` // заполнено у встречных предложений
	SessionID        *int64         `json:"session_id"`         // заполнено после принятия
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsPending checks if the proposal still awaits a decision
func (p *SessionProposal) IsPending() bool {
	return p.Status == ProposalStatusPending
}

// IsCounter reports whether this proposal was created as a counter-proposal
func (p *SessionProposal) IsCounter() bool {
	return p.ParentProposalID != nil
}

// DurationUnits возвращает длительность предложения в юнитах
func (p *SessionProposal) DurationUnits() int {
	return p.EndUnit - p.StartUnit
}
