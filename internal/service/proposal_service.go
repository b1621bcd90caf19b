package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"go.uber.org/zap"
)

type ProposalService struct {
	userStore     UserStore
	proposalStore ProposalStore
	sessionStore  SessionStore
	logger        *zap.Logger
}

func NewProposalService(
	userStore UserStore,
	proposalStore ProposalStore,
	sessionStore SessionStore,
	logger *zap.Logger,
) *ProposalService {
	return &ProposalService{
		userStore:     userStore,
		proposalStore: proposalStore,
		sessionStore:  sessionStore,
		logger:        logger,
	}
}

// Propose создаёт предложение сессии текущему партнёру автора
func (s *ProposalService) Propose(ctx context.Context, proposerID int64, date time.Time, startUnit, endUnit int, message string) (*model.SessionProposal, error) {
	proposer, err := s.userStore.GetByID(ctx, proposerID)
	if err != nil {
		return nil, fmt.Errorf("get proposer: %w", err)
	}
	if proposer == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, proposerID)
	}
	if proposer.PartnerID == nil {
		return nil, ErrNoPartner
	}

	if err := validateWindow(startUnit, endUnit); err != nil {
		return nil, err
	}

	proposal := &model.SessionProposal{
		ProposerID: proposerID,
		PartnerID:  *proposer.PartnerID,
		Date:       date,
		StartUnit:  startUnit,
		EndUnit:    endUnit,
		Status:     model.ProposalStatusPending,
		Message:    message,
	}

	if err := s.proposalStore.Create(ctx, proposal); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	s.logger.Info("Session proposed",
		zap.Int64("proposal_id", proposal.ID),
		zap.Int64("proposer_id", proposerID),
		zap.Int64("partner_id", proposal.PartnerID),
		zap.Time("date", date),
	)

	return proposal, nil
}

// Respond принимает или отклоняет предложение. Принятие атомарно создаёт
// подтверждённую сессию; при конкурентных ответах побеждает ровно один.
func (s *ProposalService) Respond(ctx context.Context, proposalID, userID int64, accept bool, message string) (*model.SessionProposal, *model.Session, error) {
	proposal, err := s.loadPendingForPartner(ctx, proposalID, userID)
	if err != nil {
		return nil, nil, err
	}

	if accept {
		session, swapped, err := s.proposalStore.Accept(ctx, proposal, message)
		if err != nil {
			return nil, nil, fmt.Errorf("accept proposal: %w", err)
		}
		if !swapped {
			return nil, nil, fmt.Errorf("%w: proposal already responded", ErrInvalidState)
		}

		s.logger.Info("Proposal accepted",
			zap.Int64("proposal_id", proposalID),
			zap.Int64("session_id", session.ID),
		)

		return proposal, session, nil
	}

	swapped, err := s.proposalStore.TransitionStatus(ctx, proposalID, model.ProposalStatusRejected, message)
	if err != nil {
		return nil, nil, fmt.Errorf("reject proposal: %w", err)
	}
	if !swapped {
		return nil, nil, fmt.Errorf("%w: proposal already responded", ErrInvalidState)
	}

	proposal.Status = model.ProposalStatusRejected
	proposal.Response = message

	s.logger.Info("Proposal rejected", zap.Int64("proposal_id", proposalID))

	return proposal, nil, nil
}

// CounterPropose отклоняет исходное предложение в пользу встречного:
// исходное становится counter_proposed, встречное создаётся pending с
// обратными ролями и ссылкой на родителя.
func (s *ProposalService) CounterPropose(ctx context.Context, proposalID, userID int64, date time.Time, startUnit, endUnit int, message string) (*model.SessionProposal, error) {
	proposal, err := s.loadPendingForPartner(ctx, proposalID, userID)
	if err != nil {
		return nil, err
	}

	if err := validateWindow(startUnit, endUnit); err != nil {
		return nil, err
	}

	counter := &model.SessionProposal{
		ProposerID:       proposal.PartnerID,
		PartnerID:        proposal.ProposerID,
		Date:             date,
		StartUnit:        startUnit,
		EndUnit:          endUnit,
		Status:           model.ProposalStatusPending,
		Message:          message,
		ParentProposalID: &proposal.ID,
	}

	swapped, err := s.proposalStore.Counter(ctx, proposal, counter)
	if err != nil {
		return nil, fmt.Errorf("counter propose: %w", err)
	}
	if !swapped {
		return nil, fmt.Errorf("%w: proposal already responded", ErrInvalidState)
	}

	s.logger.Info("Counter proposal created",
		zap.Int64("original_id", proposalID),
		zap.Int64("counter_id", counter.ID),
	)

	return counter, nil
}

// Cancel отменяет pending предложение. Доступно только автору.
func (s *ProposalService) Cancel(ctx context.Context, proposalID, userID int64) error {
	proposal, err := s.proposalStore.GetByID(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("get proposal: %w", err)
	}
	if proposal == nil {
		return fmt.Errorf("%w: proposal %d", ErrNotFound, proposalID)
	}

	if proposal.ProposerID != userID {
		return ErrUnauthorized
	}
	if !proposal.IsPending() {
		return fmt.Errorf("%w: proposal is %s", ErrInvalidState, proposal.Status)
	}

	swapped, err := s.proposalStore.TransitionStatus(ctx, proposalID, model.ProposalStatusCancelled, "")
	if err != nil {
		return fmt.Errorf("cancel proposal: %w", err)
	}
	if !swapped {
		return fmt.Errorf("%w: proposal already responded", ErrInvalidState)
	}

	s.logger.Info("Proposal cancelled", zap.Int64("proposal_id", proposalID))

	return nil
}

// CancelSession отменяет подтверждённую сессию. Доступно любому участнику.
func (s *ProposalService) CancelSession(ctx context.Context, sessionID, userID int64) error {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	if !session.HasParticipant(userID) {
		return ErrUnauthorized
	}
	if session.Status != model.SessionStatusConfirmed {
		return fmt.Errorf("%w: session is %s", ErrInvalidState, session.Status)
	}

	cancelled, err := s.sessionStore.Cancel(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}
	if !cancelled {
		return fmt.Errorf("%w: session already cancelled", ErrInvalidState)
	}

	s.logger.Info("Session cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", userID),
	)

	return nil
}

// GetPendingProposals получает pending предложения с участием пользователя
func (s *ProposalService) GetPendingProposals(ctx context.Context, userID int64) ([]*model.SessionProposal, error) {
	return s.proposalStore.GetPendingForUser(ctx, userID)
}

// GetUpcomingSessions получает предстоящие подтверждённые сессии пользователя
func (s *ProposalService) GetUpcomingSessions(ctx context.Context, userID int64) ([]*model.Session, error) {
	return s.sessionStore.GetUpcomingForUser(ctx, userID)
}

// loadPendingForPartner загружает предложение и проверяет, что отвечает
// именно адресат и предложение ещё pending
func (s *ProposalService) loadPendingForPartner(ctx context.Context, proposalID, userID int64) (*model.SessionProposal, error) {
	proposal, err := s.proposalStore.GetByID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("%w: proposal %d", ErrNotFound, proposalID)
	}

	if proposal.PartnerID != userID {
		return nil, ErrUnauthorized
	}
	if !proposal.IsPending() {
		return nil, fmt.Errorf("%w: proposal is %s", ErrInvalidState, proposal.Status)
	}

	return proposal, nil
}

func validateWindow(startUnit, endUnit int) error {
	if startUnit < 0 || endUnit > model.UnitsPerDay {
		return fmt.Errorf("%w: units %d-%d out of range", ErrInvalidDuration, startUnit, endUnit)
	}
	if endUnit-startUnit < model.MinSessionUnits {
		return fmt.Errorf("%w: %d units, need at least %d", ErrInvalidDuration, endUnit-startUnit, model.MinSessionUnits)
	}
	return nil
}
