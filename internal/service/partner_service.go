package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"go.uber.org/zap"
)

type PartnerService struct {
	userStore    UserStore
	requestStore PartnerRequestStore
	logger       *zap.Logger
}

func NewPartnerService(
	userStore UserStore,
	requestStore PartnerRequestStore,
	logger *zap.Logger,
) *PartnerService {
	return &PartnerService{
		userStore:    userStore,
		requestStore: requestStore,
		logger:       logger,
	}
}

// FindByIdentifier находит пользователя по любому контактному идентификатору:
// email или Telegram ID
func (s *PartnerService) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if telegramID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		user, err := s.userStore.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := s.userStore.GetByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, identifier)
	}

	return user, nil
}

// SendRequest создаёт заявку на партнёрство
func (s *PartnerService) SendRequest(ctx context.Context, requesterID, targetID int64, message string) (*model.PartnerRequest, error) {
	if requesterID == targetID {
		return nil, fmt.Errorf("%w: cannot request yourself", ErrInvalidState)
	}

	requester, err := s.userStore.GetByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}
	if requester == nil {
		return nil, fmt.Errorf("%w: requester %d", ErrNotFound, requesterID)
	}

	target, err := s.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: target %d", ErrNotFound, targetID)
	}

	// Партнёр может быть только один: занятая сторона блокирует заявку
	if requester.HasPartner() || target.HasPartner() {
		return nil, ErrAlreadyPartners
	}

	// Между парой может быть только одна активная заявка, в любом направлении
	hasPending, err := s.requestStore.HasPendingBetween(ctx, requesterID, targetID)
	if err != nil {
		return nil, fmt.Errorf("check pending: %w", err)
	}
	if hasPending {
		return nil, ErrDuplicateRequest
	}

	req := &model.PartnerRequest{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.RequestStatusPending,
		Message:     message,
	}

	if err := s.requestStore.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("Partner request sent",
		zap.Int64("request_id", req.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("target_id", targetID),
	)

	return req, nil
}

// Respond принимает или отклоняет заявку. Принятие атомарно связывает обе
// стороны и создаёт начальное состояние координации пары.
func (s *PartnerService) Respond(ctx context.Context, requestID, responderID int64, accept bool, message string) (*model.PartnerRequest, error) {
	req, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	// Отвечать может только адресат заявки
	if req.TargetID != responderID {
		return nil, ErrUnauthorized
	}

	if !req.IsPending() {
		return nil, fmt.Errorf("%w: request already %s", ErrInvalidState, req.Status)
	}

	var swapped bool
	if accept {
		swapped, err = s.requestStore.Accept(ctx, req, message)
	} else {
		swapped, err = s.requestStore.Reject(ctx, req, message)
	}
	if err != nil {
		return nil, fmt.Errorf("respond to request: %w", err)
	}
	if !swapped {
		// Либо параллельный ответ успел раньше, либо принятие упёрлось в
		// уже занятую сторону - различаем по статусу заявки
		current, err := s.requestStore.GetByID(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("get request: %w", err)
		}
		if current != nil && current.IsPending() {
			return nil, ErrAlreadyPartners
		}
		return nil, fmt.Errorf("%w: request already responded", ErrInvalidState)
	}

	s.logger.Info("Partner request responded",
		zap.Int64("request_id", requestID),
		zap.Int64("responder_id", responderID),
		zap.Bool("accepted", accept),
	)

	return req, nil
}

// Unlink разрывает партнёрскую связь пользователя
func (s *PartnerService) Unlink(ctx context.Context, userID int64) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if user.PartnerID == nil {
		return ErrNoPartner
	}

	if err := s.userStore.Unlink(ctx, userID, *user.PartnerID); err != nil {
		return fmt.Errorf("unlink: %w", err)
	}

	s.logger.Info("Partners unlinked",
		zap.Int64("user_id", userID),
		zap.Int64("partner_id", *user.PartnerID),
	)

	return nil
}

// GetPendingRequests получает входящие pending заявки пользователя
func (s *PartnerService) GetPendingRequests(ctx context.Context, targetID int64) ([]*model.PartnerRequest, error) {
	return s.requestStore.GetPendingForTarget(ctx, targetID)
}
