package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	userStore UserStore
	slotStore AvailabilityStore
	logger    *zap.Logger
}

func NewAvailabilityService(
	userStore UserStore,
	slotStore AvailabilityStore,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		userStore: userStore,
		slotStore: slotStore,
		logger:    logger,
	}
}

// SetSlots заменяет недельную доступность пользователя целиком
func (s *AvailabilityService) SetSlots(ctx context.Context, userID int64, slots []model.AvailabilitySlot) error {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	for _, slot := range slots {
		if !slot.Valid() {
			return fmt.Errorf("%w: day %d units %d-%d", ErrInvalidDuration, slot.Day, slot.StartUnit, slot.EndUnit)
		}
	}

	if err := s.slotStore.ReplaceForUser(ctx, userID, slots); err != nil {
		return fmt.Errorf("replace slots: %w", err)
	}

	s.logger.Info("Availability updated",
		zap.Int64("user_id", userID),
		zap.Int("slot_count", len(slots)),
	)

	return nil
}

// ListSlots получает слоты доступности пользователя
func (s *AvailabilityService) ListSlots(ctx context.Context, userID int64) ([]model.AvailabilitySlot, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	return s.slotStore.GetByUserID(ctx, userID)
}

// ClearDay удаляет все слоты пользователя за день недели
func (s *AvailabilityService) ClearDay(ctx context.Context, userID int64, day int) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("%w: day %d", ErrInvalidDuration, day)
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	return s.slotStore.DeleteDay(ctx, userID, day)
}
