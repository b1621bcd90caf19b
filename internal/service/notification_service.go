package service

import (
	"context"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
)

const defaultNotificationLimit = 50

// NotificationService читает журнал уведомлений. Записи в журнал делает
// только слушатель change feed.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// List получает уведомления пользователя, новые первыми
func (s *NotificationService) List(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return s.store.GetByUserID(ctx, userID, onlyUnread, limit)
}

// CountUnread подсчитывает непрочитанные уведомления
func (s *NotificationService) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkRead помечает выбранные уведомления прочитанными
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	return s.store.MarkRead(ctx, userID, ids)
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.store.MarkAllRead(ctx, userID)
}
