package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create добавляет запись в журнал уведомлений
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.Payload,
	).Scan(&n.ID, &n.CreatedAt)

	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// GetByUserID получает уведомления пользователя, новые первыми
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID int64, onlyUnread bool, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, onlyUnread, limit)
	if err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Payload,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread подсчитывает непрочитанные уведомления пользователя
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`

	var count int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}

	return count, nil
}

// MarkRead помечает уведомления пользователя прочитанными
func (r *NotificationRepository) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND id = ANY($2)
	`, userID, ids)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	return nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	return nil
}
