package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// GetByUserID получает все слоты доступности пользователя
func (r *AvailabilityRepository) GetByUserID(ctx context.Context, userID int64) ([]model.AvailabilitySlot, error) {
	query := `
		SELECT id, user_id, day, start_unit, end_unit, created_at
		FROM availability_slots
		WHERE user_id = $1
		ORDER BY day, start_unit
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get slots by user: %w", err)
	}
	defer rows.Close()

	var slots []model.AvailabilitySlot
	for rows.Next() {
		var slot model.AvailabilitySlot
		err := rows.Scan(
			&slot.ID,
			&slot.UserID,
			&slot.Day,
			&slot.StartUnit,
			&slot.EndUnit,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// ReplaceForUser заменяет всю неделю пользователя одной транзакцией
func (r *AvailabilityRepository) ReplaceForUser(ctx context.Context, userID int64, slots []model.AvailabilitySlot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM availability_slots WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear slots: %w", err)
	}

	for i := range slots {
		err := tx.QueryRow(ctx, `
			INSERT INTO availability_slots (user_id, day, start_unit, end_unit)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, userID, slots[i].Day, slots[i].StartUnit, slots[i].EndUnit,
		).Scan(&slots[i].ID, &slots[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
		slots[i].UserID = userID
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteDay удаляет все слоты пользователя за день
func (r *AvailabilityRepository) DeleteDay(ctx context.Context, userID int64, day int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM availability_slots
		WHERE user_id = $1 AND day = $2
	`, userID, day)
	if err != nil {
		return fmt.Errorf("delete day slots: %w", err)
	}

	return nil
}

// HasAny проверяет, есть ли у пользователя хоть один слот
func (r *AvailabilityRepository) HasAny(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM availability_slots WHERE user_id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slots: %w", err)
	}

	return exists, nil
}
