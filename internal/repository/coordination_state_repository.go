package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoordinationStateRepository struct {
	pool *pgxpool.Pool
}

func NewCoordinationStateRepository(pool *pgxpool.Pool) *CoordinationStateRepository {
	return &CoordinationStateRepository{pool: pool}
}

// GetByPair получает состояние координации пары (порядок аргументов не важен)
func (r *CoordinationStateRepository) GetByPair(ctx context.Context, userA, userB int64) (*model.CoordinationState, error) {
	a, b := model.OrderPair(userA, userB)

	query := `
		SELECT id, user_a_id, user_b_id, phase, updated_at
		FROM coordination_states
		WHERE user_a_id = $1 AND user_b_id = $2
	`

	var state model.CoordinationState
	err := r.pool.QueryRow(ctx, query, a, b).Scan(
		&state.ID,
		&state.UserAID,
		&state.UserBID,
		&state.Phase,
		&state.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coordination state: %w", err)
	}

	return &state, nil
}

// SetPhase выставляет фазу пары, создавая запись при необходимости
func (r *CoordinationStateRepository) SetPhase(ctx context.Context, userA, userB int64, phase model.CoordinationPhase) error {
	a, b := model.OrderPair(userA, userB)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO coordination_states (user_a_id, user_b_id, phase)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_a_id, user_b_id)
		DO UPDATE SET phase = EXCLUDED.phase, updated_at = now()
	`, a, b, phase)
	if err != nil {
		return fmt.Errorf("set coordination phase: %w", err)
	}

	return nil
}
