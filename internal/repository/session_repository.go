package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_a_id, user_b_id, date, start_unit, end_unit, status, proposal_id, created_at`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.UserAID,
		&s.UserBID,
		&s.Date,
		&s.StartUnit,
		&s.EndUnit,
		&s.Status,
		&s.ProposalID,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return s, nil
}

// GetUpcomingForUser получает подтверждённые сессии пользователя начиная с даты
func (r *SessionRepository) GetUpcomingForUser(ctx context.Context, userID int64) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE (user_a_id = $1 OR user_b_id = $1) AND status = $2 AND date >= CURRENT_DATE
		ORDER BY date, start_unit
	`

	rows, err := r.pool.Query(ctx, query, userID, model.SessionStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("get upcoming sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Cancel отменяет подтверждённую сессию. Возвращает false, если сессия
// уже не confirmed.
func (r *SessionRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = $1
		WHERE id = $2 AND status = $3
	`, model.SessionStatusCancelled, id, model.SessionStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
