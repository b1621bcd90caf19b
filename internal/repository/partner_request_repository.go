package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `id, requester_id, target_id, status, message, response, created_at, responded_at`

type PartnerRequestRepository struct {
	pool *pgxpool.Pool
}

func NewPartnerRequestRepository(pool *pgxpool.Pool) *PartnerRequestRepository {
	return &PartnerRequestRepository{pool: pool}
}

func scanRequest(row pgx.Row) (*model.PartnerRequest, error) {
	var req model.PartnerRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.TargetID,
		&req.Status,
		&req.Message,
		&req.Response,
		&req.CreatedAt,
		&req.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create создаёт заявку на партнёрство
func (r *PartnerRequestRepository) Create(ctx context.Context, req *model.PartnerRequest) error {
	query := `
		INSERT INTO partner_requests (requester_id, target_id, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		req.RequesterID,
		req.TargetID,
		req.Status,
		req.Message,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create partner request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *PartnerRequestRepository) GetByID(ctx context.Context, id int64) (*model.PartnerRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM partner_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner request: %w", err)
	}

	return req, nil
}

// HasPendingBetween проверяет, есть ли активная заявка между парой в любом направлении
func (r *PartnerRequestRepository) HasPendingBetween(ctx context.Context, userA, userB int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM partner_requests
			WHERE status = $1
			  AND ((requester_id = $2 AND target_id = $3) OR (requester_id = $3 AND target_id = $2))
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, model.RequestStatusPending, userA, userB).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}

	return exists, nil
}

// GetPendingForTarget получает входящие pending заявки пользователя
func (r *PartnerRequestRepository) GetPendingForTarget(ctx context.Context, targetID int64) ([]*model.PartnerRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM partner_requests
		WHERE target_id = $1 AND status = $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, targetID, model.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("get pending requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.PartnerRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}

	return requests, nil
}

// Accept принимает заявку и связывает обе стороны одной транзакцией:
// CAS статуса pending -> accepted, обе partner_id ссылки и начальная
// фаза координации. Возвращает false, если заявка уже не pending или
// одна из сторон уже связана с кем-то.
func (r *PartnerRequestRepository) Accept(ctx context.Context, req *model.PartnerRequest, response string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	tag, err := tx.Exec(ctx, `
		UPDATE partner_requests
		SET status = $1, response = $2, responded_at = $3
		WHERE id = $4 AND status = $5
	`, model.RequestStatusAccepted, response, now, req.ID, model.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("accept request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Заявку уже обработали параллельно
		return false, nil
	}

	// Связываем только свободные стороны: занятая откатывает всю транзакцию,
	// чтобы не разорвать чужую симметричную пару
	tag, err = tx.Exec(ctx, `
		UPDATE users SET partner_id = $1
		WHERE id = $2 AND partner_id IS NULL
	`, req.TargetID, req.RequesterID)
	if err != nil {
		return false, fmt.Errorf("link requester: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE users SET partner_id = $1
		WHERE id = $2 AND partner_id IS NULL
	`, req.RequesterID, req.TargetID)
	if err != nil {
		return false, fmt.Errorf("link target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	userA, userB := model.OrderPair(req.RequesterID, req.TargetID)
	_, err = tx.Exec(ctx, `
		INSERT INTO coordination_states (user_a_id, user_b_id, phase)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_a_id, user_b_id)
		DO UPDATE SET phase = EXCLUDED.phase, updated_at = now()
	`, userA, userB, model.PhaseWaitingAvailability)
	if err != nil {
		return false, fmt.Errorf("init coordination state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	req.Status = model.RequestStatusAccepted
	req.Response = response
	req.RespondedAt = &now

	return true, nil
}

// Reject отклоняет заявку. Возвращает false, если заявка уже не pending.
func (r *PartnerRequestRepository) Reject(ctx context.Context, req *model.PartnerRequest, response string) (bool, error) {
	now := time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE partner_requests
		SET status = $1, response = $2, responded_at = $3
		WHERE id = $4 AND status = $5
	`, model.RequestStatusRejected, response, now, req.ID, model.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("reject request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	req.Status = model.RequestStatusRejected
	req.Response = response
	req.RespondedAt = &now

	return true, nil
}
