package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const proposalColumns = `id, proposer_id, partner_id, date, start_unit, end_unit, status, message, response, parent_proposal_id, session_id, created_at, updated_at`

type ProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{pool: pool}
}

func scanProposal(row pgx.Row) (*model.SessionProposal, error) {
	var p model.SessionProposal
	err := row.Scan(
		&p.ID,
		&p.ProposerID,
		&p.PartnerID,
		&p.Date,
		&p.StartUnit,
		&p.EndUnit,
		&p.Status,
		&p.Message,
		&p.Response,
		&p.ParentProposalID,
		&p.SessionID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create создаёт новое предложение сессии
func (r *ProposalRepository) Create(ctx context.Context, p *model.SessionProposal) error {
	query := `
		INSERT INTO session_proposals (proposer_id, partner_id, date, start_unit, end_unit, status, message, parent_proposal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		p.ProposerID,
		p.PartnerID,
		p.Date,
		p.StartUnit,
		p.EndUnit,
		p.Status,
		p.Message,
		p.ParentProposalID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}

	return nil
}

// GetByID получает предложение по ID
func (r *ProposalRepository) GetByID(ctx context.Context, id int64) (*model.SessionProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM session_proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}

	return p, nil
}

// GetPendingForUser получает pending предложения, где пользователь участвует
// с любой стороны
func (r *ProposalRepository) GetPendingForUser(ctx context.Context, userID int64) ([]*model.SessionProposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM session_proposals
		WHERE status = $1 AND (proposer_id = $2 OR partner_id = $2)
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, model.ProposalStatusPending, userID)
	if err != nil {
		return nil, fmt.Errorf("get pending proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.SessionProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}

	return proposals, nil
}

// Accept принимает предложение и создаёт подтверждённую сессию одной
// транзакцией. CAS статуса гарантирует ровно одного победителя при
// конкурентных ответах: проигравший получает false и ни одной сессии.
func (r *ProposalRepository) Accept(ctx context.Context, p *model.SessionProposal, response string) (*model.Session, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE session_proposals
		SET status = $1, response = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, model.ProposalStatusAccepted, response, p.ID, model.ProposalStatusPending)
	if err != nil {
		return nil, false, fmt.Errorf("accept proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, false, nil
	}

	session := &model.Session{
		UserAID:    p.ProposerID,
		UserBID:    p.PartnerID,
		Date:       p.Date,
		StartUnit:  p.StartUnit,
		EndUnit:    p.EndUnit,
		Status:     model.SessionStatusConfirmed,
		ProposalID: &p.ID,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO sessions (user_a_id, user_b_id, date, start_unit, end_unit, status, proposal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, session.UserAID, session.UserBID, session.Date, session.StartUnit, session.EndUnit, session.Status, session.ProposalID,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE session_proposals SET session_id = $1 WHERE id = $2
	`, session.ID, p.ID)
	if err != nil {
		return nil, false, fmt.Errorf("link session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}

	p.Status = model.ProposalStatusAccepted
	p.Response = response
	p.SessionID = &session.ID

	return session, true, nil
}

// TransitionStatus переводит предложение из pending в терминальный статус.
// Возвращает false, если предложение уже не pending.
func (r *ProposalRepository) TransitionStatus(ctx context.Context, id int64, to model.ProposalStatus, response string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE session_proposals
		SET status = $1, response = $2, updated_at = now()
		WHERE id = $3 AND status = $4
	`, to, response, id, model.ProposalStatusPending)
	if err != nil {
		return false, fmt.Errorf("transition proposal status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Counter помечает исходное предложение как counter_proposed и создаёт
// встречное pending предложение с обратными ролями одной транзакцией.
func (r *ProposalRepository) Counter(ctx context.Context, original *model.SessionProposal, counter *model.SessionProposal) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE session_proposals
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, model.ProposalStatusCounterProposed, original.ID, model.ProposalStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark counter proposed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO session_proposals (proposer_id, partner_id, date, start_unit, end_unit, status, message, parent_proposal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, counter.ProposerID, counter.PartnerID, counter.Date, counter.StartUnit, counter.EndUnit, counter.Status, counter.Message, counter.ParentProposalID,
	).Scan(&counter.ID, &counter.CreatedAt, &counter.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("create counter proposal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	original.Status = model.ProposalStatusCounterProposed

	return true, nil
}
