package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/gympartner_bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChangeEventRepository struct {
	pool *pgxpool.Pool
}

func NewChangeEventRepository(pool *pgxpool.Pool) *ChangeEventRepository {
	return &ChangeEventRepository{pool: pool}
}

// GetUnprocessed получает необработанные события outbox в порядке записи
func (r *ChangeEventRepository) GetUnprocessed(ctx context.Context, maxAttempts, limit int) ([]*model.ChangeEvent, error) {
	query := `
		SELECT id, entity, entity_id, op, payload, attempts, occurred_at, processed_at
		FROM change_events
		WHERE processed_at IS NULL AND attempts < $1
		ORDER BY id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*model.ChangeEvent
	for rows.Next() {
		var ev model.ChangeEvent
		err := rows.Scan(
			&ev.ID,
			&ev.Entity,
			&ev.EntityID,
			&ev.Op,
			&ev.Payload,
			&ev.Attempts,
			&ev.OccurredAt,
			&ev.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan change event: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change events: %w", err)
	}

	return events, nil
}

// MarkProcessed помечает событие обработанным
func (r *ChangeEventRepository) MarkProcessed(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE change_events SET processed_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}

	return nil
}

// IncrementAttempts увеличивает счётчик неудачных попыток обработки
func (r *ChangeEventRepository) IncrementAttempts(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE change_events SET attempts = attempts + 1 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment event attempts: %w", err)
	}

	return nil
}
