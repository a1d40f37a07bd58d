package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careloop/booking-api/internal/model"
)

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return createOutboxEventTx(ctx, tx, event)
	})
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, retry_count,
			   retry_at, created_at, processed_at, updated_at
		FROM outbox_events
		WHERE status = $1
		AND (retry_at IS NULL OR retry_at <= NOW())
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $2
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, processed_at = $2, updated_at = $2
		WHERE id = $3
	`, model.OutboxStatusProcessed, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	// A retry time keeps the event pending; without one it is final.
	status := model.OutboxStatusFailed
	if retryAt != nil {
		status = model.OutboxStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = retry_count + 1,
			retry_at = $3, updated_at = $4
		WHERE id = $5
	`, status, errMsg, retryAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
