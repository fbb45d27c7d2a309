package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/orderpay/orderpay/internal/outbox"
)

// insertOutboxTx appends a pending event row. Must run inside the transaction
// that performs the state change the event describes.
func insertOutboxTx(ctx context.Context, tx pgx.Tx, eventType string, aggregateID int64, payload []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (event_type, aggregate_id, payload)
		VALUES ($1, $2, $3)
	`, eventType, aggregateID, payload)
	return err
}

// FetchUnpublished implements outbox.Store.
func (r *Repository) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []outbox.Row
	for rows.Next() {
		var row outbox.Row
		if err := rows.Scan(&row.ID, &row.EventType, &row.AggregateID, &row.Payload); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished implements outbox.Store. published_at is write-once; rows are
// retained for audit.
func (r *Repository) MarkPublished(ctx context.Context, ids []int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox
		SET published_at = now()
		WHERE id = ANY($1) AND published_at IS NULL
	`, ids)
	return err
}
