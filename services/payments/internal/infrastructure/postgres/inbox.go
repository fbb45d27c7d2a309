package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// markInboxTx records a consumed message_id inside the processing transaction.
// Returns false when the id was already recorded.
func markInboxTx(ctx context.Context, tx pgx.Tx, messageID string, payload []byte) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO inbox (message_id, payload)
		VALUES ($1, $2)
		ON CONFLICT (message_id) DO NOTHING
	`, messageID, payload)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
