package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderpay/orderpay/internal/contracts/event"
	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/services/orders/internal/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the service tables if they do not exist. Migration
// tooling is an external concern; this keeps a fresh database usable.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL,
			amount      BIGINT NOT NULL CHECK (amount > 0),
			description TEXT,
			status      TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS outbox (
			id           BIGSERIAL PRIMARY KEY,
			event_type   TEXT NOT NULL,
			aggregate_id BIGINT NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			published_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS outbox_unpublished_idx ON outbox (id) WHERE published_at IS NULL;

		CREATE TABLE IF NOT EXISTS inbox (
			id          BIGSERIAL PRIMARY KEY,
			message_id  TEXT NOT NULL UNIQUE,
			payload     JSONB NOT NULL,
			received_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

// CreateOrder inserts the order row and its PaymentRequested outbox row in the
// same transaction. The message_id is minted here because this is the
// originating event of the request/reply chain.
func (r *Repository) CreateOrder(ctx context.Context, userID, amount int64, description *string) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := &domain.Order{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Status:      domain.StatusNew,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, amount, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, userID, amount, description, string(domain.StatusNew)).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(event.PaymentRequested{
		MessageID: uuid.NewString(),
		OrderID:   o.ID,
		UserID:    userID,
		Amount:    amount,
	})
	if err != nil {
		return nil, err
	}
	if err := insertOutboxTx(ctx, tx, event.TypePaymentRequested, o.ID, payload); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, amount, description, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.UserID, &o.Amount, &o.Description, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount, description, status, created_at, updated_at
		FROM orders
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Amount, &o.Description, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ApplyPaymentResult processes one payment.result delivery inside a single
// transaction: inbox fence, guarded status transition, OrderStatusChanged
// outbox row. Returns processed=false when the message is a duplicate.
func (r *Repository) ApplyPaymentResult(ctx context.Context, msg event.PaymentResult, raw []byte) (bool, error) {
	newStatus := domain.StatusCancelled
	if msg.Status == event.StatusSuccess {
		newStatus = domain.StatusPaid
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, err := markInboxTx(ctx, tx, msg.MessageID, raw)
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}

	// Only NEW orders transition; anything else was already decided.
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, msg.OrderID, string(newStatus), string(domain.StatusNew))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Either the order is unknown (should not happen: the originating
		// write precedes the outbox write) or it already left NEW.
		logger.Logger.Warn().
			Int64("order_id", msg.OrderID).
			Str("status", string(newStatus)).
			Msg("payment result matched no NEW order")
	}

	payload, err := json.Marshal(event.OrderStatusChanged{
		OrderID: msg.OrderID,
		Status:  string(newStatus),
	})
	if err != nil {
		return false, err
	}
	if err := insertOutboxTx(ctx, tx, event.TypeOrderStatusChanged, msg.OrderID, payload); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
