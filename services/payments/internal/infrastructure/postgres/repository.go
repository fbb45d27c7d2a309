package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderpay/orderpay/internal/contracts/event"
	"github.com/orderpay/orderpay/services/payments/internal/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL UNIQUE,
			balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS payment_transactions (
			id         BIGSERIAL PRIMARY KEY,
			order_id   BIGINT NOT NULL UNIQUE,
			user_id    BIGINT NOT NULL,
			amount     BIGINT NOT NULL,
			status     TEXT NOT NULL,
			reason     TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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

func (r *Repository) CreateAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	a := &domain.Account{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, balance, created_at, updated_at
	`, userID).Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountExists
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`, userID).Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, balance, created_at, updated_at
		FROM accounts
		ORDER BY user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) TopUp(ctx context.Context, userID, amount int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $2, updated_at = now()
		WHERE user_id = $1
		RETURNING balance
	`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ProcessPaymentRequested decides one payment inside a single transaction:
// inbox fence, decision-per-order fence, conditional debit, transaction record,
// PaymentResult outbox row reusing the inbound message_id. Returns
// processed=false for duplicates.
func (r *Repository) ProcessPaymentRequested(ctx context.Context, msg event.PaymentRequested, raw []byte) (bool, error) {
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

	// A decision may already exist even when the inbox fence passed: a
	// redelivery whose reply was generated before this service crashed mid-ack.
	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM payment_transactions WHERE order_id = $1)
	`, msg.OrderID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		// Commit so the inbox row short-circuits the next redelivery.
		if err := tx.Commit(ctx); err != nil {
			return false, err
		}
		return false, nil
	}

	status, reason, err := debitTx(ctx, tx, msg.UserID, msg.Amount)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_transactions (order_id, user_id, amount, status, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.OrderID, msg.UserID, msg.Amount, status, reason)
	if err != nil {
		return false, err
	}

	payload, err := json.Marshal(event.PaymentResult{
		MessageID: msg.MessageID,
		OrderID:   msg.OrderID,
		Status:    status,
		Reason:    reason,
	})
	if err != nil {
		return false, err
	}
	if err := insertOutboxTx(ctx, tx, event.TypePaymentResult, msg.OrderID, payload); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// debitTx attempts the conditional debit and maps the outcome. The single
// UPDATE both tests sufficient balance and subtracts, so concurrent payments
// against one account serialize on the row lock and the balance can never go
// negative.
func debitTx(ctx context.Context, tx pgx.Tx, userID, amount int64) (string, *string, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)
	`, userID).Scan(&exists); err != nil {
		return "", nil, err
	}
	if !exists {
		reason := event.ReasonAccountNotFound
		return event.StatusFailed, &reason, nil
	}

	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance - $2, updated_at = now()
		WHERE user_id = $1 AND balance >= $2
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		reason := event.ReasonInsufficientFunds
		return event.StatusFailed, &reason, nil
	}
	if err != nil {
		return "", nil, err
	}
	return event.StatusSuccess, nil, nil
}
