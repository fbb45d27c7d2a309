package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrValidation      = errors.New("validation failed")
)

type Account struct {
	ID        int64
	UserID    int64
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PaymentTransaction records one terminal payment decision per order. Rows are
// inserted once and never mutated.
type PaymentTransaction struct {
	ID        int64
	OrderID   int64
	UserID    int64
	Amount    int64
	Status    string
	Reason    *string
	CreatedAt time.Time
}

type AccountsRepository interface {
	CreateAccount(ctx context.Context, userID int64) (*Account, error)
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	// TopUp adds amount to the balance and returns the new value.
	TopUp(ctx context.Context, userID, amount int64) (int64, error)
}
