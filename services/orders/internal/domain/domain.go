package domain

import (
	"context"
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusPaid      OrderStatus = "PAID"
	StatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrValidation    = errors.New("validation failed")
)

type Order struct {
	ID          int64
	UserID      int64
	Amount      int64
	Description *string
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrdersRepository is the persistence port for the orders service. CreateOrder
// must write the order row and its PaymentRequested outbox row in one
// transaction.
type OrdersRepository interface {
	CreateOrder(ctx context.Context, userID, amount int64, description *string) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
}
