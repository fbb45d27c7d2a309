package service

import (
	"context"
	"fmt"

	"github.com/orderpay/orderpay/services/orders/internal/domain"
)

type OrdersService struct {
	repo domain.OrdersRepository
}

func NewOrdersService(repo domain.OrdersRepository) *OrdersService {
	return &OrdersService{repo: repo}
}

// Create validates the request and writes the order together with its
// PaymentRequested event. The caller sees status NEW; the terminal status
// arrives asynchronously through the pipeline.
func (s *OrdersService) Create(ctx context.Context, userID, amount int64, description *string) (*domain.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id must be positive", domain.ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	return s.repo.CreateOrder(ctx, userID, amount, description)
}

func (s *OrdersService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *OrdersService) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}
