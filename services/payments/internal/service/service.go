package service

import (
	"context"
	"fmt"

	"github.com/orderpay/orderpay/services/payments/internal/domain"
)

type AccountsService struct {
	repo domain.AccountsRepository
}

func NewAccountsService(repo domain.AccountsRepository) *AccountsService {
	return &AccountsService{repo: repo}
}

func (s *AccountsService) Create(ctx context.Context, userID int64) (*domain.Account, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id must be positive", domain.ErrValidation)
	}
	return s.repo.CreateAccount(ctx, userID)
}

func (s *AccountsService) TopUp(ctx context.Context, userID, amount int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: user_id must be positive", domain.ErrValidation)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	return s.repo.TopUp(ctx, userID, amount)
}

func (s *AccountsService) Get(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

func (s *AccountsService) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}
