package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orderpay/orderpay/services/payments/internal/domain"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) CreateAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.(*domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepo) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.(*domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if a := args.Get(0); a != nil {
		return a.([]domain.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepo) TopUp(ctx context.Context, userID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func TestCreate_Valid(t *testing.T) {
	repo := new(MockRepo)
	svc := NewAccountsService(repo)
	ctx := context.Background()

	want := &domain.Account{ID: 1, UserID: 3, Balance: 0}
	repo.On("CreateAccount", ctx, int64(3)).Return(want, nil).Once()

	got, err := svc.Create(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsNonPositiveUserID(t *testing.T) {
	repo := new(MockRepo)
	svc := NewAccountsService(repo)

	_, err := svc.Create(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestCreate_PropagatesConflict(t *testing.T) {
	repo := new(MockRepo)
	svc := NewAccountsService(repo)
	ctx := context.Background()

	repo.On("CreateAccount", ctx, int64(3)).Return(nil, domain.ErrAccountExists).Once()

	_, err := svc.Create(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrAccountExists)
}

func TestTopUp_Valid(t *testing.T) {
	repo := new(MockRepo)
	svc := NewAccountsService(repo)
	ctx := context.Background()

	repo.On("TopUp", ctx, int64(3), int64(50)).Return(int64(150), nil).Once()

	balance, err := svc.TopUp(ctx, 3, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
}

func TestTopUp_RejectsNonPositiveAmount(t *testing.T) {
	repo := new(MockRepo)
	svc := NewAccountsService(repo)

	_, err := svc.TopUp(context.Background(), 3, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.TopUp(context.Background(), 3, -10)
	assert.ErrorIs(t, err, domain.ErrValidation)

	repo.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything, mock.Anything)
}
