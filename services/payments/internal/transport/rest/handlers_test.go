package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/services/payments/internal/domain"
	"github.com/orderpay/orderpay/services/payments/internal/service"
)

func init() {
	logger.InitWithWriter(io.Discard)
}

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

func newTestRouter(repo domain.AccountsRepository) http.Handler {
	return NewRouter(NewHandler(service.NewAccountsService(repo)))
}

func TestCreateAccount_Returns201(t *testing.T) {
	repo := new(MockRepo)
	repo.On("CreateAccount", mock.Anything, int64(3)).
		Return(&domain.Account{ID: 1, UserID: 3, Balance: 0}, nil).Once()

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/accounts", "application/json",
		strings.NewReader(`{"user_id":3}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"user_id":3,"balance":0}`, string(body))
	repo.AssertExpectations(t)
}

func TestCreateAccount_Returns409WhenExists(t *testing.T) {
	repo := new(MockRepo)
	repo.On("CreateAccount", mock.Anything, int64(3)).
		Return(nil, domain.ErrAccountExists).Once()

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/accounts", "application/json",
		strings.NewReader(`{"user_id":3}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "account.exists")
}

func TestTopUp_ReturnsNewBalance(t *testing.T) {
	repo := new(MockRepo)
	repo.On("TopUp", mock.Anything, int64(3), int64(100)).Return(int64(150), nil).Once()

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/accounts/topup", "application/json",
		strings.NewReader(`{"user_id":3,"amount":100}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"user_id":3,"balance":150}`, string(body))
}

func TestTopUp_Returns422OnInvalidAmount(t *testing.T) {
	repo := new(MockRepo)

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/accounts/topup", "application/json",
		strings.NewReader(`{"user_id":3,"amount":-5}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	repo.AssertNotCalled(t, "TopUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestBalance_Returns404WhenAbsent(t *testing.T) {
	repo := new(MockRepo)
	repo.On("GetAccount", mock.Anything, int64(8)).Return(nil, domain.ErrAccountNotFound).Once()

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/accounts/8/balance")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "account.not_found")
}

func TestListAccounts_EmptyIsJSONArray(t *testing.T) {
	repo := new(MockRepo)
	repo.On("ListAccounts", mock.Anything).Return([]domain.Account(nil), nil).Once()

	srv := httptest.NewServer(newTestRouter(repo))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(body))
}
