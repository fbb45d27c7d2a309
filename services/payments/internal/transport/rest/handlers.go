package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/orderpay/orderpay/internal/pkg/reqctx"
	"github.com/orderpay/orderpay/internal/pkg/response"
	"github.com/orderpay/orderpay/services/payments/internal/domain"
	"github.com/orderpay/orderpay/services/payments/internal/service"
)

type Handler struct {
	svc *service.AccountsService
}

func NewHandler(svc *service.AccountsService) *Handler {
	return &Handler{svc: svc}
}

type createAccountRequest struct {
	UserID int64 `json:"user_id"`
}

type topUpRequest struct {
	UserID int64 `json:"user_id"`
	Amount int64 `json:"amount"`
}

type accountResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body")
		return
	}

	acc, err := h.svc.Create(r.Context(), req.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, accountResponse{UserID: acc.UserID, Balance: acc.Balance})
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body")
		return
	}

	balance, err := h.svc.TopUp(r.Context(), req.UserID, req.Amount)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, accountResponse{UserID: req.UserID, Balance: balance})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid user id")
		return
	}

	acc, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, accountResponse{UserID: acc.UserID, Balance: acc.Balance})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		handleErr(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{UserID: a.UserID, Balance: a.Balance})
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "payments"})
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountExists):
		fail(w, r, http.StatusConflict, "account.exists", "account already exists")
	case errors.Is(err, domain.ErrAccountNotFound):
		fail(w, r, http.StatusNotFound, "account.not_found", "account not found")
	case errors.Is(err, domain.ErrValidation):
		fail(w, r, http.StatusUnprocessableEntity, "request.invalid", err.Error())
	default:
		fail(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response.Fail(w, status, code, message, reqctx.GetRequestID(r.Context()))
}
