package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/orderpay/orderpay/internal/pkg/reqctx"
	"github.com/orderpay/orderpay/internal/pkg/response"
	"github.com/orderpay/orderpay/services/orders/internal/domain"
	"github.com/orderpay/orderpay/services/orders/internal/service"
)

type Handler struct {
	svc *service.OrdersService
}

func NewHandler(svc *service.OrdersService) *Handler {
	return &Handler{svc: svc}
}

type createOrderRequest struct {
	UserID      int64   `json:"user_id"`
	Amount      int64   `json:"amount"`
	Description *string `json:"description"`
}

type orderResponse struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID: o.ID,
		UserID:  o.UserID,
		Amount:  o.Amount,
		Status:  string(o.Status),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body")
		return
	}

	order, err := h.svc.Create(r.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid order id")
		return
	}

	order, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		handleErr(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "orders"})
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		fail(w, r, http.StatusNotFound, "order.not_found", "order not found")
	case errors.Is(err, domain.ErrValidation):
		fail(w, r, http.StatusUnprocessableEntity, "request.invalid", err.Error())
	default:
		fail(w, r, http.StatusInternalServerError, "internal", "internal error")
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response.Fail(w, status, code, message, reqctx.GetRequestID(r.Context()))
}
