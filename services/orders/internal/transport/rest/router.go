package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orderpay/orderpay/internal/pkg/httpmw"
)

func NewRouter(h *Handler) http.Handler {
	if h == nil {
		panic("rest.NewRouter: nil handler")
	}

	r := chi.NewRouter()

	r.Use(httpmw.RequestID)
	r.Use(httpmw.HTTPLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/{orderID}", h.Get)

	return r
}
