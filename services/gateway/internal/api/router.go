package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/orderpay/orderpay/internal/pkg/httpmw"
	"github.com/orderpay/orderpay/internal/pkg/response"
	"github.com/orderpay/orderpay/services/gateway/internal/proxy"
	"github.com/orderpay/orderpay/services/gateway/internal/ws"
	"github.com/orderpay/orderpay/services/gateway/middleware"
)

type RouterDeps struct {
	OrdersURL   string
	PaymentsURL string
	Hub         *ws.Hub

	// Optional: rate limiting is skipped when Redis is nil.
	Redis    *redis.Client
	RLLimit  int
	RLWindow time.Duration
}

func NewRouter(d RouterDeps) (http.Handler, error) {
	if d.Hub == nil {
		panic("api.NewRouter: nil hub")
	}

	// Orders exposes /orders/* itself; payments exposes /accounts/*, so its
	// gateway prefix is stripped.
	ordersProxy, err := proxy.New(d.OrdersURL, "", "")
	if err != nil {
		return nil, err
	}
	paymentsProxy, err := proxy.New(d.PaymentsURL, "/payments", "")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(httpmw.RequestID)
	r.Use(httpmw.HTTPLogger)
	r.Use(chimw.Recoverer)

	limiter := middleware.NewRedisRateLimiter(d.Redis)
	r.Use(limiter.Middleware(middleware.RateLimitConfig{
		Limit:  d.RLLimit,
		Window: d.RLWindow,
		KeyFn:  middleware.KeyByIP,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "gateway"})
	})

	r.Handle("/orders", ordersProxy)
	r.Handle("/orders/*", ordersProxy)
	r.Handle("/payments", paymentsProxy)
	r.Handle("/payments/*", paymentsProxy)

	r.Get("/ws/orders/{orderID}", ws.SubscribeHandler(d.Hub))

	return r, nil
}
