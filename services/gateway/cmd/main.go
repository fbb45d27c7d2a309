package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/services/gateway/internal/api"
	"github.com/orderpay/orderpay/services/gateway/internal/config"
	"github.com/orderpay/orderpay/services/gateway/internal/infrastructure/rabbitmq"
	"github.com/orderpay/orderpay/services/gateway/internal/ws"
)

func main() {
	cfg := config.Load()

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}
	logger.Init()
	log := logger.Logger.With().
		Str("service", "gateway").
		Str("env", cfg.AppEnv).
		Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Redis (optional, rate limiting only) ----
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(rootCtx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed (continuing, rate limit fails open)")
		} else {
			log.Info().Msg("redis connected")
		}
		cancel()
	}

	// ---- Live fan-out ----
	hub := ws.NewHub()
	defer hub.CloseAll()

	rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, hub).Start(rootCtx)

	// ---- Router ----
	httpHandler, err := api.NewRouter(api.RouterDeps{
		OrdersURL:   cfg.OrdersURL,
		PaymentsURL: cfg.PaymentsURL,
		Hub:         hub,
		Redis:       rdb,
		RLLimit:     cfg.RLLimit,
		RLWindow:    cfg.RLWindow,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	// ---- HTTP server ----
	// No WriteTimeout: websocket subscriptions are long-lived.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}
