package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderpay/orderpay/internal/outbox"
	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/services/payments/internal/config"
	"github.com/orderpay/orderpay/services/payments/internal/infrastructure/postgres"
	"github.com/orderpay/orderpay/services/payments/internal/infrastructure/rabbitmq"
	"github.com/orderpay/orderpay/services/payments/internal/service"
	"github.com/orderpay/orderpay/services/payments/internal/transport/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}
	logger.Init()
	log := logger.Logger.With().
		Str("service", "payments").
		Str("env", cfg.AppEnv).
		Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	dbPool, err := pgxpool.New(rootCtx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres pool create failed")
	}
	defer dbPool.Close()

	{
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		defer cancel()
		if err := dbPool.Ping(pingCtx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")
	}

	repo := postgres.New(dbPool)
	if err := repo.EnsureSchema(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}

	// ---- Application service + REST ----
	svc := service.NewAccountsService(repo)
	httpHandler := rest.NewRouter(rest.NewHandler(svc))

	// ---- payment.requested worker ----
	rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, repo).Start(rootCtx)

	// ---- Outbox relay (PaymentResult) ----
	pub := outbox.NewAMQPPublisher(cfg.RabbitURL, cfg.RabbitExchange, "payments")
	defer pub.Close()
	relay := outbox.NewRelay(repo, pub, "payments")
	relay.PollInterval = cfg.OutboxPollInterval
	relay.Start(rootCtx)

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
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
