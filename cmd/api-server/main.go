package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/chairtime/chairtime/internal/api"
	"github.com/chairtime/chairtime/internal/billing"
	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/config"
	"github.com/chairtime/chairtime/internal/db"
	"github.com/chairtime/chairtime/internal/metrics"
	redisclient "github.com/chairtime/chairtime/internal/redis"
	"github.com/chairtime/chairtime/internal/salon"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	salons := salon.NewPgRepository(pgPool)
	bookings := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	bookingSvc := booking.NewService(salons, bookings, locker, cfg.SlotInterval, log)
	billingSvc := billing.NewService(salons, bookingSvc,
		cfg.StripeSecretKey, cfg.StripePriceMonthly,
		cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL, log)

	m := metrics.New("chairtime")

	router := api.NewRouter(api.RouterConfig{
		Bookings:      bookingSvc,
		Salons:        salons,
		Billing:       billingSvc,
		Metrics:       m,
		Logger:        log,
		PgPool:        pgPool,
		Redis:         rdb,
		WebhookSecret: cfg.StripeWebhookSecret,
		Env:           cfg.Env,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("api-server stopped")
}
