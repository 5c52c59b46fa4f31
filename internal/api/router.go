package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chairtime/chairtime/internal/billing"
	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/metrics"
	"github.com/chairtime/chairtime/internal/salon"
)

type RouterConfig struct {
	Bookings      *booking.Service
	Salons        salon.Repository
	Billing       *billing.Service
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	WebhookSecret string
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	// Operational endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Public booking-link endpoints
	r.Get("/salons/{slug}", getSalonHandler(cfg.Salons))
	r.Get("/salons/{slug}/availability", availabilityHandler(cfg.Bookings, cfg.Salons))
	r.Post("/bookings", createBookingHandler(cfg.Bookings, cfg.Metrics))

	// Tenant dashboard endpoints
	r.Route("/dashboard/{salonID}", func(r chi.Router) {
		r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
		r.Patch("/appointments/{id}/status", transitionHandler(cfg.Bookings))
		r.Get("/revenue", revenueHandler(cfg.Bookings))
		r.Post("/billing/checkout", checkoutHandler(cfg.Billing))
	})

	// Stripe callbacks
	r.Post("/webhooks/stripe", stripeWebhookHandler(cfg.Billing, cfg.WebhookSecret, cfg.Logger))

	return r
}
