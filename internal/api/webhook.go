package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/chairtime/chairtime/internal/billing"
)

// maxWebhookBody caps what we are willing to read from Stripe.
const maxWebhookBody = 1 << 20

// stripeWebhookHandler has no session auth; the signature verification is the
// auth. The path must be exposed publicly for Stripe to reach it.
func stripeWebhookHandler(bil *billing.Service, webhookSecret string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(webhookSecret) == "" {
			writeError(w, http.StatusServiceUnavailable, "billing_not_configured", "stripe webhook secret is not set")
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if strings.TrimSpace(sigHeader) == "" {
			writeError(w, http.StatusBadRequest, "missing_signature", "Stripe-Signature header is required")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "failed to read request body")
			return
		}

		evt, err := webhook.ConstructEvent(body, sigHeader, webhookSecret)
		if err != nil {
			log.Warn().Err(err).Msg("stripe webhook signature verification failed")
			writeError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}

		if err := bil.HandleEvent(r.Context(), evt); err != nil {
			log.Error().Err(err).Str("event_id", evt.ID).Msg("stripe webhook apply failed")
			writeError(w, http.StatusInternalServerError, "webhook_apply_failed", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
