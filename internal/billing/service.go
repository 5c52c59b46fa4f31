package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/salon"
)

var ErrNotConfigured = errors.New("stripe billing is not configured")

type Service struct {
	salons       salon.Repository
	bookings     *booking.Service
	secretKey    string
	priceMonthly string
	successURL   string
	cancelURL    string
	log          zerolog.Logger
}

func NewService(salons salon.Repository, bookings *booking.Service, secretKey, priceMonthly, successURL, cancelURL string, log zerolog.Logger) *Service {
	return &Service{
		salons:       salons,
		bookings:     bookings,
		secretKey:    secretKey,
		priceMonthly: priceMonthly,
		successURL:   successURL,
		cancelURL:    cancelURL,
		log:          log.With().Str("component", "billing").Logger(),
	}
}

func (s *Service) Enabled() bool {
	return s.secretKey != ""
}

// NewCheckoutSession creates a Stripe subscription checkout for the pro plan
// and returns the hosted payment page URL.
func (s *Service) NewCheckoutSession(ctx context.Context, salonID uuid.UUID) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}

	sal, err := s.salons.GetSalonByID(ctx, salonID)
	if err != nil {
		return "", err
	}

	// Stripe uses a global API key; usage stays limited to this call path.
	stripe.Key = s.secretKey

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		ClientReferenceID: stripe.String(sal.ID.String()),
		CustomerEmail:     stripe.String(sal.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceMonthly),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"salon_id": sal.ID.String(),
			"plan":     string(salon.PlanPro),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	s.log.Info().
		Str("salon_id", sal.ID.String()).
		Str("session_id", sess.ID).
		Msg("checkout session created")

	return sess.URL, nil
}

// HandleEvent applies a verified webhook event. Subscription checkouts flip
// the salon to the pro plan; payment-mode checkouts confirm the appointment
// named in the session metadata. Failed or expired sessions change nothing:
// the appointment stays pending until the expiry worker reclaims it.
func (s *Service) HandleEvent(ctx context.Context, evt stripe.Event) error {
	switch string(evt.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session payload: %w", err)
		}
		return s.applyCompletedCheckout(ctx, sess)

	case "checkout.session.expired":
		s.log.Info().Str("event_id", evt.ID).Msg("checkout session expired, nothing to apply")
		return nil

	default:
		s.log.Debug().Str("event_type", string(evt.Type)).Msg("ignoring stripe event")
		return nil
	}
}

func (s *Service) applyCompletedCheckout(ctx context.Context, sess stripe.CheckoutSession) error {
	switch sess.Mode {
	case stripe.CheckoutSessionModeSubscription:
		rawID := sess.Metadata["salon_id"]
		if rawID == "" {
			rawID = sess.ClientReferenceID
		}
		salonID, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("checkout session has no usable salon id: %w", err)
		}

		var customerID *string
		if sess.Customer != nil && sess.Customer.ID != "" {
			customerID = &sess.Customer.ID
		}

		if err := s.salons.UpdatePlan(ctx, salonID, salon.PlanPro, customerID); err != nil {
			return fmt.Errorf("apply plan upgrade: %w", err)
		}

		s.log.Info().Str("salon_id", salonID.String()).Msg("salon upgraded to pro")
		return nil

	case stripe.CheckoutSessionModePayment:
		rawID := sess.Metadata["appointment_id"]
		apptID, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("checkout session has no usable appointment id: %w", err)
		}
		return s.bookings.ConfirmPaid(ctx, apptID)

	default:
		s.log.Warn().Str("mode", string(sess.Mode)).Msg("unhandled checkout session mode")
		return nil
	}
}
