package billing

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/salon"
)

// Fakes recording only the calls HandleEvent can reach: the plan upgrade on
// the salon side and the pending->confirmed flip on the booking side.

type planUpdate struct {
	salonID    uuid.UUID
	plan       salon.Plan
	customerID *string
}

type fakeSalonRepo struct {
	planUpdates []planUpdate
}

func (f *fakeSalonRepo) GetSalonByID(context.Context, uuid.UUID) (*salon.Salon, error) {
	return nil, salon.ErrSalonNotFound
}

func (f *fakeSalonRepo) GetSalonBySlug(context.Context, string) (*salon.Salon, error) {
	return nil, salon.ErrSalonNotFound
}

func (f *fakeSalonRepo) GetServiceByID(context.Context, uuid.UUID) (*salon.Service, error) {
	return nil, salon.ErrServiceNotFound
}

func (f *fakeSalonRepo) ListServices(context.Context, uuid.UUID) ([]salon.Service, error) {
	return nil, nil
}

func (f *fakeSalonRepo) GetProfessionalByID(context.Context, uuid.UUID) (*salon.Professional, error) {
	return nil, salon.ErrProfessionalNotFound
}

func (f *fakeSalonRepo) ListProfessionals(context.Context, uuid.UUID) ([]salon.Professional, error) {
	return nil, nil
}

func (f *fakeSalonRepo) UpdatePlan(_ context.Context, id uuid.UUID, plan salon.Plan, stripeCustomerID *string) error {
	f.planUpdates = append(f.planUpdates, planUpdate{salonID: id, plan: plan, customerID: stripeCustomerID})
	return nil
}

type statusUpdate struct {
	id       uuid.UUID
	from, to booking.Status
}

type fakeBookingRepo struct {
	statusUpdates []statusUpdate
}

func (f *fakeBookingRepo) GetByID(context.Context, uuid.UUID) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (f *fakeBookingRepo) ListSameDay(context.Context, uuid.UUID, time.Time, *uuid.UUID) ([]booking.Appointment, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListByRange(context.Context, uuid.UUID, time.Time, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}

func (f *fakeBookingRepo) Insert(_ context.Context, appt *booking.Appointment) (*booking.Appointment, error) {
	return appt, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to booking.Status) (*booking.Appointment, error) {
	f.statusUpdates = append(f.statusUpdates, statusUpdate{id: id, from: from, to: to})
	return &booking.Appointment{ID: id, Status: to}, nil
}

func (f *fakeBookingRepo) CompletedRevenue(context.Context, uuid.UUID, time.Time, time.Time) (booking.RevenueSummary, error) {
	return booking.RevenueSummary{}, nil
}

func (f *fakeBookingRepo) FindStalePending(context.Context, time.Time) ([]booking.Appointment, error) {
	return nil, nil
}

type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ *uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestBilling(salons *fakeSalonRepo, repo *fakeBookingRepo) *Service {
	log := zerolog.New(io.Discard)
	bookings := booking.NewService(salons, repo, passLocker{}, time.Hour, log)
	return NewService(salons, bookings, "sk_test_x", "price_x", "https://x/success", "https://x/cancel", log)
}

func completedEvent(t *testing.T, sess map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(sess)
	require.NoError(t, err)
	return stripe.Event{
		ID:   "evt_1",
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEvent_SubscriptionUpgradesPlan(t *testing.T) {
	salons := &fakeSalonRepo{}
	bil := newTestBilling(salons, &fakeBookingRepo{})

	salonID := uuid.New()
	evt := completedEvent(t, map[string]any{
		"mode":     "subscription",
		"customer": "cus_123",
		"metadata": map[string]string{"salon_id": salonID.String()},
	})

	require.NoError(t, bil.HandleEvent(context.Background(), evt))

	require.Len(t, salons.planUpdates, 1)
	assert.Equal(t, salonID, salons.planUpdates[0].salonID)
	assert.Equal(t, salon.PlanPro, salons.planUpdates[0].plan)
	require.NotNil(t, salons.planUpdates[0].customerID)
	assert.Equal(t, "cus_123", *salons.planUpdates[0].customerID)
}

func TestHandleEvent_SubscriptionFallsBackToClientReference(t *testing.T) {
	salons := &fakeSalonRepo{}
	bil := newTestBilling(salons, &fakeBookingRepo{})

	salonID := uuid.New()
	evt := completedEvent(t, map[string]any{
		"mode":                "subscription",
		"client_reference_id": salonID.String(),
	})

	require.NoError(t, bil.HandleEvent(context.Background(), evt))

	require.Len(t, salons.planUpdates, 1)
	assert.Equal(t, salonID, salons.planUpdates[0].salonID)
}

func TestHandleEvent_SubscriptionWithoutSalonIDErrors(t *testing.T) {
	salons := &fakeSalonRepo{}
	bil := newTestBilling(salons, &fakeBookingRepo{})

	evt := completedEvent(t, map[string]any{"mode": "subscription"})

	assert.Error(t, bil.HandleEvent(context.Background(), evt))
	assert.Empty(t, salons.planUpdates)
}

func TestHandleEvent_PaymentConfirmsAppointment(t *testing.T) {
	repo := &fakeBookingRepo{}
	bil := newTestBilling(&fakeSalonRepo{}, repo)

	apptID := uuid.New()
	evt := completedEvent(t, map[string]any{
		"mode":     "payment",
		"metadata": map[string]string{"appointment_id": apptID.String()},
	})

	require.NoError(t, bil.HandleEvent(context.Background(), evt))

	require.Len(t, repo.statusUpdates, 1)
	assert.Equal(t, apptID, repo.statusUpdates[0].id)
	assert.Equal(t, booking.StatusPending, repo.statusUpdates[0].from)
	assert.Equal(t, booking.StatusConfirmed, repo.statusUpdates[0].to)
}

func TestHandleEvent_ExpiredSessionChangesNothing(t *testing.T) {
	salons := &fakeSalonRepo{}
	repo := &fakeBookingRepo{}
	bil := newTestBilling(salons, repo)

	evt := stripe.Event{ID: "evt_2", Type: "checkout.session.expired", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	require.NoError(t, bil.HandleEvent(context.Background(), evt))
	assert.Empty(t, salons.planUpdates)
	assert.Empty(t, repo.statusUpdates)
}

func TestHandleEvent_UnknownTypeIgnored(t *testing.T) {
	salons := &fakeSalonRepo{}
	bil := newTestBilling(salons, &fakeBookingRepo{})

	evt := stripe.Event{ID: "evt_3", Type: "invoice.paid", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	require.NoError(t, bil.HandleEvent(context.Background(), evt))
	assert.Empty(t, salons.planUpdates)
}

func TestNotConfigured(t *testing.T) {
	log := zerolog.New(io.Discard)
	bookings := booking.NewService(&fakeSalonRepo{}, &fakeBookingRepo{}, passLocker{}, time.Hour, log)
	bil := NewService(&fakeSalonRepo{}, bookings, "", "", "", "", log)

	assert.False(t, bil.Enabled())
	_, err := bil.NewCheckoutSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
