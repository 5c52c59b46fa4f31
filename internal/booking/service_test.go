package booking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	redisclient "github.com/chairtime/chairtime/internal/redis"
	"github.com/chairtime/chairtime/internal/salon"
	"github.com/chairtime/chairtime/internal/schedule"
)

type mockSalonRepo struct {
	mock.Mock
}

func (m *mockSalonRepo) GetSalonByID(ctx context.Context, id uuid.UUID) (*salon.Salon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salon.Salon), args.Error(1)
}

func (m *mockSalonRepo) GetSalonBySlug(ctx context.Context, slug string) (*salon.Salon, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salon.Salon), args.Error(1)
}

func (m *mockSalonRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*salon.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salon.Service), args.Error(1)
}

func (m *mockSalonRepo) ListServices(ctx context.Context, salonID uuid.UUID) ([]salon.Service, error) {
	args := m.Called(ctx, salonID)
	return args.Get(0).([]salon.Service), args.Error(1)
}

func (m *mockSalonRepo) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*salon.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salon.Professional), args.Error(1)
}

func (m *mockSalonRepo) ListProfessionals(ctx context.Context, salonID uuid.UUID) ([]salon.Professional, error) {
	args := m.Called(ctx, salonID)
	return args.Get(0).([]salon.Professional), args.Error(1)
}

func (m *mockSalonRepo) UpdatePlan(ctx context.Context, id uuid.UUID, plan salon.Plan, stripeCustomerID *string) error {
	return m.Called(ctx, id, plan, stripeCustomerID).Error(0)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *mockBookingRepo) ListSameDay(ctx context.Context, salonID uuid.UUID, day time.Time, professionalID *uuid.UUID) ([]Appointment, error) {
	args := m.Called(ctx, salonID, day, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *mockBookingRepo) ListByRange(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	args := m.Called(ctx, salonID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *mockBookingRepo) Insert(ctx context.Context, appt *Appointment) (*Appointment, error) {
	args := m.Called(ctx, appt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *mockBookingRepo) CompletedRevenue(ctx context.Context, salonID uuid.UUID, from, to time.Time) (RevenueSummary, error) {
	args := m.Called(ctx, salonID, from, to)
	return args.Get(0).(RevenueSummary), args.Error(1)
}

func (m *mockBookingRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

// passLocker runs the critical section immediately; lockedOut simulates a
// concurrent holder.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ uuid.UUID, _ *uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

type lockedOutLocker struct{}

func (lockedOutLocker) WithSlotLock(context.Context, uuid.UUID, *uuid.UUID, time.Time, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

// Fixture helpers

var (
	testSalonID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testServiceID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testProfID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")

	// Monday 2026-03-02
	mondayNoon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local)
)

func nineToSix() schedule.WorkingHours {
	return schedule.WorkingHours{
		schedule.Monday: {Open: true, From: "09:00", To: "18:00"},
	}
}

func testSalon() *salon.Salon {
	return &salon.Salon{ID: testSalonID, Slug: "clip-joint", Name: "Clip Joint", WorkingHours: nineToSix()}
}

func testService() *salon.Service {
	return &salon.Service{ID: testServiceID, SalonID: testSalonID, Name: "Haircut", DurationMinutes: 30, PriceCents: 3500, Active: true}
}

func validRequest() CreateRequest {
	return CreateRequest{
		SalonID:       testSalonID,
		ServiceID:     testServiceID,
		StartTime:     mondayNoon,
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "+1 555 0100",
	}
}

func newTestService(salons salon.Repository, repo Repository, locker redisclient.Locker) *Service {
	return NewService(salons, repo, locker, time.Hour, zerolog.New(io.Discard))
}

// CreateAppointment

func TestCreateAppointment_MissingFields(t *testing.T) {
	svc := newTestService(&mockSalonRepo{}, &mockBookingRepo{}, passLocker{})

	for name, mutate := range map[string]func(*CreateRequest){
		"blank name":      func(r *CreateRequest) { r.CustomerName = "   " },
		"blank phone":     func(r *CreateRequest) { r.CustomerPhone = "" },
		"zero salon id":   func(r *CreateRequest) { r.SalonID = uuid.Nil },
		"zero service id": func(r *CreateRequest) { r.ServiceID = uuid.Nil },
	} {
		req := validRequest()
		mutate(&req)

		_, err := svc.CreateAppointment(context.Background(), req)
		assert.ErrorIs(t, err, ErrMissingField, name)
	}
}

func TestCreateAppointment_ZeroDate(t *testing.T) {
	svc := newTestService(&mockSalonRepo{}, &mockBookingRepo{}, passLocker{})

	req := validRequest()
	req.StartTime = time.Time{}

	_, err := svc.CreateAppointment(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCreateAppointment_SalonNotFound(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(nil, salon.ErrSalonNotFound)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.ErrorIs(t, err, salon.ErrSalonNotFound)
}

func TestCreateAppointment_ServiceOfOtherSalon(t *testing.T) {
	other := testService()
	other.SalonID = uuid.New()

	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(other, nil)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.ErrorIs(t, err, salon.ErrServiceNotFound)
}

func TestCreateAppointment_InvalidProfessional(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)
	salons.On("GetProfessionalByID", mock.Anything, testProfID).Return(nil, salon.ErrProfessionalNotFound)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	req := validRequest()
	req.ProfessionalID = &testProfID

	_, err := svc.CreateAppointment(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidProfessional)
}

func TestCreateAppointment_ProfessionalOfOtherSalon(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)
	salons.On("GetProfessionalByID", mock.Anything, testProfID).Return(&salon.Professional{
		ID:      testProfID,
		SalonID: uuid.New(),
		Name:    "Sam",
	}, nil)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	req := validRequest()
	req.ProfessionalID = &testProfID

	_, err := svc.CreateAppointment(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidProfessional)
}

func TestCreateAppointment_OutsideHours(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	cases := map[string]time.Time{
		"before open":    mondayNoon.Add(-4 * time.Hour), // 08:00
		"at close":       mondayNoon.Add(6 * time.Hour),  // 18:00 exactly
		"after close":    mondayNoon.Add(8 * time.Hour),  // 20:00
		"closed weekday": mondayNoon.AddDate(0, 0, -1),   // Sunday, absent from config
	}

	for name, at := range cases {
		req := validRequest()
		req.StartTime = at

		_, err := svc.CreateAppointment(context.Background(), req)
		assert.ErrorIs(t, err, ErrOutsideHours, name)
	}
}

func TestCreateAppointment_AtOpenBoundaryAccepted(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	atOpen := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

	repo := &mockBookingRepo{}
	repo.On("ListSameDay", mock.Anything, testSalonID, atOpen, (*uuid.UUID)(nil)).Return([]Appointment{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(&Appointment{
		ID:        uuid.New(),
		SalonID:   testSalonID,
		StartTime: atOpen,
		Status:    StatusPending,
	}, nil)

	svc := newTestService(salons, repo, passLocker{})

	req := validRequest()
	req.StartTime = atOpen

	appt, err := svc.CreateAppointment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
	repo.AssertCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateAppointment_SameMinuteConflict(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	repo := &mockBookingRepo{}
	repo.On("ListSameDay", mock.Anything, testSalonID, mondayNoon, (*uuid.UUID)(nil)).Return([]Appointment{
		{ID: uuid.New(), StartTime: mondayNoon, DurationMinutes: 30, Status: StatusConfirmed},
	}, nil)

	svc := newTestService(salons, repo, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateAppointment_IntervalOverlapConflict(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	// 11:45 + 30min runs into the requested 12:00 haircut.
	repo := &mockBookingRepo{}
	repo.On("ListSameDay", mock.Anything, testSalonID, mondayNoon, (*uuid.UUID)(nil)).Return([]Appointment{
		{ID: uuid.New(), StartTime: mondayNoon.Add(-15 * time.Minute), DurationMinutes: 30, Status: StatusPending},
	}, nil)

	svc := newTestService(salons, repo, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateAppointment_CancelledDoesNotBlock(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	// The repository filters cancelled rows out of the conflict set.
	repo := &mockBookingRepo{}
	repo.On("ListSameDay", mock.Anything, testSalonID, mondayNoon, (*uuid.UUID)(nil)).Return([]Appointment{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(&Appointment{
		ID:        uuid.New(),
		SalonID:   testSalonID,
		StartTime: mondayNoon,
		Status:    StatusPending,
	}, nil)

	svc := newTestService(salons, repo, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestCreateAppointment_AnyProfessionalSkipsStaffChecks(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	repo := &mockBookingRepo{}
	repo.On("ListSameDay", mock.Anything, testSalonID, mondayNoon, (*uuid.UUID)(nil)).Return([]Appointment{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(&Appointment{ID: uuid.New(), Status: StatusPending}, nil)

	svc := newTestService(salons, repo, passLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	require.NoError(t, err)

	// No staff lookup, and the conflict set stays unfiltered (nil).
	salons.AssertNotCalled(t, "GetProfessionalByID", mock.Anything, mock.Anything)
	repo.AssertCalled(t, "ListSameDay", mock.Anything, testSalonID, mondayNoon, (*uuid.UUID)(nil))
}

func TestCreateAppointment_ProfessionalHoursOverride(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)
	salons.On("GetProfessionalByID", mock.Anything, testProfID).Return(&salon.Professional{
		ID:      testProfID,
		SalonID: testSalonID,
		Name:    "Sam",
		WorkingHours: schedule.WorkingHours{
			schedule.Monday: {Open: true, From: "09:00", To: "11:00"},
		},
		HasOwnHours: true,
	}, nil)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	// Noon is inside the salon's hours but outside the professional's.
	req := validRequest()
	req.ProfessionalID = &testProfID

	_, err := svc.CreateAppointment(context.Background(), req)
	assert.ErrorIs(t, err, ErrOutsideHours)
}

func TestCreateAppointment_LockContention(t *testing.T) {
	salons := &mockSalonRepo{}
	salons.On("GetSalonByID", mock.Anything, testSalonID).Return(testSalon(), nil)
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(testService(), nil)

	svc := newTestService(salons, &mockBookingRepo{}, lockedOutLocker{})

	_, err := svc.CreateAppointment(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
}

// Availability

func TestAvailability_FiltersBookedSlots(t *testing.T) {
	salons := &mockSalonRepo{}
	repo := &mockBookingRepo{}

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	repo.On("ListSameDay", mock.Anything, testSalonID, day, (*uuid.UUID)(nil)).Return([]Appointment{
		{StartTime: day.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}, nil)

	svc := newTestService(salons, repo, passLocker{})

	slots, err := svc.Availability(context.Background(), testSalon(), day, nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "11:00")
	assert.Len(t, slots, 8)
}

func TestAvailability_InactiveServiceRejected(t *testing.T) {
	inactive := testService()
	inactive.Active = false

	salons := &mockSalonRepo{}
	salons.On("GetServiceByID", mock.Anything, testServiceID).Return(inactive, nil)

	svc := newTestService(salons, &mockBookingRepo{}, passLocker{})

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	_, err := svc.Availability(context.Background(), testSalon(), day, &testServiceID, nil)

	// The picker must refuse the same services the booking path refuses.
	assert.ErrorIs(t, err, salon.ErrServiceNotFound)
}

func TestAvailability_ClosedDayYieldsNothing(t *testing.T) {
	svc := newTestService(&mockSalonRepo{}, &mockBookingRepo{}, passLocker{})

	sundayDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	slots, err := svc.Availability(context.Background(), testSalon(), sundayDate, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, slots)
}

// Transitions

func TestTransition_Valid(t *testing.T) {
	apptID := uuid.New()

	repo := &mockBookingRepo{}
	repo.On("GetByID", mock.Anything, apptID).Return(&Appointment{
		ID: apptID, SalonID: testSalonID, Status: StatusPending,
	}, nil)
	repo.On("UpdateStatus", mock.Anything, apptID, StatusPending, StatusConfirmed).Return(&Appointment{
		ID: apptID, SalonID: testSalonID, Status: StatusConfirmed,
	}, nil)

	svc := newTestService(&mockSalonRepo{}, repo, passLocker{})

	appt, err := svc.Transition(context.Background(), testSalonID, apptID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
}

func TestTransition_Invalid(t *testing.T) {
	apptID := uuid.New()

	repo := &mockBookingRepo{}
	repo.On("GetByID", mock.Anything, apptID).Return(&Appointment{
		ID: apptID, SalonID: testSalonID, Status: StatusCompleted,
	}, nil)

	svc := newTestService(&mockSalonRepo{}, repo, passLocker{})

	_, err := svc.Transition(context.Background(), testSalonID, apptID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_WrongSalon(t *testing.T) {
	apptID := uuid.New()

	repo := &mockBookingRepo{}
	repo.On("GetByID", mock.Anything, apptID).Return(&Appointment{
		ID: apptID, SalonID: uuid.New(), Status: StatusPending,
	}, nil)

	svc := newTestService(&mockSalonRepo{}, repo, passLocker{})

	_, err := svc.Transition(context.Background(), testSalonID, apptID, StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

// Worker

func TestCancelStalePending(t *testing.T) {
	stale := []Appointment{
		{ID: uuid.New(), Status: StatusPending},
		{ID: uuid.New(), Status: StatusPending},
	}

	repo := &mockBookingRepo{}
	repo.On("FindStalePending", mock.Anything, mock.Anything).Return(stale, nil)
	for _, appt := range stale {
		repo.On("UpdateStatus", mock.Anything, appt.ID, StatusPending, StatusCancelled).Return(&Appointment{
			ID: appt.ID, Status: StatusCancelled,
		}, nil)
	}

	svc := newTestService(&mockSalonRepo{}, repo, passLocker{})

	err := svc.CancelStalePending(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "UpdateStatus", 2)
}

func TestConfirmPaid_NotPendingIsNoop(t *testing.T) {
	apptID := uuid.New()

	repo := &mockBookingRepo{}
	repo.On("UpdateStatus", mock.Anything, apptID, StatusPending, StatusConfirmed).Return(nil, ErrAppointmentNotFound)

	svc := newTestService(&mockSalonRepo{}, repo, passLocker{})

	assert.NoError(t, svc.ConfirmPaid(context.Background(), apptID))
}
