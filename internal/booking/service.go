package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/chairtime/chairtime/internal/redis"
	"github.com/chairtime/chairtime/internal/salon"
	"github.com/chairtime/chairtime/internal/schedule"
)

var (
	ErrMissingField        = errors.New("required field missing or blank")
	ErrInvalidDate         = errors.New("appointment date is not a valid timestamp")
	ErrInvalidProfessional = errors.New("professional unknown or belongs to another salon")
	ErrOutsideHours        = errors.New("requested time is outside working hours")
	ErrSlotTaken           = errors.New("slot already has an appointment")
	ErrSlotBeingBooked     = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// CreateRequest is a booking request after boundary parsing: identifiers are
// already UUIDs and the timestamp is absolute. A nil ProfessionalID means the
// customer did not pick a staff member ("any").
type CreateRequest struct {
	SalonID        uuid.UUID
	ServiceID      uuid.UUID
	ProfessionalID *uuid.UUID
	StartTime      time.Time
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  *string
}

type Service struct {
	salons   salon.Repository
	repo     Repository
	locker   redisclient.Locker
	interval time.Duration
	log      zerolog.Logger
}

func NewService(salons salon.Repository, repo Repository, locker redisclient.Locker, interval time.Duration, log zerolog.Logger) *Service {
	return &Service{
		salons:   salons,
		repo:     repo,
		locker:   locker,
		interval: interval,
		log:      log.With().Str("component", "booking").Logger(),
	}
}

// CreateAppointment is the authoritative booking decision. Checks run in
// order and the first failing one wins; the advisory slot picker output is
// never trusted. On accept exactly one pending appointment is inserted,
// on any reject nothing is written.
func (s *Service) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)

	if req.SalonID == uuid.Nil || req.ServiceID == uuid.Nil ||
		req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, ErrMissingField
	}
	if req.StartTime.IsZero() {
		return nil, ErrInvalidDate
	}

	sal, err := s.salons.GetSalonByID(ctx, req.SalonID)
	if err != nil {
		if errors.Is(err, salon.ErrSalonNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load salon: %w", err)
	}

	svc, err := s.salons.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, salon.ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}
	if svc.SalonID != sal.ID || !svc.Active {
		return nil, salon.ErrServiceNotFound
	}

	hours, err := s.resolveHours(ctx, sal, req.ProfessionalID)
	if err != nil {
		return nil, err
	}

	start := req.StartTime.Truncate(time.Minute)
	if !hours.Contains(start) {
		return nil, ErrOutsideHours
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, sal.ID, req.ProfessionalID, start, func(lockCtx context.Context) error {
		// Inside the critical section re-read the day's appointments: the
		// decision is made against freshly fetched state, not against what
		// the slot picker rendered earlier.
		existing, err := s.repo.ListSameDay(lockCtx, sal.ID, start, req.ProfessionalID)
		if err != nil {
			return fmt.Errorf("list same-day appointments: %w", err)
		}
		for _, appt := range existing {
			if appt.Overlaps(start, duration) {
				return ErrSlotTaken
			}
		}

		appt, err := s.repo.Insert(lockCtx, &Appointment{
			SalonID:         sal.ID,
			ServiceID:       svc.ID,
			ProfessionalID:  req.ProfessionalID,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			StartTime:       start,
			DurationMinutes: svc.DurationMinutes,
			PriceCents:      svc.PriceCents,
			Status:          StatusPending,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("salon_id", sal.ID.String()).
		Time("start_time", created.StartTime).
		Msg("appointment created")

	return created, nil
}

// Availability returns the advisory slot labels for one calendar date:
// the generator's output minus labels whose interval would collide with an
// existing appointment. The booking endpoint re-derives all of this itself.
func (s *Service) Availability(ctx context.Context, sal *salon.Salon, date time.Time, serviceID, professionalID *uuid.UUID) ([]string, error) {
	duration := s.interval
	if serviceID != nil {
		svc, err := s.salons.GetServiceByID(ctx, *serviceID)
		if err != nil {
			if errors.Is(err, salon.ErrServiceNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load service: %w", err)
		}
		if svc.SalonID != sal.ID || !svc.Active {
			return nil, salon.ErrServiceNotFound
		}
		duration = time.Duration(svc.DurationMinutes) * time.Minute
	}

	hours, err := s.resolveHours(ctx, sal, professionalID)
	if err != nil {
		return nil, err
	}

	labels := schedule.Slots(date, hours, s.interval)
	if len(labels) == 0 {
		return nil, nil
	}

	existing, err := s.repo.ListSameDay(ctx, sal.ID, date, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list same-day appointments: %w", err)
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	free := make([]string, 0, len(labels))
	for _, label := range labels {
		t, err := time.Parse("15:04", label)
		if err != nil {
			continue
		}
		start := midnight.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)

		taken := false
		for _, appt := range existing {
			if appt.Overlaps(start, duration) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, label)
		}
	}

	return free, nil
}

// resolveHours picks the working-hours configuration the remaining checks run
// against: the professional's own config fully replaces the salon's when the
// request names a specific staff member who has one.
func (s *Service) resolveHours(ctx context.Context, sal *salon.Salon, professionalID *uuid.UUID) (schedule.WorkingHours, error) {
	if professionalID == nil {
		return sal.WorkingHours, nil
	}

	prof, err := s.salons.GetProfessionalByID(ctx, *professionalID)
	if err != nil {
		if errors.Is(err, salon.ErrProfessionalNotFound) {
			return nil, ErrInvalidProfessional
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}
	if prof.SalonID != sal.ID {
		return nil, ErrInvalidProfessional
	}

	if prof.HasOwnHours {
		return prof.WorkingHours, nil
	}
	return sal.WorkingHours, nil
}

// Transition moves an appointment along its lifecycle on behalf of tenant
// staff. The compare-and-set in the repository keeps a concurrent webhook or
// dashboard action from applying a stale transition.
func (s *Service) Transition(ctx context.Context, salonID, appointmentID uuid.UUID, to Status) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.SalonID != salonID {
		return nil, ErrAppointmentNotFound
	}

	if !appt.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.log.Info().
		Str("appointment_id", updated.ID.String()).
		Str("from", string(appt.Status)).
		Str("to", string(to)).
		Msg("appointment status changed")

	return updated, nil
}

// ConfirmPaid flips a pending appointment to confirmed after a successful
// payment webhook. An appointment no longer pending is left as is.
func (s *Service) ConfirmPaid(ctx context.Context, appointmentID uuid.UUID) error {
	_, err := s.repo.UpdateStatus(ctx, appointmentID, StatusPending, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.log.Warn().
				Str("appointment_id", appointmentID.String()).
				Msg("payment webhook for appointment not in pending state")
			return nil
		}
		return fmt.Errorf("confirm paid appointment: %w", err)
	}
	return nil
}

func (s *Service) ListDay(ctx context.Context, salonID uuid.UUID, day time.Time) ([]Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.repo.ListByRange(ctx, salonID, start, start.AddDate(0, 0, 1))
}

func (s *Service) ListRange(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	return s.repo.ListByRange(ctx, salonID, from, to)
}

func (s *Service) Revenue(ctx context.Context, salonID uuid.UUID, from, to time.Time) (RevenueSummary, error) {
	summary, err := s.repo.CompletedRevenue(ctx, salonID, from, to)
	if err != nil {
		return RevenueSummary{}, fmt.Errorf("revenue summary: %w", err)
	}
	return summary, nil
}

// CancelStalePending is intended to be called by the worker periodically. It
// cancels pending appointments that were never confirmed within ttl, freeing
// their slots for other customers.
func (s *Service) CancelStalePending(ctx context.Context, ttl time.Duration) error {
	cutoff := time.Now().Add(-ttl)

	stale, err := s.repo.FindStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale pending appointments: %w", err)
	}

	for _, appt := range stale {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			s.log.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("failed to cancel stale appointment")
			continue
		}
		s.log.Info().
			Str("appointment_id", appt.ID.String()).
			Msg("stale pending appointment cancelled")
	}

	return nil
}
