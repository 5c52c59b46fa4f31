package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// RevenueSummary aggregates completed appointments over a date range.
type RevenueSummary struct {
	TotalCents int64
	Completed  int
}

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListSameDay returns all non-cancelled appointments of the salon whose
	// start time falls on the same calendar day as day. A non-nil
	// professionalID narrows the set to that staff member.
	ListSameDay(ctx context.Context, salonID uuid.UUID, day time.Time, professionalID *uuid.UUID) ([]Appointment, error)

	ListByRange(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]Appointment, error)

	Insert(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateStatus is a compare-and-set: the row moves from -> to only if it
	// is still in from, otherwise ErrAppointmentNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	CompletedRevenue(ctx context.Context, salonID uuid.UUID, from, to time.Time) (RevenueSummary, error)

	// Expiry worker
	FindStalePending(ctx context.Context, cutoff time.Time) ([]Appointment, error)
}
