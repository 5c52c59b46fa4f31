package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// transitions is the full appointment lifecycle. Terminal states have no
// outgoing edges.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether the status may move to the target state.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment is one booked visit. ProfessionalID is nil when the customer
// did not pick a specific staff member ("any"). DurationMinutes and
// PriceCents are copied from the service at booking time so later edits to
// the service do not rewrite history.
type Appointment struct {
	ID              uuid.UUID
	SalonID         uuid.UUID
	ServiceID       uuid.UUID
	ProfessionalID  *uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	StartTime       time.Time
	DurationMinutes int
	PriceCents      int64
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open interval [start, start+d) collides
// with this appointment's interval. Both sides are compared at wall-clock
// minute precision and occupy at least their start minute, so an exact
// same-minute start is always a collision even for a zero-duration row.
func (a Appointment) Overlaps(start time.Time, d time.Duration) bool {
	aDur := time.Duration(a.DurationMinutes) * time.Minute
	if aDur < time.Minute {
		aDur = time.Minute
	}
	if d < time.Minute {
		d = time.Minute
	}
	aStart := a.StartTime.Truncate(time.Minute)
	aEnd := aStart.Add(aDur)
	bStart := start.Truncate(time.Minute)
	bEnd := bStart.Add(d)
	return bStart.Before(aEnd) && aStart.Before(bEnd)
}
