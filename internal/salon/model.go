package salon

import (
	"time"

	"github.com/google/uuid"

	"github.com/chairtime/chairtime/internal/schedule"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Salon is a tenant account. WorkingHours is the salon-wide default window;
// professionals may carry their own override.
type Salon struct {
	ID               uuid.UUID
	Slug             string
	Name             string
	Email            string
	Plan             Plan
	StripeCustomerID *string
	WorkingHours     schedule.WorkingHours
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Service struct {
	ID              uuid.UUID
	SalonID         uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Professional is a staff member. A non-nil WorkingHours fully replaces the
// salon's configuration when this professional is requested explicitly.
type Professional struct {
	ID           uuid.UUID
	SalonID      uuid.UUID
	Name         string
	WorkingHours schedule.WorkingHours
	HasOwnHours  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
