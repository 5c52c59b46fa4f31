package salon

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrSalonNotFound        = errors.New("salon not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrProfessionalNotFound = errors.New("professional not found")
)

// Repository contains all tenant-side DB interactions needed by the booking
// and billing services.
type Repository interface {
	GetSalonByID(ctx context.Context, id uuid.UUID) (*Salon, error)
	GetSalonBySlug(ctx context.Context, slug string) (*Salon, error)

	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, salonID uuid.UUID) ([]Service, error)

	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	ListProfessionals(ctx context.Context, salonID uuid.UUID) ([]Professional, error)

	// Billing
	UpdatePlan(ctx context.Context, id uuid.UUID, plan Plan, stripeCustomerID *string) error
}
