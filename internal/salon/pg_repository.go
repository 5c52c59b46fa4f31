package salon

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairtime/chairtime/internal/schedule"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// parseHours normalizes a stored working-hours document. A document that does
// not parse degrades to an empty config (every day closed) instead of failing
// the read: availability for a broken config is "no slots", not an error.
func parseHours(raw []byte) schedule.WorkingHours {
	hours, err := schedule.Parse(raw)
	if err != nil {
		return schedule.WorkingHours{}
	}
	return hours
}

func scanSalon(row pgx.Row) (*Salon, error) {
	var s Salon
	var rawHours []byte

	err := row.Scan(
		&s.ID,
		&s.Slug,
		&s.Name,
		&s.Email,
		&s.Plan,
		&s.StripeCustomerID,
		&rawHours,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSalonNotFound
		}
		return nil, err
	}

	s.WorkingHours = parseHours(rawHours)
	return &s, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var sv Service

	err := row.Scan(
		&sv.ID,
		&sv.SalonID,
		&sv.Name,
		&sv.DurationMinutes,
		&sv.PriceCents,
		&sv.Active,
		&sv.CreatedAt,
		&sv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &sv, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	var rawHours []byte

	err := row.Scan(
		&p.ID,
		&p.SalonID,
		&p.Name,
		&rawHours,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	if rawHours != nil {
		p.WorkingHours = parseHours(rawHours)
		p.HasOwnHours = true
	}
	return &p, nil
}

// Interface methods

func (r *PgRepository) GetSalonByID(ctx context.Context, id uuid.UUID) (*Salon, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, name, email, plan, stripe_customer_id, working_hours, created_at, updated_at
		FROM salons
		WHERE id = $1
	`, id)
	return scanSalon(row)
}

func (r *PgRepository) GetSalonBySlug(ctx context.Context, slug string) (*Salon, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, name, email, plan, stripe_customer_id, working_hours, created_at, updated_at
		FROM salons
		WHERE slug = $1
	`, slug)
	return scanSalon(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, salon_id, name, duration_minutes, price_cents, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, salonID uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, name, duration_minutes, price_cents, active, created_at, updated_at
		FROM services
		WHERE salon_id = $1 AND active
		ORDER BY name
	`, salonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		sv, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, salon_id, name, working_hours, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) ListProfessionals(ctx context.Context, salonID uuid.UUID) ([]Professional, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, salon_id, name, working_hours, created_at, updated_at
		FROM professionals
		WHERE salon_id = $1
		ORDER BY name
	`, salonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan Plan, stripeCustomerID *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE salons
		SET plan = $2,
		    stripe_customer_id = COALESCE($3, stripe_customer_id),
		    updated_at = now()
		WHERE id = $1
	`, id, plan, stripeCustomerID)
	if err != nil {
		return fmt.Errorf("update salon plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSalonNotFound
	}
	return nil
}
