package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, salon_id, service_id, professional_id,
	customer_name, customer_phone, customer_email,
	start_time, duration_minutes, price_cents, status,
	created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.SalonID,
		&a.ServiceID,
		&a.ProfessionalID,
		&a.CustomerName,
		&a.CustomerPhone,
		&a.CustomerEmail,
		&a.StartTime,
		&a.DurationMinutes,
		&a.PriceCents,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// dayBounds returns midnight of day and midnight of the next day in day's
// location, the half-open window covering one calendar date.
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// Interface methods

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListSameDay(ctx context.Context, salonID uuid.UUID, day time.Time, professionalID *uuid.UUID) ([]Appointment, error) {
	from, to := dayBounds(day)

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE salon_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		  AND status <> 'cancelled'
		  AND ($4::uuid IS NULL OR professional_id = $4)
		ORDER BY start_time
	`, salonID, from, to, professionalID)
	if err != nil {
		return nil, err
	}

	return collectAppointments(rows)
}

func (r *PgRepository) ListByRange(ctx context.Context, salonID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE salon_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`, salonID, from, to)
	if err != nil {
		return nil, err
	}

	return collectAppointments(rows)
}

func (r *PgRepository) Insert(ctx context.Context, appt *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, salon_id, service_id, professional_id,
			 customer_name, customer_phone, customer_email,
			 start_time, duration_minutes, price_cents, status,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, appt.SalonID, appt.ServiceID, appt.ProfessionalID,
		appt.CustomerName, appt.CustomerPhone, appt.CustomerEmail,
		appt.StartTime, appt.DurationMinutes, appt.PriceCents, appt.Status)

	created, err := scanAppointment(row)
	if err != nil {
		// The partial unique index on live (salon, professional, start_time)
		// rows is the storage-level last line of defense against a double
		// booking that slipped past the lock.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) CompletedRevenue(ctx context.Context, salonID uuid.UUID, from, to time.Time) (RevenueSummary, error) {
	var summary RevenueSummary

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(price_cents), 0), COUNT(*)
		FROM appointments
		WHERE salon_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		  AND status = 'completed'
	`, salonID, from, to).Scan(&summary.TotalCents, &summary.Completed)
	if err != nil {
		return RevenueSummary{}, err
	}

	return summary, nil
}

func (r *PgRepository) FindStalePending(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND created_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}

	return collectAppointments(rows)
}
