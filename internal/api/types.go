package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/salon"
)

// AnyProfessional is the sentinel a customer sends when they do not care who
// serves them.
const AnyProfessional = "any"

type CreateBookingRequest struct {
	SalonID         string `json:"salon_id"`
	ServiceID       string `json:"service_id"`
	ProfessionalID  string `json:"professional_id,omitempty"`
	AppointmentDate string `json:"appointment_date"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	SalonID         uuid.UUID  `json:"salon_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	ProfessionalID  *uuid.UUID `json:"professional_id,omitempty"`
	CustomerName    string     `json:"customer_name"`
	CustomerPhone   string     `json:"customer_phone"`
	CustomerEmail   *string    `json:"customer_email,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	PriceCents      int64      `json:"price_cents"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		SalonID:         a.SalonID,
		ServiceID:       a.ServiceID,
		ProfessionalID:  a.ProfessionalID,
		CustomerName:    a.CustomerName,
		CustomerPhone:   a.CustomerPhone,
		CustomerEmail:   a.CustomerEmail,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		PriceCents:      a.PriceCents,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
	}
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
}

type ProfessionalResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SalonResponse struct {
	ID            uuid.UUID              `json:"id"`
	Slug          string                 `json:"slug"`
	Name          string                 `json:"name"`
	Services      []ServiceResponse      `json:"services"`
	Professionals []ProfessionalResponse `json:"professionals"`
}

func toSalonResponse(s *salon.Salon, services []salon.Service, professionals []salon.Professional) SalonResponse {
	resp := SalonResponse{
		ID:            s.ID,
		Slug:          s.Slug,
		Name:          s.Name,
		Services:      make([]ServiceResponse, 0, len(services)),
		Professionals: make([]ProfessionalResponse, 0, len(professionals)),
	}
	for _, sv := range services {
		resp.Services = append(resp.Services, ServiceResponse{
			ID:              sv.ID,
			Name:            sv.Name,
			DurationMinutes: sv.DurationMinutes,
			PriceCents:      sv.PriceCents,
		})
	}
	for _, p := range professionals {
		resp.Professionals = append(resp.Professionals, ProfessionalResponse{ID: p.ID, Name: p.Name})
	}
	return resp
}

type AvailabilityResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type RevenueResponse struct {
	From       string `json:"from"`
	To         string `json:"to"`
	TotalCents int64  `json:"total_cents"`
	Completed  int    `json:"completed"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
