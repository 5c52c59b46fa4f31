package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/metrics"
	"github.com/chairtime/chairtime/internal/salon"
)

func getSalonHandler(salons salon.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sal, err := salons.GetSalonBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, salon.ErrSalonNotFound) {
				writeError(w, http.StatusNotFound, "salon_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}

		services, err := salons.ListServices(r.Context(), sal.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}
		professionals, err := salons.ListProfessionals(r.Context(), sal.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toSalonResponse(sal, services, professionals))
	}
}

// availabilityHandler renders the advisory slot picker for a date. Its output
// is informational: the booking endpoint re-derives availability itself.
func availabilityHandler(svc *booking.Service, salons salon.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sal, err := salons.GetSalonBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, salon.ErrSalonNotFound) {
				writeError(w, http.StatusNotFound, "salon_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}

		dateStr := r.URL.Query().Get("date")
		date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var serviceID *uuid.UUID
		if raw := r.URL.Query().Get("service_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			serviceID = &id
		}

		professionalID, ok := parseProfessionalID(r.URL.Query().Get("professional_id"))
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "invalid_professional", "professional_id must be a valid UUID or \"any\"")
			return
		}

		slots, err := svc.Availability(r.Context(), sal, date, serviceID, professionalID)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}
		if slots == nil {
			slots = []string{}
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{Date: dateStr, Slots: slots})
	}
}

func createBookingHandler(svc *booking.Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// Presence is checked for all required fields before anything is
		// parsed, so a blank field always wins over a malformed one.
		if strings.TrimSpace(req.SalonID) == "" || strings.TrimSpace(req.ServiceID) == "" ||
			strings.TrimSpace(req.AppointmentDate) == "" ||
			strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
			m.BookingsRejected.WithLabelValues("missing_field").Inc()
			writeError(w, http.StatusBadRequest, "missing_field", "salon_id, service_id, appointment_date, customer_name and customer_phone are required")
			return
		}

		salonID, err := uuid.Parse(req.SalonID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salon_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		professionalID, ok := parseProfessionalID(req.ProfessionalID)
		if !ok {
			m.BookingsRejected.WithLabelValues("invalid_professional").Inc()
			writeError(w, http.StatusUnprocessableEntity, "invalid_professional", "professional_id must be a valid UUID or \"any\"")
			return
		}

		startTime, err := time.Parse(time.RFC3339, req.AppointmentDate)
		if err != nil {
			m.BookingsRejected.WithLabelValues("invalid_date").Inc()
			writeError(w, http.StatusBadRequest, "invalid_date", "appointment_date must be RFC 3339")
			return
		}

		var email *string
		if e := strings.TrimSpace(req.CustomerEmail); e != "" {
			email = &e
		}

		appt, err := svc.CreateAppointment(r.Context(), booking.CreateRequest{
			SalonID:        salonID,
			ServiceID:      serviceID,
			ProfessionalID: professionalID,
			StartTime:      startTime,
			CustomerName:   req.CustomerName,
			CustomerPhone:  req.CustomerPhone,
			CustomerEmail:  email,
		})
		if err != nil {
			handleCreateError(w, m, err)
			return
		}

		m.BookingsCreated.Inc()
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// parseProfessionalID maps the wire value to the internal representation:
// empty and "any" both mean unassigned, anything else must be a UUID.
func parseProfessionalID(raw string) (*uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == AnyProfessional {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func handleCreateError(w http.ResponseWriter, m *metrics.Metrics, err error) {
	switch {
	case errors.Is(err, booking.ErrMissingField):
		m.BookingsRejected.WithLabelValues("missing_field").Inc()
		writeError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, booking.ErrInvalidDate):
		m.BookingsRejected.WithLabelValues("invalid_date").Inc()
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, salon.ErrSalonNotFound):
		m.BookingsRejected.WithLabelValues("salon_not_found").Inc()
		writeError(w, http.StatusNotFound, "salon_not_found", err.Error())
	case errors.Is(err, salon.ErrServiceNotFound):
		m.BookingsRejected.WithLabelValues("service_not_found").Inc()
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidProfessional):
		m.BookingsRejected.WithLabelValues("invalid_professional").Inc()
		writeError(w, http.StatusUnprocessableEntity, "invalid_professional", err.Error())
	case errors.Is(err, booking.ErrOutsideHours):
		m.BookingsRejected.WithLabelValues("outside_hours").Inc()
		writeError(w, http.StatusConflict, "outside_hours", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		m.BookingsRejected.WithLabelValues("slot_taken").Inc()
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		m.BookingsRejected.WithLabelValues("slot_being_booked").Inc()
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		m.BookingsRejected.WithLabelValues("storage_error").Inc()
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, salon.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidProfessional):
		writeError(w, http.StatusUnprocessableEntity, "invalid_professional", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
	}
}
