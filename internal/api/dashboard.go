package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chairtime/chairtime/internal/billing"
	"github.com/chairtime/chairtime/internal/booking"
	"github.com/chairtime/chairtime/internal/salon"
)

func salonIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "salonID"))
	return id, err == nil
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		salonID, ok := salonIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salonID must be a valid UUID")
			return
		}

		q := r.URL.Query()

		var (
			appts []booking.Appointment
			err   error
		)
		if dateStr := q.Get("date"); dateStr != "" {
			day, parseErr := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			appts, err = svc.ListDay(r.Context(), salonID, day)
		} else {
			from, to, parseErr := parseRange(q.Get("from"), q.Get("to"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", parseErr.Error())
				return
			}
			appts, err = svc.ListRange(r.Context(), salonID, from, to)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func transitionHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		salonID, ok := salonIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salonID must be a valid UUID")
			return
		}

		apptID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req TransitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		to := booking.Status(req.Status)
		switch to {
		case booking.StatusConfirmed, booking.StatusCompleted, booking.StatusCancelled, booking.StatusNoShow:
		default:
			writeError(w, http.StatusBadRequest, "invalid_status", "status must be one of confirmed, completed, cancelled, no_show")
			return
		}

		appt, err := svc.Transition(r.Context(), salonID, apptID, to)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func revenueHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		salonID, ok := salonIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salonID must be a valid UUID")
			return
		}

		from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		summary, err := svc.Revenue(r.Context(), salonID, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, RevenueResponse{
			From:       from.Format("2006-01-02"),
			To:         to.Format("2006-01-02"),
			TotalCents: summary.TotalCents,
			Completed:  summary.Completed,
		})
	}
}

func checkoutHandler(bil *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		salonID, ok := salonIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salonID must be a valid UUID")
			return
		}

		url, err := bil.NewCheckoutSession(r.Context(), salonID)
		if err != nil {
			switch {
			case errors.Is(err, billing.ErrNotConfigured):
				writeError(w, http.StatusNotImplemented, "billing_not_configured", err.Error())
			case errors.Is(err, salon.ErrSalonNotFound):
				writeError(w, http.StatusNotFound, "salon_not_found", err.Error())
			default:
				writeError(w, http.StatusBadGateway, "checkout_failed", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, CheckoutResponse{URL: url})
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "storage_error", err.Error())
	}
}

// parseRange parses from/to day strings into a half-open window. Missing
// bounds default to the last 30 days ending tomorrow.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, -30)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)

	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		// Inclusive end day
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}

	return from, to, nil
}
