package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// AvailabilityService computes the slots of a business day
type AvailabilityService interface {
	GetAvailability(ctx context.Context, date entities.CalendarDate) ([]entities.TimeSlot, error)
	Hours() config.BusinessHours
}

// BookingService books a single appointment
type BookingService interface {
	Book(ctx context.Context, req entities.AppointmentRequest) (*entities.BookingConfirmation, error)
}

// ConfigReporter summarizes the deployment's configuration
type ConfigReporter interface {
	Report(ctx context.Context) *services.ConfigReport
}

// BookingResponse is the body of a successful booking
type BookingResponse struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	EventID     string               `json:"eventId"`
	EmailsSent  bool                 `json:"emailsSent"`
	Appointment entities.Appointment `json:"appointment"`
}

var (
	availabilityErrors = errorMessages{
		configuration: "Calendar service is not properly configured",
		upstream:      "Calendar service temporarily unavailable",
		internal:      "Failed to check availability. Please try again later.",
	}
	bookingErrors = errorMessages{
		configuration: "Calendar service is not properly configured. Please contact support.",
		upstream:      "Failed to book appointment. Please try again or contact support.",
		internal:      "Failed to book appointment. Please try again or contact support.",
	}
)

// maxBookingBody caps the booking request size
const maxBookingBody = 64 << 10

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	availability AvailabilityService
	booking      BookingService
	config       ConfigReporter
	now          func() time.Time
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(availability AvailabilityService, booking BookingService, reporter ConfigReporter) *AppointmentHandler {
	return &AppointmentHandler{
		availability: availability,
		booking:      booking,
		config:       reporter,
		now:          time.Now,
	}
}

// WithClock overrides the time source used for the past-date check
func (h *AppointmentHandler) WithClock(now func() time.Time) *AppointmentHandler {
	h.now = now
	return h
}

// GetAvailability handles GET /api/appointments/availability?date=YYYY-MM-DD
func (h *AppointmentHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Date parameter is required")
		return
	}

	date, err := services.ParseCalendarDate(raw)
	if err != nil {
		respondWithAppError(w, r, err, availabilityErrors)
		return
	}
	if err := services.ValidateNotPast(date, h.now(), h.availability.Hours()); err != nil {
		respondWithAppError(w, r, err, availabilityErrors)
		return
	}

	slots, err := h.availability.GetAvailability(r.Context(), date)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("requested_date", raw).Msg("Error checking availability")
		respondWithAppError(w, r, err, availabilityErrors)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300, stale-while-revalidate=60")
	w.Header().Set("CDN-Cache-Control", "max-age=300")
	respondWithJSON(w, http.StatusOK, slots)
}

// BookAppointment handles POST /api/appointments/book
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req entities.AppointmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookingBody)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	confirmation, err := h.booking.Book(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err, bookingErrors)
		return
	}

	respondWithJSON(w, http.StatusCreated, BookingResponse{
		Success:     true,
		Message:     "Appointment booked successfully",
		EventID:     confirmation.EventID,
		EmailsSent:  confirmation.EmailsSent,
		Appointment: confirmation.Appointment,
	})
}

// TestConfig handles GET /api/appointments/test-config. It always answers 200.
func (h *AppointmentHandler) TestConfig(w http.ResponseWriter, r *http.Request) {
	report := h.config.Report(r.Context())
	if report == nil {
		report = &services.ConfigReport{
			Status:           services.ConfigStatusError,
			Message:          "Configuration check failed",
			MissingVariables: []string{},
		}
	}
	respondWithJSON(w, http.StatusOK, report)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
