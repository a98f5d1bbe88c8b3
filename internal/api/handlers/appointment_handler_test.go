package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicbooking/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicbooking/internal/api/handlers"
	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

var apiNow = time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)

type stubMailer struct {
	mu   sync.Mutex
	sent []*entities.EmailMessage
	err  error
}

func (m *stubMailer) Send(ctx context.Context, msg *entities.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *stubMailer) Verify(ctx context.Context) error { return m.err }

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestHandler(t *testing.T, calendar providers.CalendarProvider, mailer providers.Mailer) *handlers.AppointmentHandler {
	t.Helper()
	clock := func() time.Time { return apiNow }
	hours := config.DefaultBusinessHours

	notifications, err := services.NewNotificationService(mailer, nil,
		services.ClinicInfo{Name: "Dental Clinic", Email: "front@clinic.example"}, nil)
	require.NoError(t, err)

	availability := services.NewAvailabilityService(calendar, hours, nil)
	booking := services.NewBookingService(calendar, availability, notifications, nil, nil, nil).WithClock(clock)
	status := services.NewConfigStatusService(&config.Config{}, notifications)

	return handlers.NewAppointmentHandler(availability, booking, status).WithClock(clock)
}

func validBooking() map[string]string {
	return map[string]string{
		"patientName":  "Amina Haddad",
		"patientEmail": "amina@example.com",
		"patientPhone": "+213555123456",
		"serviceType":  "Teeth Cleaning",
		"date":         "2025-06-02",
		"time":         "10:00",
		"notes":        "",
	}
}

func postBooking(t *testing.T, handler *handlers.AppointmentHandler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler.BookAppointment(w, req)
	return w
}

func getAvailability(handler *handlers.AppointmentHandler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/appointments/availability"+query, nil)
	w := httptest.NewRecorder()
	handler.GetAvailability(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetAvailability_EmptyDay(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	w := getAvailability(handler, "?date=2025-06-02")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300, stale-while-revalidate=60", w.Header().Get("Cache-Control"))
	assert.Equal(t, "max-age=300", w.Header().Get("CDN-Cache-Control"))

	var slots []entities.TimeSlot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots, 8)

	// 09:00 in Africa/Algiers is 08:00 UTC
	first := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	for i, slot := range slots {
		assert.True(t, slot.Available)
		assert.True(t, first.Add(time.Duration(i)*time.Hour).Equal(slot.Start))
		assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
	}
}

func TestGetAvailability_BookedSlot(t *testing.T) {
	calendar := scheduling.NewMockCalendar()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	_, err := calendar.CreateEvent(context.Background(), entities.CalendarEvent{
		Summary: "Staff meeting", Start: start, End: start.Add(time.Hour),
	})
	require.NoError(t, err)

	handler := newTestHandler(t, calendar, &stubMailer{})
	w := getAvailability(handler, "?date=2025-06-02")
	require.Equal(t, http.StatusOK, w.Code)

	var slots []entities.TimeSlot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots, 8)
	for i, slot := range slots {
		assert.Equal(t, i != 1, slot.Available, "slot %d", i)
	}
}

func TestGetAvailability_InvalidDates(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{name: "missing", query: "", message: "Date parameter is required"},
		{name: "bad shape", query: "?date=06/02/2025", message: "Invalid date format. Use YYYY-MM-DD"},
		{name: "non-existent", query: "?date=2025-02-30", message: "Invalid date: 2025-02-30"},
		{name: "past", query: "?date=2025-05-29", message: "Cannot check availability for past dates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getAvailability(handler, tt.query)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Error)
		})
	}
}

func TestGetAvailability_Today(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})
	w := getAvailability(handler, "?date=2025-05-30")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetAvailability_Unconfigured(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewUnconfiguredCalendar([]string{"GOOGLE_PRIVATE_KEY"}), &stubMailer{})

	w := getAvailability(handler, "?date=2025-06-02")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Calendar service is not properly configured", decodeError(t, w).Error)
}

// busyErrorCalendar fails every busy-interval lookup with err
type busyErrorCalendar struct {
	*scheduling.MockCalendar
	err error
}

func (c *busyErrorCalendar) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error) {
	return nil, c.err
}

func TestGetAvailability_CalendarErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{
			name:     "unknown calendar",
			err:      apperrors.NewConfigurationError("calendar list_busy: calendar not found", "GOOGLE_CALENDAR_ID"),
			status:   http.StatusServiceUnavailable,
			expected: "Calendar service is not properly configured",
		},
		{
			name:     "not found is never exposed",
			err:      apperrors.NewNotFoundError("calendar list_busy: event not found"),
			status:   http.StatusInternalServerError,
			expected: "Failed to check availability. Please try again later.",
		},
		{
			name:     "upstream down",
			err:      apperrors.NewUpstreamUnavailableError("calendar list_busy failed", errors.New("503")),
			status:   http.StatusServiceUnavailable,
			expected: "Calendar service temporarily unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar := &busyErrorCalendar{MockCalendar: scheduling.NewMockCalendar(), err: tt.err}
			handler := newTestHandler(t, calendar, &stubMailer{})

			w := getAvailability(handler, "?date=2025-06-02")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.expected, decodeError(t, w).Error)
		})
	}
}

func TestBookAppointment_Success(t *testing.T) {
	calendar := scheduling.NewMockCalendar()
	mailer := &stubMailer{}
	handler := newTestHandler(t, calendar, mailer)

	w := postBooking(t, handler, validBooking())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		EventID     string `json:"eventId"`
		EmailsSent  bool   `json:"emailsSent"`
		Appointment struct {
			ID          string    `json:"id"`
			Status      string    `json:"status"`
			PatientName string    `json:"patientName"`
			Date        string    `json:"date"`
			Time        string    `json:"time"`
			CreatedAt   time.Time `json:"createdAt"`
		} `json:"appointment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.Equal(t, "Appointment booked successfully", body.Message)
	assert.NotEmpty(t, body.EventID)
	assert.True(t, body.EmailsSent)
	assert.Equal(t, body.EventID, body.Appointment.ID)
	assert.Equal(t, "confirmed", body.Appointment.Status)
	assert.Equal(t, "Amina Haddad", body.Appointment.PatientName)
	assert.Equal(t, "2025-06-02", body.Appointment.Date)
	assert.Equal(t, "10:00", body.Appointment.Time)
	assert.True(t, apiNow.Equal(body.Appointment.CreatedAt))
	assert.Equal(t, 2, mailer.count())

	appt, err := calendar.GetEvent(context.Background(), body.EventID)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC).Equal(appt.Start))

	// The booked slot is no longer offered
	w = getAvailability(handler, "?date=2025-06-02")
	var slots []entities.TimeSlot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.False(t, slots[1].Available)
}

func TestBookAppointment_InvalidEmail(t *testing.T) {
	calendar := scheduling.NewMockCalendar()
	handler := newTestHandler(t, calendar, &stubMailer{})

	req := validBooking()
	req["patientEmail"] = "not-an-email"
	w := postBooking(t, handler, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Invalid input data", body.Error)
	require.NotEmpty(t, body.Details)

	var fields []string
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "patientEmail")

	events, err := calendar.ListEvents(context.Background(), apiNow, apiNow.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBookAppointment_InvalidJSON(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.BookAppointment(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookAppointment_Past(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	req := validBooking()
	req["date"] = "2025-05-29"
	w := postBooking(t, handler, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot book appointments in the past", decodeError(t, w).Error)
}

func TestBookAppointment_SlotTaken(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	require.Equal(t, http.StatusCreated, postBooking(t, handler, validBooking()).Code)

	w := postBooking(t, handler, validBooking())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "The selected time slot is no longer available", decodeError(t, w).Error)
}

func TestBookAppointment_EmailFailure(t *testing.T) {
	mailer := &stubMailer{err: errors.New("relay down")}
	handler := newTestHandler(t, scheduling.NewMockCalendar(), mailer)

	w := postBooking(t, handler, validBooking())
	require.Equal(t, http.StatusCreated, w.Code)

	var body handlers.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, body.EmailsSent)
}

func TestBookAppointment_Unconfigured(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewUnconfiguredCalendar([]string{"GOOGLE_CALENDAR_ID"}), &stubMailer{})

	w := postBooking(t, handler, validBooking())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTestConfig(t *testing.T) {
	handler := newTestHandler(t, scheduling.NewMockCalendar(), &stubMailer{})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/test-config", nil)
	w := httptest.NewRecorder()
	handler.TestConfig(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var report services.ConfigReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, services.ConfigStatusIncomplete, report.Status)
	assert.Equal(t, 10, report.TotalMissing)
	assert.False(t, report.Services.Email.Tested)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
