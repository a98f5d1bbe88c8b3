package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicbooking/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicbooking/internal/api/handlers"
	"github.com/zatekoja/clinicbooking/internal/api/middleware"
	"github.com/zatekoja/clinicbooking/internal/api/routes"
	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

type nopMailer struct{}

func (nopMailer) Send(ctx context.Context, msg *entities.EmailMessage) error { return nil }
func (nopMailer) Verify(ctx context.Context) error                          { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	calendar := scheduling.NewMockCalendar()
	hours := config.DefaultBusinessHours

	notifications, err := services.NewNotificationService(nopMailer{}, nil, services.ClinicInfo{Name: "Dental Clinic"}, nil)
	require.NoError(t, err)
	availability := services.NewAvailabilityService(calendar, hours, nil)
	booking := services.NewBookingService(calendar, availability, notifications, nil, nil, nil)
	status := services.NewConfigStatusService(&config.Config{}, notifications)

	appointments := handlers.NewAppointmentHandler(availability, booking, status)
	sse := handlers.NewSSEHandler(nil)

	return routes.NewRouter(appointments, sse, nil, []string{"https://clinic.example"}, nil).SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_AvailabilityHasETag(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/availability?date=2099-06-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/availability?date=2099-06-01", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestRouter_MethodMismatch(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/book", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_StreamWithoutBus(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Preflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/appointments/book", nil)
	req.Header.Set("Origin", "https://clinic.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_TestConfig(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/test-config", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
