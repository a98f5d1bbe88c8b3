package routes

import (
	"net/http"

	"github.com/zatekoja/clinicbooking/internal/api/handlers"
	"github.com/zatekoja/clinicbooking/internal/api/middleware"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler
	sseHandler         *handlers.SSEHandler

	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. rateLimiter may be nil when Redis is disabled.
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	sseHandler *handlers.SSEHandler,
	rateLimiter *middleware.RateLimiter,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		appointmentHandler: appointmentHandler,
		sseHandler:         sseHandler,
		rateLimiter:        rateLimiter,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", handlers.Health)

	// Appointment endpoints
	var availability http.Handler = http.HandlerFunc(r.appointmentHandler.GetAvailability)
	availability = middleware.Compression(middleware.ETag(availability))
	r.mux.Handle("GET /api/appointments/availability", availability)

	var book http.Handler = http.HandlerFunc(r.appointmentHandler.BookAppointment)
	if r.rateLimiter != nil {
		book = r.rateLimiter.Middleware(book)
	}
	r.mux.Handle("POST /api/appointments/book", book)

	r.mux.HandleFunc("GET /api/appointments/test-config", r.appointmentHandler.TestConfig)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/appointments/stream", r.sseHandler.StreamAppointments)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
