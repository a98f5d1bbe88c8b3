package providers

import (
	"context"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

// CalendarProvider wraps the external calendar that owns all appointment state.
// Implementations translate provider failures into pkg/errors tags.
type CalendarProvider interface {
	// ListBusyIntervals returns the spans of all events intersecting [from, to)
	ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error)

	// CreateEvent inserts an event without inviting attendees and returns its id
	CreateEvent(ctx context.Context, event entities.CalendarEvent) (string, error)

	// GetEvent reads a single event
	GetEvent(ctx context.Context, eventID string) (*entities.ScheduledAppointment, error)

	// UpdateEvent replaces the summary, description, and times of an event
	UpdateEvent(ctx context.Context, eventID string, event entities.CalendarEvent) error

	// DeleteEvent removes an event; deleting an already removed event succeeds
	DeleteEvent(ctx context.Context, eventID string) error

	// ListEvents returns the events starting in [from, to), ordered by start time
	ListEvents(ctx context.Context, from, to time.Time) ([]entities.ScheduledAppointment, error)
}
