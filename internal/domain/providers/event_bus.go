package providers

import (
	"context"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to appointment changes
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelAppointments carries every booking, cancellation, and reschedule
const EventChannelAppointments = "appointments:changes"
