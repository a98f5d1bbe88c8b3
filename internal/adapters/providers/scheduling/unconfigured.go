package scheduling

import (
	"context"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// UnconfiguredCalendar answers every call with a configuration error naming the missing variables
type UnconfiguredCalendar struct {
	missing []string
}

// NewUnconfiguredCalendar creates a calendar stand-in for a deployment without credentials
func NewUnconfiguredCalendar(missing []string) *UnconfiguredCalendar {
	return &UnconfiguredCalendar{missing: missing}
}

func (u *UnconfiguredCalendar) err() error {
	return apperrors.NewConfigurationError("Google Calendar is not configured", u.missing...)
}

func (u *UnconfiguredCalendar) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error) {
	return nil, u.err()
}

func (u *UnconfiguredCalendar) CreateEvent(ctx context.Context, event entities.CalendarEvent) (string, error) {
	return "", u.err()
}

func (u *UnconfiguredCalendar) GetEvent(ctx context.Context, eventID string) (*entities.ScheduledAppointment, error) {
	return nil, u.err()
}

func (u *UnconfiguredCalendar) UpdateEvent(ctx context.Context, eventID string, event entities.CalendarEvent) error {
	return u.err()
}

func (u *UnconfiguredCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	return u.err()
}

func (u *UnconfiguredCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]entities.ScheduledAppointment, error) {
	return nil, u.err()
}
