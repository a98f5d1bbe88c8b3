package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// MockCalendar keeps events in memory for local development.
type MockCalendar struct {
	mu     sync.RWMutex
	events map[string]entities.ScheduledAppointment
}

// NewMockCalendar creates an empty in-memory calendar.
func NewMockCalendar() *MockCalendar {
	return &MockCalendar{events: make(map[string]entities.ScheduledAppointment)}
}

// ListBusyIntervals returns the spans of stored events intersecting [from, to).
func (m *MockCalendar) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error) {
	events, err := m.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	busy := make([]entities.BusyInterval, 0, len(events))
	for _, e := range events {
		busy = append(busy, entities.BusyInterval{Start: e.Start, End: e.End, EventID: e.EventID})
	}
	return busy, nil
}

// CreateEvent stores the event under a fresh id.
func (m *MockCalendar) CreateEvent(ctx context.Context, event entities.CalendarEvent) (string, error) {
	if !event.End.After(event.Start) {
		return "", apperrors.NewBookingFailedError("invalid event time range", nil)
	}

	id := "mock-" + uuid.New().String()
	m.mu.Lock()
	m.events[id] = toScheduledAppointment(id, event)
	m.mu.Unlock()
	return id, nil
}

// GetEvent returns a stored event.
func (m *MockCalendar) GetEvent(ctx context.Context, eventID string) (*entities.ScheduledAppointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[eventID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event %s not found", eventID))
	}
	return &e, nil
}

// UpdateEvent replaces a stored event.
func (m *MockCalendar) UpdateEvent(ctx context.Context, eventID string, event entities.CalendarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eventID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("event %s not found", eventID))
	}
	m.events[eventID] = toScheduledAppointment(eventID, event)
	return nil
}

// DeleteEvent removes an event; unknown ids are ignored.
func (m *MockCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	delete(m.events, eventID)
	m.mu.Unlock()
	return nil
}

// ListEvents returns stored events intersecting [from, to), ordered by start.
func (m *MockCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]entities.ScheduledAppointment, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid time range")
	}

	m.mu.RLock()
	out := make([]entities.ScheduledAppointment, 0, len(m.events))
	for _, e := range m.events {
		if e.Start.Before(to) && e.End.After(from) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func toScheduledAppointment(id string, event entities.CalendarEvent) entities.ScheduledAppointment {
	appt := entities.ScheduledAppointment{
		EventID: id,
		Summary: event.Summary,
		Start:   event.Start.UTC(),
		End:     event.End.UTC(),
	}
	if event.Details != nil {
		appt.Details = *event.Details
		appt.HasDetails = true
	}
	return appt
}
