package entities

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentEventType represents the type of appointment change
type AppointmentEventType string

const (
	AppointmentEventBooked      AppointmentEventType = "appointment.booked"
	AppointmentEventCancelled   AppointmentEventType = "appointment.cancelled"
	AppointmentEventRescheduled AppointmentEventType = "appointment.rescheduled"
)

// AppointmentEvent announces a change to the calendar so open booking widgets can refresh.
// It never carries patient contact data.
type AppointmentEvent struct {
	ID        string               `json:"id"`
	Type      AppointmentEventType `json:"type"`
	EventID   string               `json:"eventId"`
	Date      string               `json:"date"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewAppointmentChange creates an event for the slot [start, end) on date
func NewAppointmentChange(eventType AppointmentEventType, eventID string, date CalendarDate, start, end time.Time) *AppointmentEvent {
	return &AppointmentEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		EventID:   eventID,
		Date:      date.String(),
		Start:     start.UTC(),
		End:       end.UTC(),
		Timestamp: time.Now().UTC(),
	}
}
