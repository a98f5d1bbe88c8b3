package entities

import (
	"fmt"
	"strings"
	"time"
)

// CalendarEvent is a new or replacement event written to the external calendar
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// Details is stored with the event so operator tooling can recover the patient contact data
	Details *AppointmentRequest
}

// NewAppointmentEvent builds the calendar event for a booking
func NewAppointmentEvent(req AppointmentRequest, start, end time.Time) CalendarEvent {
	details := req
	return CalendarEvent{
		Summary:     EventSummary(req.PatientName),
		Description: EventDescription(req),
		Start:       start,
		End:         end,
		Details:     &details,
	}
}

// EventSummary is the human-readable title of a booked appointment
func EventSummary(patientName string) string {
	return fmt.Sprintf("Dental Appointment - %s", patientName)
}

// EventDescription embeds the patient's contact details in the event body
func EventDescription(req AppointmentRequest) string {
	lines := []string{
		"Patient: " + req.PatientName,
		"Email: " + req.PatientEmail,
		"Phone: " + req.PatientPhone,
		"Service: " + req.ServiceType,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		lines = append(lines, "Notes: "+notes)
	}
	return strings.Join(lines, "\n")
}
