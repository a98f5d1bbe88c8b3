package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentRequest is a patient's booking request as submitted by the booking widget.
// Date is a local calendar date (YYYY-MM-DD) and Time a local wall-clock time (HH:MM)
// in the clinic's business zone.
type AppointmentRequest struct {
	PatientName  string `json:"patientName" validate:"required,min=2"`
	PatientEmail string `json:"patientEmail" validate:"required,email"`
	PatientPhone string `json:"patientPhone" validate:"required,min=10"`
	ServiceType  string `json:"serviceType" validate:"required,service"`
	Date         string `json:"date" validate:"required,calendardate"`
	Time         string `json:"time" validate:"required,clocktime"`
	Notes        string `json:"notes"`
}

// Appointment is a booked appointment echoed back to the client
type Appointment struct {
	AppointmentRequest
	ID        string            `json:"id"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// BookingConfirmation is the result of a completed booking
type BookingConfirmation struct {
	EventID     string         `json:"eventId"`
	EmailsSent  bool           `json:"emailsSent"`
	Appointment Appointment    `json:"appointment"`
	Emails      []EmailOutcome `json:"-"`
	Transitions []BookingState `json:"-"`
}

// BookingState is a step of a single booking attempt
type BookingState string

const (
	BookingStateValidated               BookingState = "validated"
	BookingStateAvailabilityReconfirmed BookingState = "availability_reconfirmed"
	BookingStateCalendarEventCreated    BookingState = "calendar_event_created"
	BookingStateNotificationsAttempted  BookingState = "notifications_attempted"
	BookingStateCompleted               BookingState = "completed"
	BookingStateAborted                 BookingState = "aborted"
)

// EmailOutcome records the result of one notification send
type EmailOutcome struct {
	Type NotificationType
	Err  error
}

// Sent reports whether the email was delivered to the relay
func (o EmailOutcome) Sent() bool {
	return o.Err == nil
}

// ScheduledAppointment is an appointment read back from the calendar
type ScheduledAppointment struct {
	EventID string             `json:"eventId"`
	Summary string             `json:"summary"`
	Start   time.Time          `json:"start"`
	End     time.Time          `json:"end"`
	Details AppointmentRequest `json:"details"`
	// HasDetails is false for events that were not created by this service
	HasDetails bool `json:"hasDetails"`
}
