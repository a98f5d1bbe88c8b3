package entities

import "time"

// NotificationType represents the purpose of an outbound email
type NotificationType string

const (
	NotificationPatientConfirmation  NotificationType = "patient_confirmation"
	NotificationBusinessNotification NotificationType = "business_notification"
	NotificationReminder             NotificationType = "appointment_reminder"
	NotificationCancellation         NotificationType = "cancellation_notice"
)

// EmailMessage is a rendered email ready for delivery
type EmailMessage struct {
	Type        NotificationType
	FromName    string
	To          string
	Subject     string
	HTMLBody    string
	Attachments []EmailAttachment
}

// EmailAttachment is an in-memory file attached to an email
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AppointmentNotice is the appointment a notification is about
type AppointmentNotice struct {
	EventID     string
	Appointment AppointmentRequest
	Start       time.Time
	End         time.Time
}

// InviteMethod is the iTIP method of a calendar invite
type InviteMethod string

const (
	InviteMethodRequest InviteMethod = "REQUEST"
	InviteMethodCancel  InviteMethod = "CANCEL"
)

// CalendarInvite describes an iCalendar attachment sent with an email
type CalendarInvite struct {
	UID            string
	Method         InviteMethod
	Summary        string
	Description    string
	Location       string
	Start          time.Time
	End            time.Time
	OrganizerName  string
	OrganizerEmail string
	AttendeeName   string
	AttendeeEmail  string
	Stamp          time.Time
}
