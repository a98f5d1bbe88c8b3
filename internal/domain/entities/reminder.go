package entities

import "time"

// Reminder is the payload of a scheduled reminder email
type Reminder struct {
	EventID     string             `json:"eventId"`
	Appointment AppointmentRequest `json:"appointment"`
	Start       time.Time          `json:"start"`
	SendAt      time.Time          `json:"sendAt"`
}
