package providers

import (
	"context"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

// ReminderScheduler defers reminder emails until shortly before an appointment
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, reminder entities.Reminder) error
	// CancelReminder drops the reminder scheduled for the appointment starting at start
	CancelReminder(ctx context.Context, eventID string, start time.Time) error
}
