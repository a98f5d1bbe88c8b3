package reminders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// ReminderSender delivers the reminder email
type ReminderSender interface {
	SendReminder(ctx context.Context, notice entities.AppointmentNotice) error
}

// Handler processes reminder tasks
type Handler struct {
	calendar providers.CalendarProvider
	sender   ReminderSender
	hours    config.BusinessHours
}

// NewHandler creates a reminder task handler
func NewHandler(calendar providers.CalendarProvider, sender ReminderSender, hours config.BusinessHours) *Handler {
	return &Handler{calendar: calendar, sender: sender, hours: hours}
}

// Register mounts the handler on an asynq mux
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendReminder, h.ProcessTask)
}

// ProcessTask sends the reminder unless the appointment was cancelled or moved
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var reminder entities.Reminder
	if err := json.Unmarshal(task.Payload(), &reminder); err != nil {
		return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := observability.LoggerFromContext(ctx).With().Str("event_id", reminder.EventID).Logger()

	appt, err := h.calendar.GetEvent(ctx, reminder.EventID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		logger.Info().Msg("Appointment no longer exists, dropping reminder")
		return nil
	}
	if err != nil {
		return err
	}
	if !appt.Start.Equal(reminder.Start) {
		logger.Info().Time("start", appt.Start).Msg("Appointment was rescheduled, dropping stale reminder")
		return nil
	}

	details := reminder.Appointment
	if appt.HasDetails {
		details = appt.Details
	}
	end := appt.End
	if end.IsZero() {
		end = appt.Start.Add(h.hours.SlotDuration)
	}

	notice := entities.AppointmentNotice{
		EventID:     reminder.EventID,
		Appointment: details,
		Start:       appt.Start,
		End:         end,
	}
	if err := h.sender.SendReminder(ctx, notice); err != nil {
		logger.Error().Err(err).Msg("Failed to send reminder")
		return err
	}
	return nil
}
