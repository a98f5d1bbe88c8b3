package services

import (
	"context"
	"time"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// DefaultUpcomingDays is the listing window used when none is given
const DefaultUpcomingDays = 7

// CancellationResult reports what happened when an appointment was cancelled
type CancellationResult struct {
	EventID  string
	Notified bool
}

// AppointmentManagementService handles operator actions on booked appointments
type AppointmentManagementService struct {
	calendar      providers.CalendarProvider
	availability  *AvailabilityService
	notifications *NotificationService
	reminders     providers.ReminderScheduler
	events        providers.EventBus
	now           func() time.Time
}

// NewAppointmentManagementService creates a new management service. reminders and events may be nil.
func NewAppointmentManagementService(
	calendar providers.CalendarProvider,
	availability *AvailabilityService,
	notifications *NotificationService,
	reminders providers.ReminderScheduler,
	events providers.EventBus,
) *AppointmentManagementService {
	return &AppointmentManagementService{
		calendar:      calendar,
		availability:  availability,
		notifications: notifications,
		reminders:     reminders,
		events:        events,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for listing windows and the past guard
func (s *AppointmentManagementService) WithClock(now func() time.Time) *AppointmentManagementService {
	s.now = now
	return s
}

// ListUpcoming returns the appointments starting within the next days
func (s *AppointmentManagementService) ListUpcoming(ctx context.Context, days int) ([]entities.ScheduledAppointment, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	from := s.now().UTC()
	to := from.AddDate(0, 0, days)
	return s.calendar.ListEvents(ctx, from, to)
}

// Cancel deletes the appointment's event, drops its reminder, and optionally emails the patient
func (s *AppointmentManagementService) Cancel(ctx context.Context, eventID string, notify bool) (*CancellationResult, error) {
	logger := observability.LoggerFromContext(ctx).With().Str("event_id", eventID).Logger()

	appt, err := s.calendar.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.calendar.DeleteEvent(ctx, eventID); err != nil {
		return nil, err
	}
	logger.Info().Msg("Appointment cancelled")

	if s.reminders != nil {
		if err := s.reminders.CancelReminder(ctx, eventID, appt.Start); err != nil {
			logger.Warn().Err(err).Msg("Failed to cancel reminder")
		}
	}
	s.publish(ctx, entities.AppointmentEventCancelled, appt)

	result := &CancellationResult{EventID: eventID}
	if notify && appt.HasDetails {
		notice := entities.AppointmentNotice{
			EventID:     eventID,
			Appointment: appt.Details,
			Start:       appt.Start,
			End:         appt.End,
		}
		if err := s.notifications.SendCancellationNotice(ctx, notice); err != nil {
			logger.Warn().Err(err).Msg("Failed to send cancellation notice")
		} else {
			result.Notified = true
		}
	}
	return result, nil
}

// Reschedule moves an appointment to a new business slot
func (s *AppointmentManagementService) Reschedule(ctx context.Context, eventID, rawDate, clock string) (*entities.ScheduledAppointment, error) {
	logger := observability.LoggerFromContext(ctx).With().Str("event_id", eventID).Logger()

	slot, date, err := resolveSlot(rawDate, clock, s.availability.Hours(), s.now())
	if err != nil {
		return nil, err
	}

	appt, err := s.calendar.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !appt.HasDetails {
		return nil, apperrors.NewValidationError("Event was not booked through the website and cannot be rescheduled here")
	}

	current, err := s.availability.availability(ctx, date, eventID)
	if err != nil {
		logger.Warn().Err(err).Msg("Availability re-check failed, continuing with reschedule")
	} else if latest, ok := findSlot(current, slot.Start); ok && !latest.Available {
		return nil, apperrors.NewBookingConflictError("The selected time slot is not available", nil)
	}

	details := appt.Details
	details.Date = date.String()
	details.Time = clock
	if err := s.calendar.UpdateEvent(ctx, eventID, entities.NewAppointmentEvent(details, slot.Start, slot.End)); err != nil {
		return nil, err
	}
	logger.Info().Str("date", details.Date).Str("time", clock).Msg("Appointment rescheduled")

	updated := &entities.ScheduledAppointment{
		EventID:    eventID,
		Summary:    entities.EventSummary(details.PatientName),
		Start:      slot.Start,
		End:        slot.End,
		Details:    details,
		HasDetails: true,
	}

	if s.reminders != nil {
		if err := s.reminders.CancelReminder(ctx, eventID, appt.Start); err != nil {
			logger.Warn().Err(err).Msg("Failed to cancel previous reminder")
		}
		reminder := entities.Reminder{EventID: eventID, Appointment: details, Start: slot.Start}
		if err := s.reminders.ScheduleReminder(ctx, reminder); err != nil {
			logger.Warn().Err(err).Msg("Failed to schedule reminder")
		}
	}
	s.publish(ctx, entities.AppointmentEventRescheduled, updated)

	return updated, nil
}

func (s *AppointmentManagementService) publish(ctx context.Context, eventType entities.AppointmentEventType, appt *entities.ScheduledAppointment) {
	if s.events == nil {
		return
	}
	loc, err := s.availability.Hours().Location()
	if err != nil {
		return
	}
	event := entities.NewAppointmentChange(eventType, appt.EventID, entities.DateOf(appt.Start, loc), appt.Start, appt.End)
	if err := s.events.Publish(ctx, providers.EventChannelAppointments, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", appt.EventID).Msg("Failed to publish appointment change")
	}
}
