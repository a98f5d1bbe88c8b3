package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// BookingService books appointments into the calendar and notifies patient and clinic
type BookingService struct {
	calendar      providers.CalendarProvider
	availability  *AvailabilityService
	notifications *NotificationService
	validator     *RequestValidator
	reminders     providers.ReminderScheduler
	events        providers.EventBus
	metrics       *observability.Metrics
	now           func() time.Time
}

// NewBookingService creates a new booking service. reminders and events may be nil.
func NewBookingService(
	calendar providers.CalendarProvider,
	availability *AvailabilityService,
	notifications *NotificationService,
	reminders providers.ReminderScheduler,
	events providers.EventBus,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		calendar:      calendar,
		availability:  availability,
		notifications: notifications,
		validator:     NewRequestValidator(),
		reminders:     reminders,
		events:        events,
		metrics:       metrics,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for the past-booking guard
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// bookingAttempt tracks the state transitions of one Book call
type bookingAttempt struct {
	ctx         context.Context
	transitions []entities.BookingState
}

func (a *bookingAttempt) advance(state entities.BookingState) {
	a.transitions = append(a.transitions, state)
	observability.LoggerFromContext(a.ctx).Debug().Str("booking_state", string(state)).Msg("Booking state transition")
}

// Book validates the request, re-checks the slot, creates the calendar event, and sends
// both notification emails. Email failures are reported in the result, never as an error.
func (s *BookingService) Book(ctx context.Context, req entities.AppointmentRequest) (*entities.BookingConfirmation, error) {
	ctx, span := observability.StartSpan(ctx, "booking.book")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	attempt := &bookingAttempt{ctx: ctx}
	abort := func(err error) (*entities.BookingConfirmation, error) {
		attempt.advance(entities.BookingStateAborted)
		observability.RecordError(span, err)
		observability.RecordBookingOutcome(ctx, s.metrics, outcomeOf(err))
		return nil, err
	}

	// Validated
	slot, date, err := s.validate(req)
	if err != nil {
		return abort(err)
	}
	attempt.advance(entities.BookingStateValidated)
	observability.SetSpanAttributes(span,
		attribute.String("booking.date", req.Date),
		attribute.String("booking.time", req.Time),
		attribute.String("booking.service", req.ServiceType),
	)

	// AvailabilityReconfirmed. The calendar write is the real guard; this only avoids obvious collisions.
	current, err := s.availability.GetAvailability(ctx, date)
	if err != nil {
		logger.Warn().Err(err).Str("date", req.Date).Msg("Availability re-check failed, continuing with booking")
	} else if latest, ok := findSlot(current, slot.Start); ok && !latest.Available {
		return abort(apperrors.NewBookingConflictError("The selected time slot is no longer available", nil))
	}
	attempt.advance(entities.BookingStateAvailabilityReconfirmed)

	// CalendarEventCreated
	eventID, err := s.calendar.CreateEvent(ctx, entities.NewAppointmentEvent(req, slot.Start, slot.End))
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrorTypeBookingConflict, apperrors.ErrorTypeConfiguration:
			return abort(err)
		default:
			return abort(apperrors.NewBookingFailedError("Failed to create calendar event", err))
		}
	}
	attempt.advance(entities.BookingStateCalendarEventCreated)
	observability.SetSpanAttributes(span, attribute.String("booking.event_id", eventID))
	s.detectDoubleBooking(ctx, eventID, slot)

	// NotificationsAttempted
	notice := entities.AppointmentNotice{
		EventID:     eventID,
		Appointment: req,
		Start:       slot.Start,
		End:         slot.End,
	}
	outcomes := s.sendNotifications(ctx, notice)
	emailsSent := true
	for _, outcome := range outcomes {
		if !outcome.Sent() {
			emailsSent = false
			logger.Error().Err(outcome.Err).
				Str("event_id", eventID).
				Str("notification_type", string(outcome.Type)).
				Msg("Appointment booked but email failed")
		}
	}
	attempt.advance(entities.BookingStateNotificationsAttempted)

	s.afterBooking(ctx, notice, date)

	attempt.advance(entities.BookingStateCompleted)
	observability.RecordBookingOutcome(ctx, s.metrics, "completed")
	logger.Info().Str("event_id", eventID).Bool("emails_sent", emailsSent).Msg("Appointment booked")

	return &entities.BookingConfirmation{
		EventID:    eventID,
		EmailsSent: emailsSent,
		Appointment: entities.Appointment{
			AppointmentRequest: req,
			ID:                 eventID,
			Status:             entities.AppointmentStatusConfirmed,
			CreatedAt:          s.now().UTC(),
		},
		Emails:      outcomes,
		Transitions: attempt.transitions,
	}, nil
}

// validate checks the request fields and resolves the requested business slot.
// It makes no upstream calls.
func (s *BookingService) validate(req entities.AppointmentRequest) (entities.TimeSlot, entities.CalendarDate, error) {
	if err := s.validator.Validate(req); err != nil {
		return entities.TimeSlot{}, entities.CalendarDate{}, err
	}
	slot, date, err := resolveSlot(req.Date, req.Time, s.availability.Hours(), s.now())
	if err != nil {
		return entities.TimeSlot{}, entities.CalendarDate{}, err
	}
	return slot, date, nil
}

// sendNotifications sends the patient and clinic emails concurrently and waits for both
func (s *BookingService) sendNotifications(ctx context.Context, notice entities.AppointmentNotice) []entities.EmailOutcome {
	outcomes := []entities.EmailOutcome{
		{Type: entities.NotificationPatientConfirmation},
		{Type: entities.NotificationBusinessNotification},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0].Err = s.notifications.SendPatientConfirmation(ctx, notice)
	}()
	go func() {
		defer wg.Done()
		outcomes[1].Err = s.notifications.SendBusinessNotification(ctx, notice)
	}()
	wg.Wait()

	return outcomes
}

// detectDoubleBooking reports events that share the slot with the one just created
func (s *BookingService) detectDoubleBooking(ctx context.Context, eventID string, slot entities.TimeSlot) {
	logger := observability.LoggerFromContext(ctx)

	busy, err := s.calendar.ListBusyIntervals(ctx, slot.Start, slot.End)
	if err != nil {
		logger.Warn().Err(err).Str("event_id", eventID).Msg("Could not verify slot after booking")
		return
	}
	for _, b := range busy {
		if b.EventID == eventID || !slot.Overlaps(b.Start, b.End) {
			continue
		}
		observability.RecordDoubleBooking(ctx, s.metrics)
		logger.Error().
			Str("event_id", eventID).
			Str("conflicting_event_id", b.EventID).
			Time("slot_start", slot.Start).
			Msg("Double booking detected")
		return
	}
}

// afterBooking runs the best-effort follow-ups of a completed booking
func (s *BookingService) afterBooking(ctx context.Context, notice entities.AppointmentNotice, date entities.CalendarDate) {
	logger := observability.LoggerFromContext(ctx)

	if s.events != nil {
		event := entities.NewAppointmentChange(entities.AppointmentEventBooked, notice.EventID, date, notice.Start, notice.End)
		if err := s.events.Publish(ctx, providers.EventChannelAppointments, event); err != nil {
			logger.Warn().Err(err).Str("event_id", notice.EventID).Msg("Failed to publish booking event")
		}
	}

	if s.reminders != nil {
		reminder := entities.Reminder{
			EventID:     notice.EventID,
			Appointment: notice.Appointment,
			Start:       notice.Start,
		}
		if err := s.reminders.ScheduleReminder(ctx, reminder); err != nil {
			logger.Warn().Err(err).Str("event_id", notice.EventID).Msg("Failed to schedule reminder")
		}
	}
}

// resolveSlot parses date and clock, requires a business slot start, and rejects the past
func resolveSlot(rawDate, clock string, hours config.BusinessHours, now time.Time) (entities.TimeSlot, entities.CalendarDate, error) {
	date, err := ParseCalendarDate(rawDate)
	if err != nil {
		return entities.TimeSlot{}, entities.CalendarDate{}, err
	}
	start, err := SlotStart(date, clock, hours)
	if err != nil {
		return entities.TimeSlot{}, date, err
	}
	if !start.After(now) {
		return entities.TimeSlot{}, date, apperrors.NewValidationError("Cannot book appointments in the past")
	}
	slots, err := GenerateSlots(date, hours)
	if err != nil {
		return entities.TimeSlot{}, date, err
	}
	slot, ok := findSlot(slots, start)
	if !ok {
		return entities.TimeSlot{}, date, apperrors.NewValidationError("Requested time is not an appointment slot within business hours")
	}
	return slot, date, nil
}

func outcomeOf(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return "invalid"
	case apperrors.ErrorTypeBookingConflict:
		return "conflict"
	case apperrors.ErrorTypeConfiguration:
		return "unconfigured"
	default:
		return "failed"
	}
}
