package scheduling

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

const (
	sendUpdatesNone   = "none"
	eventStatusCancel = "cancelled"
	listPageSize      = 250

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Popup reminders on every booked event, in minutes before start
var eventReminderMinutes = []int64{30, 24 * 60}

// GoogleCalendarAdapter implements CalendarProvider on the Google Calendar v3 API
type GoogleCalendarAdapter struct {
	service    *calendar.Service
	calendarID string
	location   *time.Location
	timeZone   string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
}

// NewGoogleCalendarAdapter authenticates with a service account key and returns the adapter
func NewGoogleCalendarAdapter(ctx context.Context, cfg config.CalendarConfig, hours config.BusinessHours, metrics *observability.Metrics) (*GoogleCalendarAdapter, error) {
	jwtConfig := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(config.NormalizePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{calendar.CalendarScope, calendar.CalendarEventsScope},
		TokenURL:   google.JWTTokenURL,
	}

	httpClient := jwtConfig.Client(ctx)
	httpClient.Timeout = cfg.Timeout

	adapter, err := NewGoogleCalendarAdapterWithOptions(ctx, cfg, hours, metrics, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("calendar_id", cfg.CalendarID).
		Str("project_id", cfg.ProjectID).
		Str("service_account", cfg.ClientEmail).
		Msg("Google Calendar adapter initialized")
	return adapter, nil
}

// NewGoogleCalendarAdapterWithOptions builds the adapter on explicit client options
func NewGoogleCalendarAdapterWithOptions(ctx context.Context, cfg config.CalendarConfig, hours config.BusinessHours, metrics *observability.Metrics, opts ...option.ClientOption) (*GoogleCalendarAdapter, error) {
	loc, err := hours.Location()
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error())
	}

	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GoogleCalendarAdapter{
		service:    service,
		calendarID: cfg.CalendarID,
		location:   loc,
		timeZone:   hours.TimeZone,
		timeout:    timeout,
		breaker:    newCalendarBreaker(ctx),
		metrics:    metrics,
	}, nil
}

func newCalendarBreaker(ctx context.Context) *gobreaker.CircuitBreaker {
	logger := observability.LoggerFromContext(ctx)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-calendar",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isUpstreamFailure(err)
		},
	})
}

// ListBusyIntervals returns the spans of every non-cancelled event intersecting [from, to)
func (a *GoogleCalendarAdapter) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error) {
	items, err := a.listEvents(ctx, "list_busy", from, to)
	if err != nil {
		return nil, err
	}

	busy := make([]entities.BusyInterval, 0, len(items))
	for _, item := range items {
		start, end, err := a.eventSpan(item)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", item.Id).Msg("Skipping event with unreadable times")
			continue
		}
		busy = append(busy, entities.BusyInterval{Start: start, End: end, EventID: item.Id})
	}
	return busy, nil
}

// ListEvents returns the events intersecting [from, to), ordered by start time
func (a *GoogleCalendarAdapter) ListEvents(ctx context.Context, from, to time.Time) ([]entities.ScheduledAppointment, error) {
	items, err := a.listEvents(ctx, "list_events", from, to)
	if err != nil {
		return nil, err
	}

	appointments := make([]entities.ScheduledAppointment, 0, len(items))
	for _, item := range items {
		appt, err := a.toScheduled(item)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", item.Id).Msg("Skipping event with unreadable times")
			continue
		}
		appointments = append(appointments, *appt)
	}
	return appointments, nil
}

// CreateEvent inserts the appointment event without inviting anyone
func (a *GoogleCalendarAdapter) CreateEvent(ctx context.Context, event entities.CalendarEvent) (string, error) {
	body := a.toGoogleEvent(event)
	body.Reminders = eventReminders()

	result, err := a.call(ctx, "create", func(ctx context.Context) (interface{}, error) {
		return a.service.Events.Insert(a.calendarID, body).SendUpdates(sendUpdatesNone).Context(ctx).Do()
	})
	if err != nil {
		return "", err
	}
	return result.(*calendar.Event).Id, nil
}

// GetEvent reads a single event
func (a *GoogleCalendarAdapter) GetEvent(ctx context.Context, eventID string) (*entities.ScheduledAppointment, error) {
	item, err := a.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if item.Status == eventStatusCancel {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("event %s was cancelled", eventID))
	}
	return a.toScheduled(item)
}

// UpdateEvent replaces the summary, description, times, and details of an event
func (a *GoogleCalendarAdapter) UpdateEvent(ctx context.Context, eventID string, event entities.CalendarEvent) error {
	existing, err := a.getEvent(ctx, eventID)
	if err != nil {
		return err
	}

	replacement := a.toGoogleEvent(event)
	existing.Summary = replacement.Summary
	existing.Description = replacement.Description
	existing.Start = replacement.Start
	existing.End = replacement.End
	existing.ExtendedProperties = replacement.ExtendedProperties

	_, err = a.call(ctx, "update", func(ctx context.Context) (interface{}, error) {
		return a.service.Events.Update(a.calendarID, eventID, existing).SendUpdates(sendUpdatesNone).Context(ctx).Do()
	})
	return err
}

// DeleteEvent removes an event. Deleting an event that is already gone succeeds.
func (a *GoogleCalendarAdapter) DeleteEvent(ctx context.Context, eventID string) error {
	_, err := a.call(ctx, "delete", func(ctx context.Context) (interface{}, error) {
		return nil, a.service.Events.Delete(a.calendarID, eventID).SendUpdates(sendUpdatesNone).Context(ctx).Do()
	})
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil
	}
	return err
}

func (a *GoogleCalendarAdapter) getEvent(ctx context.Context, eventID string) (*calendar.Event, error) {
	result, err := a.call(ctx, "get", func(ctx context.Context) (interface{}, error) {
		return a.service.Events.Get(a.calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return nil, err
	}
	return result.(*calendar.Event), nil
}

// listEvents pages through all single events intersecting [from, to)
func (a *GoogleCalendarAdapter) listEvents(ctx context.Context, operation string, from, to time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	pageToken := ""
	for {
		token := pageToken
		result, err := a.call(ctx, operation, func(ctx context.Context) (interface{}, error) {
			call := a.service.Events.List(a.calendarID).
				TimeMin(from.UTC().Format(time.RFC3339)).
				TimeMax(to.UTC().Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				MaxResults(listPageSize)
			if token != "" {
				call = call.PageToken(token)
			}
			return call.Context(ctx).Do()
		})
		if err != nil {
			return nil, err
		}

		page := result.(*calendar.Events)
		for _, item := range page.Items {
			if item.Status == eventStatusCancel {
				continue
			}
			items = append(items, item)
		}
		if page.NextPageToken == "" {
			return items, nil
		}
		pageToken = page.NextPageToken
	}
}

// call runs fn through the circuit breaker with the per-call timeout and maps its error
func (a *GoogleCalendarAdapter) call(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if a.calendarID == "" {
		return nil, apperrors.NewConfigurationError("Google Calendar is not configured", "GOOGLE_CALENDAR_ID")
	}

	ctx, span := observability.StartSpan(ctx, "calendar."+operation)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	observability.RecordCalendarCall(ctx, a.metrics, operation, time.Since(started), err)

	if err != nil {
		mapped := mapCalendarError(operation, err)
		observability.RecordError(span, mapped)
		return nil, mapped
	}
	return result, nil
}

// isUpstreamFailure reports whether err means the calendar service itself is unhealthy
func isUpstreamFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusGone, http.StatusPreconditionFailed:
			return false
		}
	}
	return true
}

func mapCalendarError(operation string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewUpstreamUnavailableError("Google Calendar is temporarily unavailable", err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusConflict:
			return apperrors.NewBookingConflictError("Calendar rejected the event as conflicting", err)
		case http.StatusNotFound, http.StatusGone:
			if addressesEvent(operation) {
				return apperrors.NewNotFoundError(fmt.Sprintf("calendar %s: event not found", operation))
			}
			return apperrors.NewConfigurationError(fmt.Sprintf("calendar %s: calendar not found", operation), "GOOGLE_CALENDAR_ID")
		}
	}
	return apperrors.NewUpstreamUnavailableError(fmt.Sprintf("calendar %s failed", operation), err)
}

// addressesEvent reports whether the operation targets a single existing event.
// A 404 on any other call means the calendar itself is missing.
func addressesEvent(operation string) bool {
	switch operation {
	case "get", "update", "delete":
		return true
	}
	return false
}

func eventReminders() *calendar.EventReminders {
	overrides := make([]*calendar.EventReminder, 0, len(eventReminderMinutes))
	for _, minutes := range eventReminderMinutes {
		overrides = append(overrides, &calendar.EventReminder{Method: "popup", Minutes: minutes})
	}
	return &calendar.EventReminders{
		UseDefault:      false,
		Overrides:       overrides,
		ForceSendFields: []string{"UseDefault"},
	}
}

func (a *GoogleCalendarAdapter) toGoogleEvent(event entities.CalendarEvent) *calendar.Event {
	body := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.In(a.location).Format(time.RFC3339),
			TimeZone: a.timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.In(a.location).Format(time.RFC3339),
			TimeZone: a.timeZone,
		},
	}
	if event.Details != nil {
		body.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: encodeDetails(*event.Details),
		}
	}
	return body
}

func (a *GoogleCalendarAdapter) toScheduled(item *calendar.Event) (*entities.ScheduledAppointment, error) {
	start, end, err := a.eventSpan(item)
	if err != nil {
		return nil, err
	}
	appt := &entities.ScheduledAppointment{
		EventID: item.Id,
		Summary: item.Summary,
		Start:   start,
		End:     end,
	}
	if item.ExtendedProperties != nil {
		appt.Details, appt.HasDetails = decodeDetails(item.ExtendedProperties.Private)
	}
	return appt, nil
}

// eventSpan returns the UTC span of an event; all-day events cover whole local days
func (a *GoogleCalendarAdapter) eventSpan(item *calendar.Event) (time.Time, time.Time, error) {
	start, err := a.parseEventTime(item.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := a.parseEventTime(item.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (a *GoogleCalendarAdapter) parseEventTime(t *calendar.EventDateTime) (time.Time, error) {
	if t == nil {
		return time.Time{}, errors.New("event time missing")
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", t.Date, a.location)
		if err != nil {
			return time.Time{}, err
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, errors.New("event time has neither date nor dateTime")
}

var _ providers.CalendarProvider = (*GoogleCalendarAdapter)(nil)
