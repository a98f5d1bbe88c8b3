package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
)

// Mocks

type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]entities.BusyInterval, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.BusyInterval), args.Error(1)
}

func (m *MockCalendarProvider) CreateEvent(ctx context.Context, event entities.CalendarEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarProvider) GetEvent(ctx context.Context, eventID string) (*entities.ScheduledAppointment, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ScheduledAppointment), args.Error(1)
}

func (m *MockCalendarProvider) UpdateEvent(ctx context.Context, eventID string, event entities.CalendarEvent) error {
	args := m.Called(ctx, eventID, event)
	return args.Error(0)
}

func (m *MockCalendarProvider) DeleteEvent(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockCalendarProvider) ListEvents(ctx context.Context, from, to time.Time) ([]entities.ScheduledAppointment, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ScheduledAppointment), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg *entities.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMailer) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockReminderScheduler struct {
	mock.Mock
}

func (m *MockReminderScheduler) ScheduleReminder(ctx context.Context, reminder entities.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderScheduler) CancelReminder(ctx context.Context, eventID string, start time.Time) error {
	args := m.Called(ctx, eventID, start)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.AppointmentEvent), args.Error(1)
}

func (m *MockEventBus) Close() error {
	return nil
}

// isType matches an email message of the given notification type
func isType(t entities.NotificationType) interface{} {
	return mock.MatchedBy(func(msg *entities.EmailMessage) bool {
		return msg.Type == t
	})
}
