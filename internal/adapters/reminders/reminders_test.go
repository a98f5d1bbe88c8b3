package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicbooking/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

var (
	appointmentStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	schedulingNow    = time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
)

func testRequest() entities.AppointmentRequest {
	return entities.AppointmentRequest{
		PatientName:  "Amina Haddad",
		PatientEmail: "amina@example.com",
		PatientPhone: "+213555123456",
		ServiceType:  "Teeth Cleaning",
		Date:         "2025-06-02",
		Time:         "10:00",
	}
}

func newTestScheduler(t *testing.T) (*AsynqScheduler, *asynq.Inspector) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	scheduler := NewAsynqScheduler(rdb, config.ReminderConfig{Queue: "reminders", LeadTime: 24 * time.Hour}).
		WithClock(func() time.Time { return schedulingNow })
	return scheduler, asynq.NewInspectorFromRedisClient(rdb)
}

func TestAsynqScheduler_ScheduleAndCancel(t *testing.T) {
	scheduler, inspector := newTestScheduler(t)
	ctx := context.Background()

	reminder := entities.Reminder{EventID: "evt-1", Appointment: testRequest(), Start: appointmentStart}
	require.NoError(t, scheduler.ScheduleReminder(ctx, reminder))

	info, err := inspector.GetTaskInfo("reminders", TaskID("evt-1", appointmentStart))
	require.NoError(t, err)
	assert.Equal(t, asynq.TaskStateScheduled, info.State)
	assert.Equal(t, TypeSendReminder, info.Type)
	assert.True(t, appointmentStart.Add(-24*time.Hour).Equal(info.NextProcessAt))

	// A second schedule for the same event is a no-op
	require.NoError(t, scheduler.ScheduleReminder(ctx, reminder))

	require.NoError(t, scheduler.CancelReminder(ctx, "evt-1", appointmentStart))
	_, err = inspector.GetTaskInfo("reminders", TaskID("evt-1", appointmentStart))
	assert.True(t, errors.Is(err, asynq.ErrTaskNotFound))

	require.NoError(t, scheduler.CancelReminder(ctx, "evt-1", appointmentStart))
}

func TestAsynqScheduler_MovedAppointmentGetsItsOwnTask(t *testing.T) {
	scheduler, inspector := newTestScheduler(t)
	ctx := context.Background()

	original := entities.Reminder{EventID: "evt-3", Appointment: testRequest(), Start: appointmentStart}
	require.NoError(t, scheduler.ScheduleReminder(ctx, original))

	// the old reminder is still pending when the appointment moves
	moved := original
	moved.Start = appointmentStart.Add(2 * time.Hour)
	require.NoError(t, scheduler.ScheduleReminder(ctx, moved))

	info, err := inspector.GetTaskInfo("reminders", TaskID("evt-3", moved.Start))
	require.NoError(t, err)
	assert.True(t, moved.Start.Add(-24*time.Hour).Equal(info.NextProcessAt))

	_, err = inspector.GetTaskInfo("reminders", TaskID("evt-3", original.Start))
	assert.NoError(t, err)
}

func TestAsynqScheduler_SkipsPastSendTime(t *testing.T) {
	scheduler, inspector := newTestScheduler(t)

	// Appointment in 12 hours: the 24h reminder time has already passed
	reminder := entities.Reminder{EventID: "evt-2", Appointment: testRequest(), Start: schedulingNow.Add(12 * time.Hour)}
	require.NoError(t, scheduler.ScheduleReminder(context.Background(), reminder))

	_, err := inspector.GetTaskInfo("reminders", TaskID("evt-2", reminder.Start))
	assert.Error(t, err)
}

func TestAsynqScheduler_CancelUnknownQueue(t *testing.T) {
	scheduler, _ := newTestScheduler(t)
	assert.NoError(t, scheduler.CancelReminder(context.Background(), "never-scheduled", appointmentStart))
}

type recordingSender struct {
	notices []entities.AppointmentNotice
	err     error
}

func (r *recordingSender) SendReminder(ctx context.Context, notice entities.AppointmentNotice) error {
	r.notices = append(r.notices, notice)
	return r.err
}

func reminderTask(t *testing.T, reminder entities.Reminder) *asynq.Task {
	t.Helper()
	task, err := NewReminderTask(reminder)
	require.NoError(t, err)
	return task
}

func TestHandler_SendsReminder(t *testing.T) {
	ctx := context.Background()
	calendar := scheduling.NewMockCalendar()
	req := testRequest()
	id, err := calendar.CreateEvent(ctx, entities.NewAppointmentEvent(req, appointmentStart, appointmentStart.Add(time.Hour)))
	require.NoError(t, err)

	sender := &recordingSender{}
	handler := NewHandler(calendar, sender, config.DefaultBusinessHours)

	err = handler.ProcessTask(ctx, reminderTask(t, entities.Reminder{EventID: id, Appointment: req, Start: appointmentStart}))
	require.NoError(t, err)

	require.Len(t, sender.notices, 1)
	assert.Equal(t, id, sender.notices[0].EventID)
	assert.Equal(t, req, sender.notices[0].Appointment)
	assert.True(t, appointmentStart.Add(time.Hour).Equal(sender.notices[0].End))
}

func TestHandler_DropsCancelledAppointment(t *testing.T) {
	sender := &recordingSender{}
	handler := NewHandler(scheduling.NewMockCalendar(), sender, config.DefaultBusinessHours)

	err := handler.ProcessTask(context.Background(), reminderTask(t, entities.Reminder{EventID: "gone", Start: appointmentStart}))
	require.NoError(t, err)
	assert.Empty(t, sender.notices)
}

func TestHandler_DropsRescheduledAppointment(t *testing.T) {
	ctx := context.Background()
	calendar := scheduling.NewMockCalendar()
	req := testRequest()
	moved := appointmentStart.Add(3 * time.Hour)
	id, err := calendar.CreateEvent(ctx, entities.NewAppointmentEvent(req, moved, moved.Add(time.Hour)))
	require.NoError(t, err)

	sender := &recordingSender{}
	handler := NewHandler(calendar, sender, config.DefaultBusinessHours)

	err = handler.ProcessTask(ctx, reminderTask(t, entities.Reminder{EventID: id, Appointment: req, Start: appointmentStart}))
	require.NoError(t, err)
	assert.Empty(t, sender.notices)
}

func TestHandler_SendFailureReturnsError(t *testing.T) {
	ctx := context.Background()
	calendar := scheduling.NewMockCalendar()
	req := testRequest()
	id, err := calendar.CreateEvent(ctx, entities.NewAppointmentEvent(req, appointmentStart, appointmentStart.Add(time.Hour)))
	require.NoError(t, err)

	sender := &recordingSender{err: errors.New("relay down")}
	handler := NewHandler(calendar, sender, config.DefaultBusinessHours)

	err = handler.ProcessTask(ctx, reminderTask(t, entities.Reminder{EventID: id, Appointment: req, Start: appointmentStart}))
	assert.EqualError(t, err, "relay down")
}

func TestHandler_InvalidPayload(t *testing.T) {
	handler := NewHandler(scheduling.NewMockCalendar(), &recordingSender{}, config.DefaultBusinessHours)

	err := handler.ProcessTask(context.Background(), asynq.NewTask(TypeSendReminder, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
