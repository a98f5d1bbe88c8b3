package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/clinicbooking/internal/domain/entities"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// TypeSendReminder is the asynq task type of an appointment reminder
const TypeSendReminder = "appointment:reminder"

// AsynqScheduler queues reminder emails as scheduled asynq tasks, one per calendar event
type AsynqScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
	leadTime  time.Duration
	now       func() time.Time
}

// NewAsynqScheduler creates a scheduler on a shared Redis connection
func NewAsynqScheduler(rdb redis.UniversalClient, cfg config.ReminderConfig) *AsynqScheduler {
	return &AsynqScheduler{
		client:    asynq.NewClientFromRedisClient(rdb),
		inspector: asynq.NewInspectorFromRedisClient(rdb),
		queue:     cfg.Queue,
		leadTime:  cfg.LeadTime,
		now:       time.Now,
	}
}

// WithClock overrides the time source
func (s *AsynqScheduler) WithClock(now func() time.Time) *AsynqScheduler {
	s.now = now
	return s
}

// TaskID returns the task id for an event's reminder. The start time is part of the id
// so a moved appointment never collides with a reminder left over for its old slot.
func TaskID(eventID string, start time.Time) string {
	return "reminder:" + eventID + ":" + start.UTC().Format("20060102T1504Z")
}

// NewReminderTask builds the task for a reminder
func NewReminderTask(reminder entities.Reminder) (*asynq.Task, error) {
	payload, err := json.Marshal(reminder)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminder: %w", err)
	}
	return asynq.NewTask(TypeSendReminder, payload), nil
}

// ScheduleReminder enqueues the reminder for LeadTime before the appointment.
// Appointments too close to send a reminder ahead of time are skipped.
func (s *AsynqScheduler) ScheduleReminder(ctx context.Context, reminder entities.Reminder) error {
	logger := observability.LoggerFromContext(ctx).With().Str("event_id", reminder.EventID).Logger()

	if reminder.SendAt.IsZero() {
		reminder.SendAt = reminder.Start.Add(-s.leadTime)
	}
	if !reminder.SendAt.After(s.now()) {
		logger.Debug().Time("send_at", reminder.SendAt).Msg("Reminder time already passed, not scheduling")
		return nil
	}

	task, err := NewReminderTask(reminder)
	if err != nil {
		return err
	}

	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(s.queue),
		asynq.TaskID(TaskID(reminder.EventID, reminder.Start)),
		asynq.ProcessAt(reminder.SendAt),
		asynq.MaxRetry(0),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Debug().Msg("Reminder already scheduled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}

	logger.Info().Str("task_id", info.ID).Time("send_at", info.NextProcessAt).Msg("Reminder scheduled")
	return nil
}

// CancelReminder removes a pending reminder; a missing one is not an error
func (s *AsynqScheduler) CancelReminder(ctx context.Context, eventID string, start time.Time) error {
	err := s.inspector.DeleteTask(s.queue, TaskID(eventID, start))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("failed to cancel reminder: %w", err)
}
