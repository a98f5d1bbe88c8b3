// Package bootstrap wires configuration into the adapters and services shared by the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/zatekoja/clinicbooking/internal/adapters/events"
	"github.com/zatekoja/clinicbooking/internal/adapters/providers/scheduling"
	"github.com/zatekoja/clinicbooking/internal/adapters/reminders"
	"github.com/zatekoja/clinicbooking/internal/application/services"
	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	redisclient "github.com/zatekoja/clinicbooking/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/notifications"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// Components holds the long-lived dependencies of a process.
// Redis, EventBus, and Reminders are nil when Redis is disabled or unreachable.
type Components struct {
	Config        *config.Config
	Hours         config.BusinessHours
	Metrics       *observability.Metrics
	Calendar      providers.CalendarProvider
	Notifications *services.NotificationService
	Availability  *services.AvailabilityService
	Redis         *redisclient.Client
	EventBus      providers.EventBus
	Reminders     providers.ReminderScheduler
}

// Build creates the components for cfg. Missing credentials never fail; only template
// parsing or invalid business hours do.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Components, error) {
	logger := observability.LoggerFromContext(ctx)

	hours := config.DefaultBusinessHours
	if err := hours.Validate(); err != nil {
		return nil, err
	}

	c := &Components{
		Config:  cfg,
		Hours:   hours,
		Metrics: metrics,
	}

	c.Calendar = scheduling.NewCalendarProvider(ctx, cfg, hours, metrics)

	if missing := cfg.MissingSMTPVariables(); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("SMTP is not configured, emails will fail")
	}
	notifier, err := services.NewNotificationService(
		notifications.NewSMTPMailer(cfg.SMTP),
		notifications.NewICSEncoder(),
		services.ClinicInfoFromConfig(cfg.Clinic),
		metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}
	c.Notifications = notifier
	c.Availability = services.NewAvailabilityService(c.Calendar, hours, metrics)

	if !cfg.Redis.Enabled {
		logger.Info().Msg("Redis disabled: live updates, reminders and rate limiting are off")
		return c, nil
	}

	client, err := redisclient.NewClient(ctx, &cfg.Redis)
	if err != nil {
		// Continue without Redis; booking does not depend on it
		logger.Warn().Err(err).Str("addr", cfg.Redis.RedisAddr()).Msg("Failed to connect to Redis")
		return c, nil
	}
	c.Redis = client
	c.EventBus = events.NewRedisEventBus(client)
	logger.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized successfully")

	if cfg.Reminder.Enabled {
		c.Reminders = reminders.NewAsynqScheduler(client.Client(), cfg.Reminder)
		logger.Info().Dur("lead_time", cfg.Reminder.LeadTime).Msg("Reminder scheduling enabled")
	}

	return c, nil
}

// Booking returns a booking service over the shared components
func (c *Components) Booking() *services.BookingService {
	return services.NewBookingService(c.Calendar, c.Availability, c.Notifications, c.Reminders, c.EventBus, c.Metrics)
}

// Management returns the operator service over the shared components
func (c *Components) Management() *services.AppointmentManagementService {
	return services.NewAppointmentManagementService(c.Calendar, c.Availability, c.Notifications, c.Reminders, c.EventBus)
}

// ConfigStatus returns the test-config reporter
func (c *Components) ConfigStatus() *services.ConfigStatusService {
	return services.NewConfigStatusService(c.Config, c.Notifications)
}

// Close releases the event bus and the Redis connection
func (c *Components) Close() error {
	var errs []error
	if c.EventBus != nil {
		errs = append(errs, c.EventBus.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	return errors.Join(errs...)
}
