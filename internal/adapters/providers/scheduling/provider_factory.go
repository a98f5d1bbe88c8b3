package scheduling

import (
	"context"

	"github.com/zatekoja/clinicbooking/internal/domain/providers"
	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// Calendar provider names accepted in CALENDAR_PROVIDER
const (
	ProviderGoogle = "google"
	ProviderMock   = "mock"
)

// NewCalendarProvider selects the calendar implementation for the configuration.
// Missing credentials never fail startup; they yield an UnconfiguredCalendar.
func NewCalendarProvider(ctx context.Context, cfg *config.Config, hours config.BusinessHours, metrics *observability.Metrics) providers.CalendarProvider {
	logger := observability.LoggerFromContext(ctx)

	if cfg.Calendar.Provider == ProviderMock {
		logger.Warn().Msg("Using in-memory mock calendar")
		return NewMockCalendar()
	}

	if missing := cfg.MissingCalendarVariables(); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("Google Calendar is not configured")
		return NewUnconfiguredCalendar(missing)
	}

	adapter, err := NewGoogleCalendarAdapter(ctx, cfg.Calendar, hours, metrics)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Google Calendar")
		return NewUnconfiguredCalendar(config.CalendarVariables)
	}
	return adapter
}
