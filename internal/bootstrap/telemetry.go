package bootstrap

import (
	"context"

	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

// SetupTelemetry initializes logging, and OpenTelemetry when enabled. The returned
// shutdown is always safe to call.
func SetupTelemetry(ctx context.Context, cfg *config.Config, component string) (*observability.Metrics, func(context.Context) error) {
	serviceName := cfg.OTEL.ServiceName
	if component != "" {
		serviceName += "-" + component
	}
	observability.InitLogger(serviceName, cfg.Env)
	logger := observability.GetLogger()

	shutdown := func(context.Context) error { return nil }
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		s, err := observability.Setup(ctx, serviceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			shutdown = s
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize metrics")
		metrics = nil
	}
	return metrics, shutdown
}
