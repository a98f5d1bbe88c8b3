package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicbooking/internal/api/handlers"
	"github.com/zatekoja/clinicbooking/internal/api/middleware"
	"github.com/zatekoja/clinicbooking/internal/api/routes"
	"github.com/zatekoja/clinicbooking/internal/bootstrap"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics, shutdownTelemetry := bootstrap.SetupTelemetry(ctx, cfg, "")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
		}
	}()

	if missing := cfg.MissingVariables(); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Configuration incomplete, affected endpoints will return 503")
	}

	components, err := bootstrap.Build(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing components")
		}
	}()

	// Rate limiting needs Redis
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && components.Redis != nil {
		rateLimiter, err = middleware.NewRateLimiter(components.Redis.Client(), cfg.RateLimit.Requests, cfg.RateLimit.Window, "ratelimit:book").
			WithTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid RATE_LIMIT_TRUSTED_PROXIES")
		}
		log.Info().Int("requests", cfg.RateLimit.Requests).Dur("window", cfg.RateLimit.Window).
			Strs("trusted_proxies", cfg.RateLimit.TrustedProxies).Msg("Booking rate limit enabled")
	}

	appointmentHandler := handlers.NewAppointmentHandler(components.Availability, components.Booking(), components.ConfigStatus())
	sseHandler := handlers.NewSSEHandler(components.EventBus)

	router := routes.NewRouter(appointmentHandler, sseHandler, rateLimiter, cfg.Server.AllowedOrigins, metrics)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No write timeout: the event stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Closing the event bus ends open streams so Shutdown does not wait on them
	if components.EventBus != nil {
		_ = components.EventBus.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
