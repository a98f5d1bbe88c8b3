package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/clinicbooking/internal/adapters/reminders"
	"github.com/zatekoja/clinicbooking/internal/bootstrap"
	"github.com/zatekoja/clinicbooking/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "Delivers scheduled appointment reminder emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("the reminder worker requires REDIS_ENABLED=true")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics, shutdownTelemetry := bootstrap.SetupTelemetry(ctx, cfg, "worker")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
		}
	}()

	components, err := bootstrap.Build(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing components")
		}
	}()
	if components.Redis == nil {
		return fmt.Errorf("redis is unreachable at %s", cfg.Redis.RedisAddr())
	}

	srv := asynq.NewServerFromRedisClient(components.Redis.Client(), asynq.Config{
		Concurrency: cfg.Reminder.Concurrency,
		Queues: map[string]int{
			cfg.Reminder.Queue: 1,
		},
		Logger:          reminders.NewLogger(log.Logger),
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error().Err(err).Str("type", task.Type()).Msg("Reminder task failed")
		}),
	})

	mux := asynq.NewServeMux()
	reminders.NewHandler(components.Calendar, components.Notifications, components.Hours).Register(mux)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start reminder worker: %w", err)
	}
	log.Info().Str("queue", cfg.Reminder.Queue).Int("concurrency", cfg.Reminder.Concurrency).Msg("Reminder worker started")

	<-ctx.Done()
	log.Info().Msg("Shutting down reminder worker...")
	srv.Shutdown()
	return nil
}
