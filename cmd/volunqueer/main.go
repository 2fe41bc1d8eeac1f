package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/app"
	"github.com/volunqueer/volunqueer/internal/config"
	"github.com/volunqueer/volunqueer/internal/notifications"
	"github.com/volunqueer/volunqueer/internal/retention"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		os.Exit(runAdmin(os.Args[2:]))
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(ctx)

	scheduler, err := setupJobs(cfg, application.Services)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup background jobs: %v\n", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- application.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			os.Exit(1)
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
			os.Exit(1)
		}
	}
}

// setupJobs schedules the reminder sweep and the archive pass. Development
// runs the archive every minute so it can be watched.
func setupJobs(cfg *config.Config, svc *app.Services) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("0 * * * *", guarded("Reminder job", func(ctx context.Context) error {
		return notifications.RunReminderJob(ctx, svc.Reminders)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	archiveSchedule := "0 3 * * *"
	if cfg.IsDev() {
		archiveSchedule = "* * * * *"
	}
	_, err = c.AddFunc(archiveSchedule, guarded("Archive job", func(ctx context.Context) error {
		return retention.RunArchiveJob(ctx, svc.Store, svc.Auditor, cfg.ArchiveAfterDays)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to schedule archive job: %w", err)
	}

	return c, nil
}

func guarded(name string, job func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg(name + " panicked")
			}
		}()

		if err := job(context.Background()); err != nil {
			log.Error().Err(err).Msg(name + " failed")
		}
	}
}
