package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/events"
)

// Catalog is the event cache the archive job reads and writes through.
type Catalog interface {
	Events() []events.Event
	SaveEvent(ctx context.Context, e events.Event) error
}

// ArchiveEndedEvents moves published and cancelled events that ended more
// than retentionDays before now to archived. Drafts are left alone.
// The function is idempotent - safe to run repeatedly.
//
// Returns the number of events archived.
func ArchiveEndedEvents(ctx context.Context, catalog Catalog, auditor *audit.Writer, retentionDays int, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	archived := 0
	for _, e := range catalog.Events() {
		if e.Status != events.StatusPublished && e.Status != events.StatusCancelled {
			continue
		}
		if !e.EndsAt.Before(cutoff) {
			continue
		}

		e.Status = events.StatusArchived
		e.UpdatedAt = now
		if err := catalog.SaveEvent(ctx, e); err != nil {
			return archived, fmt.Errorf("failed to archive event %s: %w", e.ID, err)
		}
		archived++

		if err := auditor.LogEventArchived(ctx, e.OrgID, e.ID); err != nil {
			log.Error().Err(err).Str("event_id", e.ID).Msg("Failed to log audit event")
		}
	}
	return archived, nil
}

// RunArchiveJob archives old events and logs the results.
// This is the main entry point called by the cron scheduler.
func RunArchiveJob(ctx context.Context, catalog Catalog, auditor *audit.Writer, retentionDays int) error {
	log.Info().Int("archive_after_days", retentionDays).Msg("Starting archive job")

	startTime := time.Now()

	archived, err := ArchiveEndedEvents(ctx, catalog, auditor, retentionDays, startTime.UTC())
	if err != nil {
		log.Error().Err(err).Int("archived", archived).Msg("Archive job failed")
		return fmt.Errorf("event archive failed: %w", err)
	}

	log.Info().
		Int("events_archived", archived).
		Dur("duration", time.Since(startTime)).
		Msg("Archive job completed")

	return nil
}
