package notifications

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/rsvps"
)

// EventSource lists cached events.
type EventSource interface {
	Events() []events.Event
}

// ReminderJob notifies volunteers about published events starting soon.
type ReminderJob struct {
	inbox  *Service
	rsvps  rsvps.Service
	events EventSource
	window time.Duration
	now    func() time.Time
}

func NewReminderJob(inbox *Service, rsvpService rsvps.Service, source EventSource, window time.Duration) *ReminderJob {
	return &ReminderJob{
		inbox:  inbox,
		rsvps:  rsvpService,
		events: source,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ReminderID is the per-event notification id, which keeps reminders idempotent.
func ReminderID(eventID string) string {
	return "reminder-" + eventID
}

// Run creates at most one reminder per (event, volunteer) and returns how many were new.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	now := j.now()
	horizon := now.Add(j.window)

	created := 0
	for _, event := range j.events.Events() {
		if event.Status != events.StatusPublished {
			continue
		}
		if !event.StartsAt.After(now) || event.StartsAt.After(horizon) {
			continue
		}

		list, err := j.rsvps.FetchForEvent(ctx, event.ID)
		if err != nil {
			return created, fmt.Errorf("failed to fetch rsvps for %s: %w", event.ID, err)
		}

		for _, r := range list {
			if r.Status != rsvps.StatusRSVP {
				continue
			}
			ok, err := j.inbox.CreateOnce(ctx, r.UserID, Notification{
				ID:       ReminderID(event.ID),
				Type:     TypeEventReminder,
				Title:    event.Title,
				Body:     reminderBody(event.StartsAt.Sub(now)),
				DeepLink: EventDeepLink(event.ID),
			})
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

// RunReminderJob is the cron entry point.
func RunReminderJob(ctx context.Context, job *ReminderJob) error {
	log.Info().Dur("window", job.window).Msg("Starting reminder job")
	start := time.Now()

	created, err := job.Run(ctx)
	if err != nil {
		log.Error().Err(err).Int("created", created).Msg("Reminder job failed")
		return err
	}

	log.Info().Int("created", created).Dur("duration", time.Since(start)).Msg("Reminder job completed")
	return nil
}

func reminderBody(until time.Duration) string {
	hours := int(math.Ceil(until.Hours()))
	if hours <= 1 {
		return "Starts within the hour."
	}
	return fmt.Sprintf("Starts in %d hours.", hours)
}
