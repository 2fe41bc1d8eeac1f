package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/rsvps"
)

type staticEvents []events.Event

func (s staticEvents) Events() []events.Event { return s }

func TestReminderJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 6, 18, 0, 0, 0, time.UTC)

	source := staticEvents{
		{ID: "soon", Title: "Community Coffee Hour", Status: events.StatusPublished, StartsAt: now.Add(20 * time.Hour)},
		{ID: "later", Title: "Care Kit Assembly", Status: events.StatusPublished, StartsAt: now.Add(48 * time.Hour)},
		{ID: "past", Title: "Past", Status: events.StatusPublished, StartsAt: now.Add(-time.Hour)},
		{ID: "draft", Title: "Draft", Status: events.StatusDraft, StartsAt: now.Add(2 * time.Hour)},
	}

	rsvpService := rsvps.NewMemoryService(nil)
	for _, eventID := range []string{"soon", "later", "past", "draft"} {
		_, err := rsvpService.Submit(ctx, eventID, "user-alex", "", rsvps.DefaultConsent())
		require.NoError(t, err)
	}
	_, err := rsvpService.Submit(ctx, "soon", "user-jules", "", rsvps.DefaultConsent())
	require.NoError(t, err)
	_, err = rsvpService.Cancel(ctx, "soon", "user-jules")
	require.NoError(t, err)

	inbox := NewService(memory.New())
	job := NewReminderJob(inbox, rsvpService, source, 24*time.Hour)
	job.now = func() time.Time { return now }

	created, err := job.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Second run is idempotent.
	created, err = job.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, created)

	list, err := inbox.List(ctx, "user-alex")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, ReminderID("soon"), list[0].ID)
	require.Equal(t, TypeEventReminder, list[0].Type)
	require.Equal(t, "Starts in 20 hours.", list[0].Body)
	require.Equal(t, "volunqueer://events/soon", list[0].DeepLink)

	list, err = inbox.List(ctx, "user-jules")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestReminderBody(t *testing.T) {
	require.Equal(t, "Starts within the hour.", reminderBody(30*time.Minute))
	require.Equal(t, "Starts in 2 hours.", reminderBody(90*time.Minute))
}
