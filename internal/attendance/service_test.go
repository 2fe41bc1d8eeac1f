package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
)

func TestHoursBetween(t *testing.T) {
	in := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.Equal(t, 2.0, HoursBetween(in, in.Add(2*time.Hour)))
	require.Equal(t, 1.33, HoursBetween(in, in.Add(80*time.Minute)))
	require.Equal(t, 0.0, HoursBetween(in, in.Add(-time.Hour)))
}

func TestCheckInCheckOut(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	clock := time.Date(2025, 3, 7, 17, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	_, err := svc.CheckOut(ctx, "event-coffee-hour", "user-alex", "user-jules", "")
	require.ErrorIs(t, err, ErrNotCheckedIn)

	in, err := svc.CheckIn(ctx, "event-coffee-hour", "user-alex", "user-jules")
	require.NoError(t, err)
	require.True(t, in.IsOpen())

	_, err = svc.CheckIn(ctx, "event-coffee-hour", "user-alex", "user-jules")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	clock = clock.Add(90 * time.Minute)
	out, err := svc.CheckOut(ctx, "event-coffee-hour", "user-alex", "user-jules", "  Great energy.  ")
	require.NoError(t, err)
	require.False(t, out.IsOpen())
	require.Equal(t, 1.5, *out.Hours)
	require.Equal(t, "Great energy.", out.Notes)
	require.Equal(t, "user-jules", out.VerifiedBy)

	list, err := svc.List(ctx, "event-coffee-hour")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "user-alex", list[0].ID)
	require.Equal(t, 1.5, *list[0].Hours)
}
