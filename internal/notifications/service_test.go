package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
)

func TestInbox(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	older, err := svc.Create(ctx, "user-alex", Notification{Type: TypeSystem, Title: "Welcome", CreatedAt: base})
	require.NoError(t, err)
	require.NotEmpty(t, older.ID)

	_, err = svc.Create(ctx, "user-alex", Notification{ID: "notif-1", Type: TypeEventReminder, Title: "Community Coffee Hour", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-alex")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "notif-1", list[0].ID)
	require.Equal(t, 2, UnreadCount(list))

	read, err := svc.MarkRead(ctx, "user-alex", "notif-1")
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)

	again, err := svc.MarkRead(ctx, "user-alex", "notif-1")
	require.NoError(t, err)
	require.True(t, read.ReadAt.Equal(*again.ReadAt))

	list, err = svc.List(ctx, "user-alex")
	require.NoError(t, err)
	require.Equal(t, 1, UnreadCount(list))

	_, err = svc.MarkRead(ctx, "user-jules", "notif-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	ok, err := svc.CreateOnce(ctx, "user-alex", Notification{ID: "reminder-event-kits", Title: "first"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CreateOnce(ctx, "user-alex", Notification{ID: "reminder-event-kits", Title: "second"})
	require.NoError(t, err)
	require.False(t, ok)

	list, err := svc.List(ctx, "user-alex")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "first", list[0].Title)
}
