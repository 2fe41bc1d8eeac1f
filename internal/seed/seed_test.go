package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/rsvps"
)

var seedNow = time.Date(2025, 3, 2, 18, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	b := Build(seedNow)

	require.Len(t, b.Users, 2)
	require.Len(t, b.Events, 2)
	require.Equal(t, "event-coffee-hour", b.Events[0].ID)
	require.True(t, b.Events[0].StartsAt.Before(b.Events[0].EndsAt))
	require.Equal(t, 20, *b.Events[0].RSVPCap)

	host := b.RolesByEvent["event-coffee-hour"][0]
	require.Equal(t, "role-host", host.ID)
	require.Equal(t, 2, host.SlotsTotal)
	require.Equal(t, 1, host.SlotsFilled)

	all := b.AllRSVPs()
	require.Len(t, all, 1)
	require.Equal(t, "event-coffee-hour", all[0].EventID)
	require.Equal(t, rsvps.StatusRSVP, all[0].Status)
}

func TestIfEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := Build(seedNow)

	wrote, err := IfEmpty(ctx, store, b)
	require.NoError(t, err)
	require.True(t, wrote)

	evs, err := docstore.FetchAllAs[events.Event](ctx, store, docstore.Events)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	r, err := docstore.FetchOneAs[rsvps.RSVP](ctx, store, docstore.RSVPsPath("event-coffee-hour"), "user-alex")
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, "role-host", r.RoleID)
	require.Equal(t, map[string]string{"tshirtSize": "M"}, r.Answers)

	members, err := store.FetchAll(ctx, docstore.MembersPath("org-rainbow-center"))
	require.NoError(t, err)
	require.Len(t, members, 1)

	msgs, err := store.FetchAll(ctx, docstore.MessagesPath("thread-coffee-hour"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	wrote, err = IfEmpty(ctx, store, Build(seedNow.Add(time.Hour)))
	require.NoError(t, err)
	require.False(t, wrote)
}
