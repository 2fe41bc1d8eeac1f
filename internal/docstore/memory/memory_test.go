package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

func TestStore_SetFetchDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	empty, err := s.IsCollectionEmpty(ctx, "events")
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, s.Set(ctx, "events", "b", json.RawMessage(`{"title":"B"}`)))
	require.NoError(t, s.Set(ctx, "events", "a", json.RawMessage(`{"title":"A"}`)))

	empty, err = s.IsCollectionEmpty(ctx, "events")
	require.NoError(t, err)
	require.False(t, empty)

	docs, err := s.FetchAll(ctx, "events")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a", docs[0].ID)
	require.Equal(t, "b", docs[1].ID)

	doc, found, err := s.FetchOne(ctx, "events", "a")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"title":"A"}`, string(doc.Data))

	require.NoError(t, s.Set(ctx, "events", "a", json.RawMessage(`{"title":"A2"}`)))
	doc, _, err = s.FetchOne(ctx, "events", "a")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"A2"}`, string(doc.Data))

	require.NoError(t, s.Delete(ctx, "events", "a"))
	require.NoError(t, s.Delete(ctx, "events", "missing"))

	_, found, err = s.FetchOne(ctx, "events", "a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStore_SubcollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, docstore.RolesPath("e1"), "r1", json.RawMessage(`{}`)))
	require.NoError(t, s.Set(ctx, docstore.RolesPath("e2"), "r2", json.RawMessage(`{}`)))

	docs, err := s.FetchAll(ctx, docstore.RolesPath("e1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "e1", docs[0].ParentID())

	empty, err := s.IsCollectionEmpty(ctx, "events")
	require.NoError(t, err)
	require.True(t, empty)
}

func TestStore_QueryGroup(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Set(ctx, docstore.RSVPsPath("e1"), "u1", json.RawMessage(`{"userId":"u1"}`)))
	require.NoError(t, s.Set(ctx, docstore.RSVPsPath("e2"), "u1", json.RawMessage(`{"userId":"u1"}`)))
	require.NoError(t, s.Set(ctx, docstore.RSVPsPath("e2"), "u2", json.RawMessage(`{"userId":"u2"}`)))
	require.NoError(t, s.Set(ctx, docstore.AttendancePath("e1"), "u1", json.RawMessage(`{"userId":"u1"}`)))

	docs, err := s.QueryGroup(ctx, docstore.RSVPs, "userId", "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "e1", docs[0].ParentID())
	require.Equal(t, "e2", docs[1].ParentID())
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	data := json.RawMessage(`{"title":"A"}`)
	require.NoError(t, s.Set(ctx, "events", "a", data))
	data[2] = 'X'

	doc, _, err := s.FetchOne(ctx, "events", "a")
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"A"}`, string(doc.Data))
}

func TestStore_InvalidPath(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Set(ctx, "events/e1", "x", json.RawMessage(`{}`))
	require.ErrorIs(t, err, docstore.ErrInvalidPath)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().FetchAll(ctx, "events")
	require.ErrorIs(t, err, context.Canceled)
}
