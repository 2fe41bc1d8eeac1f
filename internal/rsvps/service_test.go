package rsvps

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
)

// tickingClock returns a strictly increasing time on every call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var (
	testCreatedAt = time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	seedRSVP      = RSVP{
		ID:        "user-alex",
		UserID:    "user-alex",
		EventID:   "event-coffee-hour",
		RoleID:    "role-host",
		Status:    StatusRSVP,
		Consent:   ConsentSnapshot{ShareEmail: true, SharePronouns: true, ShareAccessibility: true},
		Answers:   map[string]string{"tshirtSize": "M"},
		CreatedAt: testCreatedAt,
		UpdatedAt: testCreatedAt,
	}
)

type serviceFactory func(t *testing.T, initial []RSVP) Service

func implementations() map[string]serviceFactory {
	return map[string]serviceFactory{
		"memory": func(t *testing.T, initial []RSVP) Service {
			return NewMemoryService(initial, WithClock(tickingClock()))
		},
		"store": func(t *testing.T, initial []RSVP) Service {
			store := memory.New()
			for _, r := range initial {
				require.NoError(t, docstore.SetAs(context.Background(), store, docstore.RSVPsPath(r.EventID), r.UserID, r))
			}
			return NewStoreService(store, WithClock(tickingClock()))
		},
	}
}

func TestService_Contract(t *testing.T) {
	for name, factory := range implementations() {
		t.Run(name, func(t *testing.T) {
			t.Run("fetch missing returns nil", func(t *testing.T) {
				svc := factory(t, nil)
				r, err := svc.Fetch(context.Background(), "event-kits", "user-jules")
				require.NoError(t, err)
				require.Nil(t, r)
			})

			t.Run("submit then fetch", func(t *testing.T) {
				ctx := context.Background()
				svc := factory(t, []RSVP{seedRSVP})
				consent := ConsentSnapshot{ShareEmail: true, SharePronouns: true, ShareAccessibility: true}

				submitted, err := svc.Submit(ctx, "event-kits", "user-jules", "role-assembler", consent)
				require.NoError(t, err)
				require.Equal(t, StatusRSVP, submitted.Status)
				require.Equal(t, "user-jules", submitted.ID)
				require.Equal(t, "event-kits", submitted.EventID)
				require.True(t, submitted.Consent.ShareEmail)

				fetched, err := svc.Fetch(ctx, "event-kits", "user-jules")
				require.NoError(t, err)
				require.NotNil(t, fetched)
				require.Equal(t, StatusRSVP, fetched.Status)
				require.Equal(t, "role-assembler", fetched.RoleID)
				require.Equal(t, consent, fetched.Consent)
				require.Equal(t, "event-kits", fetched.EventID)

				cancelled, err := svc.Cancel(ctx, "event-kits", "user-jules")
				require.NoError(t, err)
				require.Equal(t, StatusCancelled, cancelled.Status)
			})

			t.Run("createdAt survives submit cancel submit", func(t *testing.T) {
				ctx := context.Background()
				svc := factory(t, nil)

				first, err := svc.Submit(ctx, "event-kits", "user-jules", "", DefaultConsent())
				require.NoError(t, err)
				second, err := svc.Cancel(ctx, "event-kits", "user-jules")
				require.NoError(t, err)
				third, err := svc.Submit(ctx, "event-kits", "user-jules", "role-assembler", DefaultConsent())
				require.NoError(t, err)

				require.True(t, first.CreatedAt.Equal(second.CreatedAt))
				require.True(t, first.CreatedAt.Equal(third.CreatedAt))
				require.True(t, second.UpdatedAt.After(first.UpdatedAt))
				require.True(t, third.UpdatedAt.After(second.UpdatedAt))

				fetched, err := svc.Fetch(ctx, "event-kits", "user-jules")
				require.NoError(t, err)
				require.True(t, first.CreatedAt.Equal(fetched.CreatedAt))
				require.Equal(t, StatusRSVP, fetched.Status)
			})

			t.Run("submit keeps seeded createdAt and clears answers", func(t *testing.T) {
				svc := factory(t, []RSVP{seedRSVP})

				r, err := svc.Submit(context.Background(), "event-coffee-hour", "user-alex", "", DefaultConsent())
				require.NoError(t, err)
				require.True(t, testCreatedAt.Equal(r.CreatedAt))
				require.Empty(t, r.RoleID)
				require.Nil(t, r.Answers)
			})

			t.Run("cancel preserves role consent and answers", func(t *testing.T) {
				svc := factory(t, []RSVP{seedRSVP})

				r, err := svc.Cancel(context.Background(), "event-coffee-hour", "user-alex")
				require.NoError(t, err)
				require.Equal(t, StatusCancelled, r.Status)
				require.Equal(t, "role-host", r.RoleID)
				require.Equal(t, seedRSVP.Consent, r.Consent)
				require.Equal(t, map[string]string{"tshirtSize": "M"}, r.Answers)
				require.True(t, testCreatedAt.Equal(r.CreatedAt))
			})

			t.Run("cancel without prior rsvp synthesizes record", func(t *testing.T) {
				ctx := context.Background()
				svc := factory(t, nil)

				r, err := svc.Cancel(ctx, "event-kits", "user-alex")
				require.NoError(t, err)
				require.Equal(t, StatusCancelled, r.Status)
				require.Equal(t, DefaultConsent(), r.Consent)
				require.Empty(t, r.RoleID)

				fetched, err := svc.Fetch(ctx, "event-kits", "user-alex")
				require.NoError(t, err)
				require.NotNil(t, fetched)
				require.Equal(t, StatusCancelled, fetched.Status)
			})

			t.Run("fetch for user spans events", func(t *testing.T) {
				ctx := context.Background()
				svc := factory(t, []RSVP{seedRSVP})

				_, err := svc.Submit(ctx, "event-kits", "user-alex", "role-assembler", DefaultConsent())
				require.NoError(t, err)
				_, err = svc.Submit(ctx, "event-kits", "user-jules", "", DefaultConsent())
				require.NoError(t, err)

				list, err := svc.FetchForUser(ctx, "user-alex")
				require.NoError(t, err)
				require.Len(t, list, 2)

				seen := map[string]bool{}
				for _, r := range list {
					require.Equal(t, "user-alex", r.UserID)
					seen[r.EventID] = true
				}
				require.Equal(t, map[string]bool{"event-coffee-hour": true, "event-kits": true}, seen)
			})

			t.Run("fetch for event back-fills event id", func(t *testing.T) {
				ctx := context.Background()
				svc := factory(t, []RSVP{seedRSVP})

				_, err := svc.Submit(ctx, "event-coffee-hour", "user-jules", "", DefaultConsent())
				require.NoError(t, err)

				list, err := svc.FetchForEvent(ctx, "event-coffee-hour")
				require.NoError(t, err)
				require.Len(t, list, 2)
				for _, r := range list {
					require.Equal(t, "event-coffee-hour", r.EventID)
				}
			})

			t.Run("missing key is rejected", func(t *testing.T) {
				svc := factory(t, nil)
				_, err := svc.Submit(context.Background(), "", "user-alex", "", DefaultConsent())
				require.ErrorIs(t, err, ErrMissingKey)
			})
		})
	}
}

func TestStoreService_WritesDocumentLayout(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewStoreService(store, WithClock(tickingClock()))

	_, err := svc.Submit(ctx, "event-kits", "user-jules", "role-assembler", DefaultConsent())
	require.NoError(t, err)

	doc, found, err := store.FetchOne(ctx, "events/event-kits/rsvps", "user-jules")
	require.NoError(t, err)
	require.True(t, found)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(doc.Data, &fields))
	require.NotContains(t, fields, "id")
	require.Equal(t, "user-jules", fields["userId"])
	require.Equal(t, "event-kits", fields["eventId"])
	require.Equal(t, "rsvp", fields["status"])
}

func TestStoreService_LegacyDocumentsWithoutEventID(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	legacy := json.RawMessage(`{"userId":"user-alex","status":"rsvp","consent":{"shareEmail":false,"sharePhone":false,"sharePronouns":true,"shareAccessibility":true},"createdAt":"2025-02-20T09:00:00Z","updatedAt":"2025-02-20T09:00:00Z"}`)
	require.NoError(t, store.Set(ctx, docstore.RSVPsPath("event-a"), "user-alex", legacy))
	require.NoError(t, store.Set(ctx, docstore.RSVPsPath("event-b"), "user-alex", legacy))
	require.NoError(t, store.Set(ctx, docstore.RSVPsPath("event-b"), "user-broken", json.RawMessage(`{"userId":"user-alex","status":7}`)))

	svc := NewStoreService(store)

	list, err := svc.FetchForUser(ctx, "user-alex")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "event-a", list[0].EventID)
	require.Equal(t, "event-b", list[1].EventID)
	require.Equal(t, "user-alex", list[0].ID)

	r, err := svc.Fetch(ctx, "event-a", "user-alex")
	require.NoError(t, err)
	require.Equal(t, "event-a", r.EventID)
}

func TestMemoryService_ConcurrentSubmits(t *testing.T) {
	svc := NewMemoryService(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.Submit(ctx, "event-kits", "user-jules", "", DefaultConsent())
			} else {
				_, _ = svc.Cancel(ctx, "event-kits", "user-jules")
			}
		}(i)
	}
	wg.Wait()

	list, err := svc.FetchForEvent(ctx, "event-kits")
	require.NoError(t, err)
	require.Len(t, list, 1)
}
