package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
	"github.com/volunqueer/volunqueer/internal/orgs"
)

type fakeCatalog struct {
	mu        sync.Mutex
	events    map[string]Event
	roles     map[string][]EventRole
	orgs      map[string]orgs.Organization
	rolesFail bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		events: map[string]Event{},
		roles:  map[string][]EventRole{},
		orgs: map[string]orgs.Organization{
			"org-rainbow-center": {ID: "org-rainbow-center", Name: "Rainbow Center", OwnerUID: "user-jules"},
		},
	}
}

func (c *fakeCatalog) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	return out
}

func (c *fakeCatalog) Event(id string) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.events[id]
	return e, ok
}

func (c *fakeCatalog) Roles(eventID string) []EventRole {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roles[eventID]
}

func (c *fakeCatalog) Organization(id string) (orgs.Organization, bool) {
	o, ok := c.orgs[id]
	return o, ok
}

func (c *fakeCatalog) SaveEvent(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[e.ID] = e
	return nil
}

func (c *fakeCatalog) SaveRoles(_ context.Context, roles []EventRole, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rolesFail {
		return errors.New("permission denied")
	}
	c.roles[eventID] = roles
	return nil
}

var handlerNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRouter(catalog *fakeCatalog) (http.Handler, *audit.Reader) {
	store := memory.New()
	deps := Deps{
		Catalog: catalog,
		Orgs:    orgs.NewService(store),
		Auditor: audit.NewWriter(store),
		Now:     func() time.Time { return handlerNow },
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), r.Header.Get("X-Test-User"))))
		})
	})
	r.Get("/events", HandleList(deps))
	r.Post("/events", HandleCreate(deps))
	r.Put("/events/{event_id}", HandleUpdate(deps))
	r.Get("/events/{event_id}/draft", HandleGetDraft(deps))
	return r, audit.NewReader(store)
}

func do(h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var payload string
	if body != nil {
		raw, _ := json.Marshal(body)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type savedResponse struct {
	Data struct {
		Event Event       `json:"event"`
		Roles []EventRole `json:"roles"`
	} `json:"data"`
}

func TestHandlers_CreateThenEdit(t *testing.T) {
	catalog := newFakeCatalog()
	h, reader := newTestRouter(catalog)

	rec := do(h, http.MethodPost, "/events", "user-jules", SaveRequest{OrgID: "org-rainbow-center", Draft: validDraft()})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created savedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, strings.HasPrefix(created.Data.Event.ID, "event-"))
	require.Equal(t, "org-rainbow-center", created.Data.Event.OrgID)
	require.Equal(t, "user-jules", created.Data.Event.CreatedBy)
	require.Len(t, created.Data.Roles, 1)

	eventID := created.Data.Event.ID
	draft := validDraft()
	draft.Title = "Renamed"
	draft.Roles = []RoleDraft{{ID: created.Data.Roles[0].ID, Title: "Host", SlotsTotal: 2}}

	rec = do(h, http.MethodPut, "/events/"+eventID, "user-jules", SaveRequest{Draft: draft})
	require.Equal(t, http.StatusOK, rec.Code)

	var edited savedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edited))
	require.Equal(t, eventID, edited.Data.Event.ID)
	require.Equal(t, "Renamed", edited.Data.Event.Title)
	require.True(t, created.Data.Event.CreatedAt.Equal(edited.Data.Event.CreatedAt))
	require.Equal(t, created.Data.Roles[0].ID, catalog.roles[eventID][0].ID)

	entries, err := reader.ListByOrg(context.Background(), "org-rainbow-center", 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	rec = do(h, http.MethodGet, "/events/"+eventID+"/draft", "user-jules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"title":"Renamed"`)
}

func TestHandlers_ValidationNeverWrites(t *testing.T) {
	catalog := newFakeCatalog()
	h, _ := newTestRouter(catalog)

	draft := validDraft()
	draft.EndsAt = draft.StartsAt
	rec := do(h, http.MethodPost, "/events", "user-jules", SaveRequest{OrgID: "org-rainbow-center", Draft: draft})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "End time must be after the start time.")
	require.Empty(t, catalog.events)
}

func TestHandlers_RequiresOrganizer(t *testing.T) {
	catalog := newFakeCatalog()
	h, _ := newTestRouter(catalog)

	rec := do(h, http.MethodPost, "/events", "user-alex", SaveRequest{OrgID: "org-rainbow-center", Draft: validDraft()})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/events", "user-jules", SaveRequest{OrgID: "org-missing", Draft: validDraft()})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, catalog.events)
}

func TestHandlers_RolesFailureKeepsEvent(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.rolesFail = true
	h, _ := newTestRouter(catalog)

	rec := do(h, http.MethodPost, "/events", "user-jules", SaveRequest{OrgID: "org-rainbow-center", Draft: validDraft()})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "permission denied")
	require.Len(t, catalog.events, 1)
}

func TestHandlers_ListVisibility(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.events["late"] = Event{ID: "late", OrgID: "org-rainbow-center", Status: StatusPublished, StartsAt: handlerNow.Add(48 * time.Hour), EndsAt: handlerNow.Add(50 * time.Hour)}
	catalog.events["early"] = Event{ID: "early", OrgID: "org-rainbow-center", Status: StatusPublished, StartsAt: handlerNow.Add(time.Hour), EndsAt: handlerNow.Add(2 * time.Hour)}
	catalog.events["past"] = Event{ID: "past", OrgID: "org-rainbow-center", Status: StatusPublished, StartsAt: handlerNow.Add(-3 * time.Hour), EndsAt: handlerNow.Add(-2 * time.Hour)}
	catalog.events["draft"] = Event{ID: "draft", OrgID: "org-rainbow-center", Status: StatusDraft, StartsAt: handlerNow}
	h, _ := newTestRouter(catalog)

	list := func(path, user string) []string {
		rec := do(h, http.MethodGet, path, user, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				Events []Event `json:"events"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		ids := make([]string, 0, len(resp.Data.Events))
		for _, e := range resp.Data.Events {
			ids = append(ids, e.ID)
		}
		return ids
	}

	require.Equal(t, []string{"past", "early", "late"}, list("/events", "user-alex"))
	require.Equal(t, []string{"early", "late"}, list("/events?upcoming=1", "user-alex"))
	require.Equal(t, []string{"past", "early", "late"}, list("/events?orgId=org-rainbow-center", "user-alex"))
	require.Equal(t, []string{"past", "draft", "early", "late"}, list("/events?orgId=org-rainbow-center", "user-jules"))
}
