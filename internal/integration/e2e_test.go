package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/app"
	"github.com/volunqueer/volunqueer/internal/config"
	"github.com/volunqueer/volunqueer/internal/docstore/postgres"
	"github.com/volunqueer/volunqueer/internal/seed"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:              "dev",
		HTTPAddr:         ":0",
		BaseURL:          "http://localhost",
		DataSource:       config.DataSourcePostgres,
		JWTSecret:        "test-secret",
		SessionDays:      7,
		LogLevel:         "error",
		RateLimitRPM:     1000,
		SlackTimeoutMS:   2000,
		MailProvider:     "noop",
		ReminderWindow:   24 * time.Hour,
		ArchiveAfterDays: 30,
	}
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path, body string) (int, map[string]json.RawMessage) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	return resp.StatusCode, envelope.Data
}

func startServer(t *testing.T, store *postgres.Store, cfg *config.Config) (*httptest.Server, *app.Services) {
	t.Helper()
	ctx := context.Background()

	svc, err := app.NewServices(ctx, cfg, store)
	require.NoError(t, err)
	require.NoError(t, svc.Store.Load(ctx))

	srv := httptest.NewServer(app.NewRouter(cfg, svc))
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestE2E_OrganizerAndVolunteerOverPostgres(t *testing.T) {
	pool := newTestDB(t)
	store := postgres.NewFromPool(pool)
	cfg := testConfig()

	srv, _ := startServer(t, store, cfg)

	organizer := &client{t: t, base: srv.URL + "/api/v1"}
	status, data := organizer.do(http.MethodPost, "/auth/signup", `{"email":"lead@example.org","password":"password123","displayName":"Lead"}`)
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, json.Unmarshal(data["token"], &organizer.token))

	status, data = organizer.do(http.MethodPost, "/orgs", `{"name":"Harbor Food Bank","mission":"Feed the harbor"}`)
	require.Equal(t, http.StatusCreated, status)
	var org struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data["org"], &org))
	require.Equal(t, "org-harbor-food-bank", org.ID)

	starts := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Minute)
	eventBody, err := json.Marshal(map[string]any{
		"orgId":        org.ID,
		"title":        "Pantry Sort",
		"startsAt":     starts,
		"endsAt":       starts.Add(2 * time.Hour),
		"timezone":     "America/Chicago",
		"locationName": "Harbor Warehouse",
		"locationCity": "Chicago",
		"status":       "published",
		"roles": []map[string]any{
			{"title": "Sorter", "slotsTotal": 1},
		},
	})
	require.NoError(t, err)

	status, data = organizer.do(http.MethodPost, "/events", string(eventBody))
	require.Equal(t, http.StatusCreated, status)
	var event struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data["event"], &event))
	require.NotEmpty(t, event.ID)

	volunteer := &client{t: t, base: srv.URL + "/api/v1"}
	status, data = volunteer.do(http.MethodPost, "/auth/signup", `{"email":"vol@example.org","password":"password123","displayName":"Vol"}`)
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, json.Unmarshal(data["token"], &volunteer.token))

	status, _ = volunteer.do(http.MethodPut, "/events/"+event.ID+"/rsvp", `{}`)
	require.Equal(t, http.StatusOK, status)

	status, data = organizer.do(http.MethodGet, "/events/"+event.ID+"/rsvps", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(data["rsvps"]), `"status":"rsvp"`)

	status, data = organizer.do(http.MethodGet, "/orgs/"+org.ID+"/audit", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(data["entries"]), "org.created")

	// A second instance over the same database sees everything written.
	srv2, svc2 := startServer(t, store, cfg)
	_, ok := svc2.Store.Event(event.ID)
	require.True(t, ok)

	volunteer.base = srv2.URL + "/api/v1"
	status, data = volunteer.do(http.MethodGet, "/me/rsvps", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(data["statuses"]), `"`+event.ID+`":"rsvp"`)

	status, _ = volunteer.do(http.MethodDelete, "/events/"+event.ID+"/rsvp", "")
	require.Equal(t, http.StatusOK, status)
}

func TestE2E_SeedOnlyFillsEmptyDatabase(t *testing.T) {
	pool := newTestDB(t)
	store := postgres.NewFromPool(pool)
	ctx := context.Background()
	bundle := seed.Build(time.Now().UTC())

	wrote, err := seed.IfEmpty(ctx, store, bundle)
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = seed.IfEmpty(ctx, store, bundle)
	require.NoError(t, err)
	require.False(t, wrote)

	_, svc := startServer(t, store, testConfig())
	require.Len(t, svc.Store.Events(), len(bundle.Events))

	list, err := svc.RSVPs.FetchForUser(ctx, "user-alex")
	require.NoError(t, err)
	require.NotEmpty(t, list)
}
