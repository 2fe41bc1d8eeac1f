package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/volunqueer/volunqueer/internal/docstore/memory"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/rsvps"
	"github.com/volunqueer/volunqueer/internal/slack"
	"github.com/volunqueer/volunqueer/internal/users"
)

type fakeDirectory struct {
	users map[string]users.User
	roles map[string][]events.EventRole
}

func (d fakeDirectory) User(id string) (users.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

func (d fakeDirectory) Roles(eventID string) []events.EventRole { return d.roles[eventID] }

type sentMail struct {
	to, subject string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

func TestNotifier_FansOut(t *testing.T) {
	ctx := context.Background()

	var slackTexts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		slackTexts = append(slackTexts, payload.Text)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := events.Event{
		ID:       "event-coffee-hour",
		Title:    "Community Coffee Hour",
		StartsAt: time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		Timezone: "America/Chicago",
	}
	dir := fakeDirectory{
		users: map[string]users.User{
			"user-alex": {ID: "user-alex", DisplayName: "Alex Rivera", Contact: users.Contact{Email: "alex@example.com", PreferredChannel: users.ChannelEmail}},
		},
		roles: map[string][]events.EventRole{
			"event-coffee-hour": {{ID: "role-host", Title: "Host", SlotsTotal: 2, SlotsFilled: 1}},
		},
	}

	rsvpService := rsvps.NewMemoryService(nil)
	r, err := rsvpService.Submit(ctx, event.ID, "user-alex", "role-host", rsvps.DefaultConsent())
	require.NoError(t, err)

	inbox := NewService(memory.New())
	mailer := &recordingMailer{}
	n := NewNotifier(NotifierConfig{
		Inbox:        inbox,
		RSVPs:        rsvpService,
		Directory:    dir,
		Slack:        slack.NewClient(1000),
		SlackWebhook: server.URL,
		Mailer:       mailer,
		BaseURL:      "http://localhost:8080",
	})

	n.RSVPChanged(ctx, event, *r)

	list, err := inbox.List(ctx, "user-alex")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, TypeRSVPUpdate, list[0].Type)
	require.Equal(t, "You're RSVP'd.", list[0].Body)

	require.Len(t, slackTexts, 1)
	require.Contains(t, slackTexts[0], "*Alex Rivera* is going to *Community Coffee Hour* as *Host*")
	require.Contains(t, slackTexts[0], "*Going:* 1 (1 of 2 spots left)")

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alex@example.com", mailer.sent[0].to)
	require.Equal(t, "You're going to Community Coffee Hour", mailer.sent[0].subject)
}

func TestNotifier_SkipsEmailForOtherChannels(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	dir := fakeDirectory{users: map[string]users.User{
		"user-sam": {ID: "user-sam", DisplayName: "Sam", Contact: users.Contact{Email: "sam@example.com", PreferredChannel: users.ChannelSMS}},
	}}

	n := NewNotifier(NotifierConfig{
		Inbox:     NewService(memory.New()),
		RSVPs:     rsvps.NewMemoryService(nil),
		Directory: dir,
		Mailer:    mailer,
	})
	n.RSVPChanged(ctx, events.Event{ID: "event-kits", Title: "Care Kit Assembly"}, rsvps.RSVP{UserID: "user-sam", Status: rsvps.StatusCancelled})

	require.Empty(t, mailer.sent)
}
