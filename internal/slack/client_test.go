package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostRSVPNotification_Delivers(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	NewClient(1000).PostRSVPNotification(context.Background(), server.URL, RSVPMessage{
		EventID:       "event-coffee-hour",
		EventTitle:    "Community Coffee Hour",
		VolunteerName: "Alex Rivera",
		RoleTitle:     "Host",
		LiveCount:     3,
		Capacity:      "1 of 2 spots left",
		EventURL:      "http://localhost:8080/events/event-coffee-hour",
	})

	require.Contains(t, got.Text, "*Alex Rivera* is going to *Community Coffee Hour* as *Host*")
	require.Contains(t, got.Text, "*Going:* 3 (1 of 2 spots left)")
}

func TestPostRSVPNotification_CancelledText(t *testing.T) {
	text := buildMessageText(RSVPMessage{EventTitle: "Care Kit Assembly", VolunteerName: "Jules", RoleTitle: "Assembler", Cancelled: true})
	require.Contains(t, text, "RSVP Cancelled")
	require.Contains(t, text, "cancelled for *Care Kit Assembly*")
	require.NotContains(t, text, "Assembler")
}

func TestPostRSVPNotification_NeverPanicsOnFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/slow" {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(50)
	client.PostRSVPNotification(context.Background(), server.URL, RSVPMessage{EventID: "e"})
	client.PostRSVPNotification(context.Background(), server.URL+"/slow", RSVPMessage{EventID: "e"})
	client.PostRSVPNotification(context.Background(), "", RSVPMessage{EventID: "e"})

	require.Equal(t, int32(2), calls.Load())
}
