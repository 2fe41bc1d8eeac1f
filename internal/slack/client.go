package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// RSVPMessage describes one RSVP change for the organizer feed.
type RSVPMessage struct {
	EventID       string
	EventTitle    string
	VolunteerName string
	RoleTitle     string
	Cancelled     bool
	LiveCount     int
	Capacity      string
	EventURL      string
}

// Client posts to Slack incoming webhooks.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client whose requests time out after timeoutMS.
func NewClient(timeoutMS int) *Client {
	timeout := time.Duration(timeoutMS) * time.Millisecond
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// PostRSVPNotification sends msg to webhookURL. It never returns an error:
// every failure is logged at WARN so RSVP calls are not affected.
func (c *Client) PostRSVPNotification(ctx context.Context, webhookURL string, msg RSVPMessage) {
	if webhookURL == "" {
		return
	}

	jsonData, err := json.Marshal(slackPayload{Text: buildMessageText(msg)})
	if err != nil {
		log.Warn().Err(err).Str("event_id", msg.EventID).Msg("Failed to marshal Slack payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Warn().Err(err).Str("webhook_url", "<set>").Msg("Failed to create Slack request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeoutError(err) {
			log.Warn().
				Err(err).
				Dur("timeout_ms", c.timeout).
				Str("event_id", msg.EventID).
				Msg("Slack notification timed out")
		} else {
			log.Warn().Err(err).Str("event_id", msg.EventID).Msg("Failed to send Slack notification")
		}
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		log.Warn().Int("status_code", resp.StatusCode).Str("event_id", msg.EventID).Msg("Slack webhook returned client error (4xx)")
		return
	case resp.StatusCode >= 500:
		log.Warn().Int("status_code", resp.StatusCode).Str("event_id", msg.EventID).Msg("Slack webhook returned server error (5xx)")
		return
	case resp.StatusCode != http.StatusOK:
		log.Warn().Int("status_code", resp.StatusCode).Str("event_id", msg.EventID).Msg("Slack webhook returned unexpected status code")
		return
	}

	log.Info().
		Str("event_id", msg.EventID).
		Bool("cancelled", msg.Cancelled).
		Int("live_count", msg.LiveCount).
		Msg("Slack notification sent successfully")
}

func buildMessageText(msg RSVPMessage) string {
	headline := "🙋 *New RSVP*"
	verb := "is going to"
	if msg.Cancelled {
		headline = "👋 *RSVP Cancelled*"
		verb = "cancelled for"
	}

	text := fmt.Sprintf("%s\n\n*%s* %s *%s*", headline, msg.VolunteerName, verb, msg.EventTitle)
	if msg.RoleTitle != "" && !msg.Cancelled {
		text += fmt.Sprintf(" as *%s*", msg.RoleTitle)
	}
	text += fmt.Sprintf("\n\n*Going:* %d", msg.LiveCount)
	if msg.Capacity != "" {
		text += fmt.Sprintf(" (%s)", msg.Capacity)
	}
	if msg.EventURL != "" {
		text += fmt.Sprintf("\n\n<%s|View Event>", msg.EventURL)
	}
	return text
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
