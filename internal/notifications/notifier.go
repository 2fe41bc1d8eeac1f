package notifications

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/email"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/rsvps"
	"github.com/volunqueer/volunqueer/internal/slack"
	"github.com/volunqueer/volunqueer/internal/users"
)

// Directory resolves profiles and roles from the application cache.
type Directory interface {
	User(id string) (users.User, bool)
	Roles(eventID string) []events.EventRole
}

// NotifierConfig wires the side channels of an RSVP change.
type NotifierConfig struct {
	Inbox        *Service
	RSVPs        rsvps.Service
	Directory    Directory
	Slack        *slack.Client
	SlackWebhook string
	Mailer       email.Mailer
	BaseURL      string
}

// Notifier fans an RSVP change out to the volunteer's inbox, the organizer
// Slack feed and email. Failures are logged and never returned.
type Notifier struct {
	cfg NotifierConfig
}

var _ rsvps.Notifier = (*Notifier)(nil)

func NewNotifier(cfg NotifierConfig) *Notifier {
	return &Notifier{cfg: cfg}
}

func (n *Notifier) RSVPChanged(ctx context.Context, event events.Event, r rsvps.RSVP) {
	cancelled := r.Status == rsvps.StatusCancelled
	volunteer, known := n.cfg.Directory.User(r.UserID)
	role := findRole(n.cfg.Directory.Roles(event.ID), r.RoleID)

	n.notifyInbox(ctx, event, r, cancelled)
	n.notifySlack(ctx, event, r, volunteer, role, cancelled)
	if known {
		n.notifyEmail(ctx, event, volunteer, role, cancelled)
	}
}

func (n *Notifier) notifyInbox(ctx context.Context, event events.Event, r rsvps.RSVP, cancelled bool) {
	if n.cfg.Inbox == nil {
		return
	}
	body := "You're RSVP'd."
	if cancelled {
		body = "RSVP cancelled."
	}
	_, err := n.cfg.Inbox.Create(ctx, r.UserID, Notification{
		Type:     TypeRSVPUpdate,
		Title:    event.Title,
		Body:     body,
		DeepLink: EventDeepLink(event.ID),
	})
	if err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Str("user_id", r.UserID).Msg("Failed to create RSVP notification")
	}
}

func (n *Notifier) notifySlack(ctx context.Context, event events.Event, r rsvps.RSVP, volunteer users.User, role *events.EventRole, cancelled bool) {
	if n.cfg.Slack == nil || n.cfg.SlackWebhook == "" {
		return
	}

	live := 0
	if list, err := n.cfg.RSVPs.FetchForEvent(ctx, event.ID); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Failed to count rsvps for Slack message")
	} else {
		live = rsvps.LiveCount(list)
	}

	name := volunteer.DisplayName
	if name == "" {
		name = r.UserID
	}
	msg := slack.RSVPMessage{
		EventID:       event.ID,
		EventTitle:    event.Title,
		VolunteerName: name,
		Cancelled:     cancelled,
		LiveCount:     live,
		Capacity:      rsvps.Summarize(event, n.cfg.Directory.Roles(event.ID)).Label,
		EventURL:      n.eventURL(event.ID),
	}
	if role != nil {
		msg.RoleTitle = role.Title
	}
	n.cfg.Slack.PostRSVPNotification(ctx, n.cfg.SlackWebhook, msg)
}

func (n *Notifier) notifyEmail(ctx context.Context, event events.Event, volunteer users.User, role *events.EventRole, cancelled bool) {
	if n.cfg.Mailer == nil {
		return
	}
	if volunteer.Contact.PreferredChannel != users.ChannelEmail || volunteer.Contact.Email == "" {
		return
	}

	data := email.RSVPData{
		VolunteerName: volunteer.DisplayName,
		EventTitle:    event.Title,
		StartsAt:      event.StartsAt.In(event.Zone()).Format("Mon, Jan 2 at 3:04 PM MST"),
		Location:      event.Location.Name,
		EventURL:      n.eventURL(event.ID),
	}
	if role != nil {
		data.RoleTitle = role.Title
	}

	tmpl := email.TemplateRSVPConfirmed
	if cancelled {
		tmpl = email.TemplateRSVPCancelled
	}
	subject, html, text, err := email.Render(tmpl, data)
	if err != nil {
		log.Warn().Err(err).Str("template", tmpl).Msg("Failed to render RSVP email")
		return
	}
	if err := n.cfg.Mailer.Send(ctx, volunteer.Contact.Email, subject, html, text); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Str("user_id", volunteer.ID).Msg("Failed to send RSVP email")
	}
}

func (n *Notifier) eventURL(eventID string) string {
	return fmt.Sprintf("%s/api/v1/events/%s", n.cfg.BaseURL, eventID)
}

func findRole(roles []events.EventRole, id string) *events.EventRole {
	if id == "" {
		return nil
	}
	for i := range roles {
		if roles[i].ID == id {
			return &roles[i]
		}
	}
	return nil
}
