package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

const (
	EventUserSignup        = "user.signup"
	EventLoginFailed       = "auth.login_failed"
	EventOrgCreated        = "org.created"
	EventOrgUpdated        = "org.updated"
	EventEventSaved        = "event.saved"
	EventRolesSaved        = "event.roles_saved"
	EventRSVPSubmitted     = "rsvp.submitted"
	EventRSVPCancelled     = "rsvp.cancelled"
	EventAttendeeCheckedIn = "attendance.checked_in"
	EventAttendeeCheckOut  = "attendance.checked_out"
	EventEventsArchived    = "event.archived"
)

// Entry is an audit log document stored at auditLog/{id}.
type Entry struct {
	ID          string         `json:"id"`
	Action      string         `json:"action"`
	OrgID       string         `json:"orgId,omitempty"`
	EventID     string         `json:"eventId,omitempty"`
	ActorUserID string         `json:"actorUserId,omitempty"`
	Meta        map[string]any `json:"meta"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Writer appends audit log entries.
type Writer struct {
	store docstore.Store
	now   func() time.Time
}

func NewWriter(store docstore.Store) *Writer {
	return &Writer{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	OrgID       string
	EventID     string
	ActorUserID string
	Action      string
	Meta        map[string]any
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	entry := Entry{
		ID:          uuid.NewString(),
		Action:      params.Action,
		OrgID:       params.OrgID,
		EventID:     params.EventID,
		ActorUserID: params.ActorUserID,
		Meta:        meta,
		CreatedAt:   w.now(),
	}

	if err := docstore.SetAs(ctx, w.store, docstore.AuditLog, entry.ID, entry); err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	log.Info().
		Str("action", params.Action).
		Str("org_id", params.OrgID).
		Str("event_id", params.EventID).
		Str("actor_user_id", params.ActorUserID).
		Msg("Audit event logged")

	return nil
}

func (w *Writer) LogUserSignup(ctx context.Context, userID, email string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: userID,
		Action:      EventUserSignup,
		Meta:        map[string]any{"email": email},
	})
}

func (w *Writer) LogLoginFailed(ctx context.Context, email, ip string) error {
	return w.Log(ctx, LogParams{
		Action: EventLoginFailed,
		Meta:   map[string]any{"email": email, "ip": ip},
	})
}

func (w *Writer) LogOrgCreated(ctx context.Context, orgID, userID, name string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		ActorUserID: userID,
		Action:      EventOrgCreated,
		Meta:        map[string]any{"name": name},
	})
}

func (w *Writer) LogOrgUpdated(ctx context.Context, orgID, userID string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		ActorUserID: userID,
		Action:      EventOrgUpdated,
	})
}

func (w *Writer) LogEventSaved(ctx context.Context, orgID, eventID, userID string, created bool) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: userID,
		Action:      EventEventSaved,
		Meta:        map[string]any{"created": created},
	})
}

func (w *Writer) LogRolesSaved(ctx context.Context, orgID, eventID, userID string, roleIDs []string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: userID,
		Action:      EventRolesSaved,
		Meta:        map[string]any{"role_ids": roleIDs},
	})
}

func (w *Writer) LogRSVPSubmitted(ctx context.Context, orgID, eventID, userID, roleID string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: userID,
		Action:      EventRSVPSubmitted,
		Meta:        map[string]any{"role_id": roleID},
	})
}

func (w *Writer) LogRSVPCancelled(ctx context.Context, orgID, eventID, userID string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: userID,
		Action:      EventRSVPCancelled,
	})
}

func (w *Writer) LogCheckedIn(ctx context.Context, orgID, eventID, actorUserID, targetUserID string) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: actorUserID,
		Action:      EventAttendeeCheckedIn,
		Meta:        map[string]any{"target_user_id": targetUserID},
	})
}

func (w *Writer) LogCheckedOut(ctx context.Context, orgID, eventID, actorUserID, targetUserID string, hours float64) error {
	return w.Log(ctx, LogParams{
		OrgID:       orgID,
		EventID:     eventID,
		ActorUserID: actorUserID,
		Action:      EventAttendeeCheckOut,
		Meta:        map[string]any{"target_user_id": targetUserID, "hours": hours},
	})
}

// LogEventArchived records a job-driven status change; there is no actor.
func (w *Writer) LogEventArchived(ctx context.Context, orgID, eventID string) error {
	return w.Log(ctx, LogParams{
		OrgID:   orgID,
		EventID: eventID,
		Action:  EventEventsArchived,
	})
}
