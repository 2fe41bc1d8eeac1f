package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/orgs"
)

// Catalog is the cached event data handlers read and write through.
type Catalog interface {
	Events() []Event
	Event(id string) (Event, bool)
	Roles(eventID string) []EventRole
	Organization(id string) (orgs.Organization, bool)
	SaveEvent(ctx context.Context, e Event) error
	SaveRoles(ctx context.Context, roles []EventRole, eventID string) error
}

type Deps struct {
	Catalog Catalog
	Orgs    *orgs.Service
	Auditor *audit.Writer
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// SaveRequest is a draft plus the organization it is created under.
// OrgID is ignored when editing.
type SaveRequest struct {
	OrgID string `json:"orgId"`
	Draft
}

// HandleList handles GET /api/v1/events
//
// Volunteers see published events. Filtering by ?orgId= as a manager of
// that organization includes drafts, cancelled and archived events.
// ?upcoming=1 drops events that have already ended.
func HandleList(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()
		orgID := q.Get("orgId")
		upcoming := q.Get("upcoming") == "1"

		showAll := false
		if orgID != "" {
			if org, ok := deps.Catalog.Organization(orgID); ok {
				_, err := deps.Orgs.RequireManager(ctx, org, auth.GetUserID(ctx))
				showAll = err == nil
			}
		}

		now := deps.now()
		list := make([]Event, 0)
		for _, e := range deps.Catalog.Events() {
			if orgID != "" && e.OrgID != orgID {
				continue
			}
			if e.Status != StatusPublished && !showAll {
				continue
			}
			if upcoming && !e.EndsAt.After(now) {
				continue
			}
			list = append(list, e)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].StartsAt.Before(list[j].StartsAt) })

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"events": list,
		})
	}
}

// HandleCreate handles POST /api/v1/events
func HandleCreate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		org, ok := deps.Catalog.Organization(req.OrgID)
		if !ok {
			apperrors.WriteNotFound(w, r, "Organization not found")
			return
		}
		if _, err := deps.Orgs.RequireManager(ctx, org, userID); err != nil {
			orgs.WritePermissionError(w, r, err)
			return
		}

		save(deps, w, r, http.StatusCreated, req.Draft, org.ID, BuildOptions{})
	}
}

// HandleUpdate handles PUT /api/v1/events/{event_id}
func HandleUpdate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		existing, ok := RequireManagedEvent(deps, w, r)
		if !ok {
			return
		}

		var req SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		log.Debug().Str("event_id", existing.ID).Str("user_id", auth.GetUserID(ctx)).Msg("Updating event")
		save(deps, w, r, http.StatusOK, req.Draft, existing.OrgID, BuildOptions{
			EventID:   existing.ID,
			CreatedAt: existing.CreatedAt,
			CreatedBy: existing.CreatedBy,
		})
	}
}

// HandleGetDraft handles GET /api/v1/events/{event_id}/draft, the editable
// form of an event for its organizers.
func HandleGetDraft(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, ok := RequireManagedEvent(deps, w, r)
		if !ok {
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"draft": DraftFromEvent(event, deps.Catalog.Roles(event.ID)),
		})
	}
}

// save validates the draft, writes the event and then its roles. A roles
// failure leaves the saved event in place and reports the error.
func save(deps Deps, w http.ResponseWriter, r *http.Request, status int, draft Draft, orgID string, opts BuildOptions) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)

	if err := draft.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			apperrors.WriteValidationError(w, r, verr.Message)
			return
		}
		apperrors.WriteBadRequest(w, r, err.Error())
		return
	}

	event, roles := draft.Build(userID, orgID, opts, deps.now())

	if err := deps.Catalog.SaveEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save event")
		apperrors.WriteInternalError(w, r, err.Error())
		return
	}
	if err := deps.Auditor.LogEventSaved(ctx, orgID, event.ID, userID, opts.EventID == ""); err != nil {
		log.Error().Err(err).Msg("Failed to log audit event")
	}

	if err := deps.Catalog.SaveRoles(ctx, roles, event.ID); err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save event roles")
		apperrors.WriteInternalError(w, r, err.Error())
		return
	}

	roleIDs := make([]string, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	if err := deps.Auditor.LogRolesSaved(ctx, orgID, event.ID, userID, roleIDs); err != nil {
		log.Error().Err(err).Msg("Failed to log audit event")
	}

	apperrors.WriteSuccess(w, r, status, map[string]any{
		"event": event,
		"roles": roles,
	})
}

// RequireManagedEvent resolves {event_id} and checks the caller manages
// its organization. It writes the error response on failure.
func RequireManagedEvent(deps Deps, w http.ResponseWriter, r *http.Request) (Event, bool) {
	ctx := r.Context()

	event, ok := deps.Catalog.Event(chi.URLParam(r, "event_id"))
	if !ok {
		apperrors.WriteNotFound(w, r, "Event not found")
		return Event{}, false
	}
	org, ok := deps.Catalog.Organization(event.OrgID)
	if !ok {
		apperrors.WriteNotFound(w, r, "Organization not found")
		return Event{}, false
	}
	if _, err := deps.Orgs.RequireManager(ctx, org, auth.GetUserID(ctx)); err != nil {
		orgs.WritePermissionError(w, r, err)
		return Event{}, false
	}
	return event, true
}

