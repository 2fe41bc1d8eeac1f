package rsvps

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/orgs"
)

const (
	submittedMessage = "You're RSVP'd"
	cancelledMessage = "RSVP cancelled"
)

// Catalog is the cached event data RSVP handlers read.
type Catalog interface {
	Events() []events.Event
	Event(id string) (events.Event, bool)
	Roles(eventID string) []events.EventRole
	Organization(id string) (orgs.Organization, bool)
}

type Deps struct {
	Catalog  Catalog
	RSVPs    Service
	Orgs     *orgs.Service
	Notifier Notifier
	Auditor  *audit.Writer
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// SubmitRequest is the body of PUT /events/{event_id}/rsvp. An empty role
// selects the event's first role; missing consent uses DefaultConsent.
type SubmitRequest struct {
	RoleID  string           `json:"roleId"`
	Consent *ConsentSnapshot `json:"consent"`
}

// HandleEventDetail handles GET /api/v1/events/{event_id}
func HandleEventDetail(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		event, ok := visibleEvent(deps, w, r)
		if !ok {
			return
		}
		roles := deps.Catalog.Roles(event.ID)

		mine, err := deps.RSVPs.Fetch(ctx, event.ID, auth.GetUserID(ctx))
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to fetch rsvp")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"event":        event,
			"roles":        roles,
			"availability": Summarize(event, roles),
			"rsvp":         mine,
		})
	}
}

// HandleGet handles GET /api/v1/events/{event_id}/rsvp
func HandleGet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		event, ok := visibleEvent(deps, w, r)
		if !ok {
			return
		}

		mine, err := deps.RSVPs.Fetch(ctx, event.ID, auth.GetUserID(ctx))
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to fetch rsvp")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rsvp": mine,
		})
	}
}

// HandleSubmit handles PUT /api/v1/events/{event_id}/rsvp
func HandleSubmit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		event, ok := visibleEvent(deps, w, r)
		if !ok {
			return
		}
		if event.Status != events.StatusPublished {
			apperrors.WriteConflict(w, r, "Event is not accepting RSVPs")
			return
		}

		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		roles := deps.Catalog.Roles(event.ID)
		roleID := req.RoleID
		if roleID == "" && len(roles) > 0 {
			roleID = roles[0].ID
		}
		consent := DefaultConsent()
		if req.Consent != nil {
			consent = *req.Consent
		}

		existing, err := deps.RSVPs.Fetch(ctx, event.ID, userID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to fetch rsvp")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		// A volunteer who already holds the spot is not counted against it.
		holdsSpot := existing != nil && existing.Status.IsLive() && existing.RoleID == roleID
		if !holdsSpot {
			if err := CheckEligibility(ctx, deps.RSVPs, event, roles, roleID); err != nil {
				writeEligibilityError(w, r, err)
				return
			}
		}

		submitted, err := deps.RSVPs.Submit(ctx, event.ID, userID, roleID, consent)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Str("user_id", userID).Msg("Failed to submit rsvp")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		if err := deps.Auditor.LogRSVPSubmitted(ctx, event.OrgID, event.ID, userID, roleID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}
		deps.Notifier.RSVPChanged(ctx, event, *submitted)

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rsvp":    submitted,
			"message": submittedMessage,
		})
	}
}

// HandleCancel handles DELETE /api/v1/events/{event_id}/rsvp
func HandleCancel(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		event, ok := visibleEvent(deps, w, r)
		if !ok {
			return
		}

		cancelled, err := deps.RSVPs.Cancel(ctx, event.ID, userID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Str("user_id", userID).Msg("Failed to cancel rsvp")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		if err := deps.Auditor.LogRSVPCancelled(ctx, event.OrgID, event.ID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}
		deps.Notifier.RSVPChanged(ctx, event, *cancelled)

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rsvp":    cancelled,
			"message": cancelledMessage,
		})
	}
}

// HandleListForEvent handles GET /api/v1/events/{event_id}/rsvps, the
// organizer's roster, oldest first.
func HandleListForEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		event, ok := managedEvent(deps, w, r)
		if !ok {
			return
		}

		list, err := deps.RSVPs.FetchForEvent(ctx, event.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to list rsvps")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rsvps":     SortByCreated(list),
			"liveCount": LiveCount(list),
		})
	}
}

// HandleListMine handles GET /api/v1/me/rsvps
func HandleListMine(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, list, ok := myRows(deps, w, r)
		if !ok {
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"rows":     rows,
			"statuses": StatusesByEvent(list, deps.Catalog.Events()),
		})
	}
}

// HandleCalendar handles GET /api/v1/me/rsvps/calendar?month=YYYY-MM. The
// month defaults to the current one.
func HandleCalendar(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := deps.now()
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := time.Parse("2006-01", raw)
			if err != nil {
				apperrors.WriteBadRequest(w, r, "month must be formatted YYYY-MM")
				return
			}
			month = parsed
		}

		rows, _, ok := myRows(deps, w, r)
		if !ok {
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"calendar": BuildMonth(month, rows),
		})
	}
}

func myRows(deps Deps, w http.ResponseWriter, r *http.Request) ([]Row, []RSVP, bool) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)

	list, err := deps.RSVPs.FetchForUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list user rsvps")
		apperrors.WriteInternalError(w, r, err.Error())
		return nil, nil, false
	}
	return BuildRows(list, deps.Catalog.Events()), list, true
}

// visibleEvent resolves {event_id}. Unpublished events are only visible
// to their organizers.
func visibleEvent(deps Deps, w http.ResponseWriter, r *http.Request) (events.Event, bool) {
	event, ok := deps.Catalog.Event(chi.URLParam(r, "event_id"))
	if !ok {
		apperrors.WriteNotFound(w, r, "Event not found")
		return events.Event{}, false
	}
	if event.Status == events.StatusPublished || event.Status == events.StatusCancelled {
		return event, true
	}
	if !canManage(r.Context(), deps, event) {
		apperrors.WriteNotFound(w, r, "Event not found")
		return events.Event{}, false
	}
	return event, true
}

func managedEvent(deps Deps, w http.ResponseWriter, r *http.Request) (events.Event, bool) {
	ctx := r.Context()

	event, ok := deps.Catalog.Event(chi.URLParam(r, "event_id"))
	if !ok {
		apperrors.WriteNotFound(w, r, "Event not found")
		return events.Event{}, false
	}
	org, ok := deps.Catalog.Organization(event.OrgID)
	if !ok {
		apperrors.WriteNotFound(w, r, "Organization not found")
		return events.Event{}, false
	}
	if _, err := deps.Orgs.RequireManager(ctx, org, auth.GetUserID(ctx)); err != nil {
		orgs.WritePermissionError(w, r, err)
		return events.Event{}, false
	}
	return event, true
}

func canManage(ctx context.Context, deps Deps, event events.Event) bool {
	org, ok := deps.Catalog.Organization(event.OrgID)
	if !ok {
		return false
	}
	_, err := deps.Orgs.RequireManager(ctx, org, auth.GetUserID(ctx))
	return err == nil
}

func writeEligibilityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEventFull), errors.Is(err, ErrNoOpenRole), errors.Is(err, ErrRoleFull):
		apperrors.WriteCapacityFull(w, r, err.Error())
	case errors.Is(err, ErrUnknownRole):
		apperrors.WriteValidationError(w, r, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to check rsvp eligibility")
		apperrors.WriteInternalError(w, r, err.Error())
	}
}
