package attendance

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/users"
)

type Deps struct {
	Events  events.Deps
	Users   users.Directory
	Service *Service
	Auditor *audit.Writer
}

type CheckOutRequest struct {
	Notes string `json:"notes"`
}

// HandleList handles GET /api/v1/events/{event_id}/attendance
func HandleList(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, ok := events.RequireManagedEvent(deps.Events, w, r)
		if !ok {
			return
		}

		records, err := deps.Service.List(r.Context(), event.ID)
		if err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to list attendance")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"attendance": records,
		})
	}
}

// HandleCheckIn handles POST /api/v1/events/{event_id}/attendance/{user_id}/check-in
func HandleCheckIn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizerID := auth.GetUserID(ctx)

		event, ok := events.RequireManagedEvent(deps.Events, w, r)
		if !ok {
			return
		}
		userID := chi.URLParam(r, "user_id")

		record, err := deps.Service.CheckIn(ctx, event.ID, userID, organizerID)
		if err != nil {
			writeAttendanceError(w, r, err)
			return
		}

		if err := deps.Auditor.LogCheckedIn(ctx, event.OrgID, event.ID, organizerID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"attendance": record,
		})
	}
}

// HandleCheckOut handles POST /api/v1/events/{event_id}/attendance/{user_id}/check-out
func HandleCheckOut(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizerID := auth.GetUserID(ctx)

		event, ok := events.RequireManagedEvent(deps.Events, w, r)
		if !ok {
			return
		}
		userID := chi.URLParam(r, "user_id")

		var req CheckOutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		record, err := deps.Service.CheckOut(ctx, event.ID, userID, organizerID, req.Notes)
		if err != nil {
			writeAttendanceError(w, r, err)
			return
		}

		hours := 0.0
		if record.Hours != nil {
			hours = *record.Hours
		}
		if err := deps.Auditor.LogCheckedOut(ctx, event.OrgID, event.ID, organizerID, userID, hours); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		// The impact summary is best effort; the attendance record is the source of truth.
		if u, ok := deps.Users.User(userID); ok {
			if err := deps.Users.SaveUser(ctx, u.RecordAttendance(hours, event.StartsAt)); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to update impact summary")
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"attendance": record,
		})
	}
}

func writeAttendanceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrNotCheckedIn):
		apperrors.WriteConflict(w, r, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to record attendance")
		apperrors.WriteInternalError(w, r, err.Error())
	}
}
