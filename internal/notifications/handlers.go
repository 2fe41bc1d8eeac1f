package notifications

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/auth"
)

// HandleList handles GET /api/v1/me/notifications
func HandleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), auth.GetUserID(r.Context()))
		if err != nil {
			log.Error().Err(err).Msg("Failed to list notifications")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"notifications": list,
			"unread":        UnreadCount(list),
		})
	}
}

// HandleMarkRead handles POST /api/v1/me/notifications/{notification_id}/read
func HandleMarkRead(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		n, err := svc.MarkRead(ctx, auth.GetUserID(ctx), chi.URLParam(r, "notification_id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteNotFound(w, r, "Notification not found")
				return
			}
			log.Error().Err(err).Msg("Failed to mark notification read")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"notification": n,
		})
	}
}
