package messaging

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/auth"
)

type SendRequest struct {
	Body string `json:"body"`
}

// HandleListThreads handles GET /api/v1/threads
func HandleListThreads(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threads, err := svc.ThreadsFor(r.Context(), auth.GetUserID(r.Context()))
		if err != nil {
			log.Error().Err(err).Msg("Failed to list threads")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"threads": threads,
		})
	}
}

// HandleListMessages handles GET /api/v1/threads/{thread_id}/messages
func HandleListMessages(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		messages, err := svc.Messages(ctx, chi.URLParam(r, "thread_id"), auth.GetUserID(ctx))
		if err != nil {
			writeMessagingError(w, r, err)
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"messages": messages,
		})
	}
}

// HandleSend handles POST /api/v1/threads/{thread_id}/messages
func HandleSend(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		msg, err := svc.Send(ctx, chi.URLParam(r, "thread_id"), auth.GetUserID(ctx), req.Body)
		if err != nil {
			writeMessagingError(w, r, err)
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"message": msg,
		})
	}
}

// Threads a caller does not take part in are reported as missing.
func writeMessagingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrNotParticipant):
		apperrors.WriteNotFound(w, r, "Thread not found")
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrBodyTooLong):
		apperrors.WriteValidationError(w, r, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to access thread")
		apperrors.WriteInternalError(w, r, err.Error())
	}
}
