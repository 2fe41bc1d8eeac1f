package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/auth"
)

// Directory is the cached profile data handlers read and write through.
type Directory interface {
	User(id string) (User, bool)
	SaveUser(ctx context.Context, u User) error
}

type Deps struct {
	Directory Directory
	Now       func() time.Time
}

// UpdateRequest holds the fields a user may edit on their own profile.
// Roles, status and impact are not editable here.
type UpdateRequest struct {
	DisplayName      string            `json:"displayName"`
	Pronouns         string            `json:"pronouns"`
	PhotoURL         string            `json:"photoURL"`
	Visibility       Visibility        `json:"visibility"`
	Contact          Contact           `json:"contact"`
	VolunteerProfile *VolunteerProfile `json:"volunteerProfile"`
}

// HandleGetMe handles GET /api/v1/me
func HandleGetMe(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := deps.Directory.User(auth.GetUserID(r.Context()))
		if !ok {
			apperrors.WriteNotFound(w, r, "Profile not found")
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": u,
		})
	}
}

// HandleUpdateMe handles PUT /api/v1/me
func HandleUpdateMe(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		u, ok := deps.Directory.User(auth.GetUserID(ctx))
		if !ok {
			apperrors.WriteNotFound(w, r, "Profile not found")
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		name := strings.TrimSpace(req.DisplayName)
		if name == "" {
			apperrors.WriteValidationError(w, r, "Display name is required")
			return
		}
		switch req.Contact.PreferredChannel {
		case ChannelEmail, ChannelSMS, ChannelPush:
		case "":
			req.Contact.PreferredChannel = ChannelEmail
		default:
			apperrors.WriteValidationError(w, r, "Preferred channel must be email, sms or push")
			return
		}

		u.DisplayName = name
		u.Pronouns = strings.TrimSpace(req.Pronouns)
		u.PhotoURL = strings.TrimSpace(req.PhotoURL)
		u.Visibility = req.Visibility
		u.Contact = req.Contact
		u.VolunteerProfile = req.VolunteerProfile
		u.UpdatedAt = time.Now().UTC()
		if deps.Now != nil {
			u.UpdatedAt = deps.Now()
		}

		if err := deps.Directory.SaveUser(ctx, u); err != nil {
			log.Error().Err(err).Str("user_id", u.ID).Msg("Failed to save profile")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": u,
		})
	}
}
