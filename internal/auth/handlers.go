package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/validation"
)

// Profiles creates the profile document that backs a new login.
type Profiles interface {
	CreateProfile(ctx context.Context, userID, email, displayName string) error
}

// Deps bundles what the signup and login handlers need.
type Deps struct {
	Credentials *Credentials
	Profiles    Profiles
	Auditor     *audit.Writer
	JWTSecret   string
	SessionDays int
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// HandleSignup handles POST /api/v1/auth/signup
func HandleSignup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		email := NormalizeEmail(req.Email)
		if validation.ValidateEmail(email) != nil {
			apperrors.WriteBadRequest(w, r, "Invalid email address")
			return
		}
		if len(req.Password) < 8 {
			apperrors.WriteBadRequest(w, r, "Password must be at least 8 characters")
			return
		}
		if len(req.Password) > MaxPasswordBytes {
			apperrors.WriteBadRequest(w, r, fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
			return
		}
		displayName := strings.TrimSpace(req.DisplayName)
		if displayName == "" {
			apperrors.WriteBadRequest(w, r, "Display name is required")
			return
		}

		userID := "user-" + uuid.NewString()
		if _, err := deps.Credentials.Create(ctx, email, userID, req.Password); err != nil {
			if errors.Is(err, ErrEmailTaken) {
				apperrors.WriteConflict(w, r, "Email address already registered")
				return
			}
			log.Error().Err(err).Str("email", email).Msg("Failed to create credential")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		if err := deps.Profiles.CreateProfile(ctx, userID, email, displayName); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to create profile")
			apperrors.WriteInternalError(w, r, err.Error())
			return
		}

		if err := deps.Auditor.LogUserSignup(ctx, userID, email); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to log audit event")
		}

		token, err := CreateToken(userID, deps.JWTSecret, deps.SessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		log.Info().Str("user_id", userID).Str("email", email).Msg("User signed up successfully")

		apperrors.WriteSuccess(w, r, http.StatusCreated, TokenResponse{
			UserID: userID,
			Email:  email,
			Token:  token,
		})
	}
}

// HandleLogin handles POST /api/v1/auth/login
func HandleLogin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		email := NormalizeEmail(req.Email)
		if email == "" || req.Password == "" || validation.ValidateEmail(email) != nil {
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		userID, err := deps.Credentials.Authenticate(ctx, email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				log.Debug().Str("email", email).Msg("Login failed")
				if auditErr := deps.Auditor.LogLoginFailed(ctx, email, r.RemoteAddr); auditErr != nil {
					log.Error().Err(auditErr).Msg("Failed to log audit event")
				}
				apperrors.WriteUnauthorized(w, r, "Invalid credentials")
				return
			}
			log.Error().Err(err).Str("email", email).Msg("Failed to look up credential")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		token, err := CreateToken(userID, deps.JWTSecret, deps.SessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		log.Info().Str("user_id", userID).Str("email", email).Msg("User logged in successfully")

		apperrors.WriteSuccess(w, r, http.StatusOK, TokenResponse{
			UserID: userID,
			Email:  email,
			Token:  token,
		})
	}
}
