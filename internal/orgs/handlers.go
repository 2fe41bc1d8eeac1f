package orgs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/apperrors"
	"github.com/volunqueer/volunqueer/internal/audit"
	"github.com/volunqueer/volunqueer/internal/auth"
	"github.com/volunqueer/volunqueer/internal/users"
)

// Catalog is the cached view of organizations and profiles that handlers
// read from and write through.
type Catalog interface {
	Organizations() []Organization
	Organization(id string) (Organization, bool)
	SaveOrganization(ctx context.Context, o Organization) error
	User(id string) (users.User, bool)
	SaveUser(ctx context.Context, u users.User) error
}

type Deps struct {
	Catalog Catalog
	Service *Service
	Auditor *audit.Writer
	Audit   *audit.Reader
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// OrgRequest is the editable part of an organization.
type OrgRequest struct {
	Name     string    `json:"name"`
	Mission  string    `json:"mission"`
	Website  string    `json:"website"`
	Location *Location `json:"location"`
	Contact  *Contact  `json:"contact"`
}

func (req *OrgRequest) apply(o *Organization) {
	o.Name = strings.TrimSpace(req.Name)
	o.Mission = strings.TrimSpace(req.Mission)
	o.Website = strings.TrimSpace(req.Website)
	o.Location = req.Location
	o.Contact = req.Contact
}

// HandleCreate handles POST /api/v1/orgs
func HandleCreate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req OrgRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			apperrors.WriteValidationError(w, r, "Organization name is required")
			return
		}

		orgID, err := IDFromName(req.Name)
		if err != nil {
			apperrors.WriteValidationError(w, r, "Organization name must contain at least 3 letters or digits")
			return
		}
		if _, exists := deps.Catalog.Organization(orgID); exists {
			apperrors.WriteConflict(w, r, ErrSlugConflict.Error())
			return
		}

		now := deps.now()
		org := Organization{ID: orgID, OwnerUID: userID, CreatedAt: now, UpdatedAt: now}
		req.apply(&org)

		if err := deps.Catalog.SaveOrganization(ctx, org); err != nil {
			log.Error().Err(err).Str("org_id", orgID).Msg("Failed to create organization")
			apperrors.WriteInternalError(w, r, "Failed to create organization")
			return
		}
		if _, err := deps.Service.SetMember(ctx, orgID, userID, RoleAdmin); err != nil {
			log.Error().Err(err).Str("org_id", orgID).Msg("Failed to add organization owner")
			apperrors.WriteInternalError(w, r, "Failed to create organization")
			return
		}
		if u, ok := deps.Catalog.User(userID); ok {
			if err := deps.Catalog.SaveUser(ctx, u.JoinOrganization(orgID)); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to link organizer profile")
			}
		}

		if err := deps.Auditor.LogOrgCreated(ctx, orgID, userID, org.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"org": org,
		})
	}
}

// HandleList handles GET /api/v1/orgs. With ?mine=1 only organizations the
// caller belongs to are listed.
func HandleList(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		list := deps.Catalog.Organizations()
		if r.URL.Query().Get("mine") == "1" {
			mine := make([]Organization, 0, len(list))
			for _, o := range list {
				_, err := deps.Service.RequireMember(ctx, o, userID)
				if err == nil {
					mine = append(mine, o)
					continue
				}
				if !errors.Is(err, ErrNotMember) {
					log.Error().Err(err).Msg("Failed to check org membership")
					apperrors.WriteInternalError(w, r, "Failed to list organizations")
					return
				}
			}
			list = mine
		}

		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"orgs": list,
		})
	}
}

// HandleGet handles GET /api/v1/orgs/{org_id}
func HandleGet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, ok := deps.Catalog.Organization(chi.URLParam(r, "org_id"))
		if !ok {
			apperrors.WriteNotFound(w, r, "Organization not found")
			return
		}
		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"org": org,
		})
	}
}

// HandleUpdate handles PUT /api/v1/orgs/{org_id}
func HandleUpdate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		org, ok := requireOrg(deps, w, r)
		if !ok {
			return
		}
		if _, err := deps.Service.RequireAdmin(ctx, org, userID); err != nil {
			WritePermissionError(w, r, err)
			return
		}

		var req OrgRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			apperrors.WriteValidationError(w, r, "Organization name is required")
			return
		}

		req.apply(&org)
		org.UpdatedAt = deps.now()
		if err := deps.Catalog.SaveOrganization(ctx, org); err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("Failed to update organization")
			apperrors.WriteInternalError(w, r, "Failed to update organization")
			return
		}

		if err := deps.Auditor.LogOrgUpdated(ctx, org.ID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"org": org,
		})
	}
}

// HandleListMembers handles GET /api/v1/orgs/{org_id}/members
func HandleListMembers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		org, ok := requireOrg(deps, w, r)
		if !ok {
			return
		}
		if _, err := deps.Service.RequireMember(ctx, org, auth.GetUserID(ctx)); err != nil {
			WritePermissionError(w, r, err)
			return
		}

		members, err := deps.Service.Members(ctx, org.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to list members")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": members,
		})
	}
}

// HandleListAudit handles GET /api/v1/orgs/{org_id}/audit?limit=N
func HandleListAudit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		org, ok := requireOrg(deps, w, r)
		if !ok {
			return
		}
		if _, err := deps.Service.RequireManager(ctx, org, auth.GetUserID(ctx)); err != nil {
			WritePermissionError(w, r, err)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				apperrors.WriteBadRequest(w, r, "limit must be a positive integer")
				return
			}
			limit = n
		}

		entries, err := deps.Audit.ListByOrg(ctx, org.ID, limit)
		if err != nil {
			log.Error().Err(err).Str("org_id", org.ID).Msg("Failed to list audit log")
			apperrors.WriteInternalError(w, r, "Failed to list audit log")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"entries": entries,
		})
	}
}

func requireOrg(deps Deps, w http.ResponseWriter, r *http.Request) (Organization, bool) {
	org, ok := deps.Catalog.Organization(chi.URLParam(r, "org_id"))
	if !ok {
		apperrors.WriteNotFound(w, r, "Organization not found")
	}
	return org, ok
}

// WritePermissionError maps membership errors to responses. Non-members
// get 404 so organizations are not disclosed.
func WritePermissionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotMember):
		apperrors.WriteNotFound(w, r, "Organization not found")
	case errors.Is(err, ErrInsufficientPermissions):
		apperrors.WriteForbidden(w, r, "Insufficient permissions")
	default:
		log.Error().Err(err).Msg("Failed to check org membership")
		apperrors.WriteInternalError(w, r, "Failed to check permissions")
	}
}

