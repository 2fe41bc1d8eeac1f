package orgs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/validation"
)

var (
	// ErrOrgNotFound is returned when an organization is not found
	ErrOrgNotFound = errors.New("organization not found")

	// ErrSlugConflict is returned when an organization id is already taken
	ErrSlugConflict = errors.New("organization already exists")

	// ErrNotMember is returned when a user is not an active member of an organization
	ErrNotMember = errors.New("user is not a member of this organization")

	// ErrInsufficientPermissions is returned when a user lacks required permissions
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// ErrInvalidMemberRole is returned for an unknown member role
	ErrInvalidMemberRole = errors.New("invalid member role")
)

// IDFromName derives the organization id "org-<slug>" from its name.
func IDFromName(name string) (string, error) {
	s := slug.Make(name)
	if err := validation.ValidateSlug(s); err != nil {
		return "", err
	}
	return "org-" + s, nil
}

// Service manages organization memberships.
type Service struct {
	store docstore.Store
	now   func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Members lists an organization's members, earliest joined first.
func (s *Service) Members(ctx context.Context, orgID string) ([]Member, error) {
	members, err := docstore.FetchAllAs[Member](ctx, s.store, docstore.MembersPath(orgID))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return joined(members[i]).Before(joined(members[j]))
	})
	return members, nil
}

// Member returns the membership of userID, or nil.
func (s *Service) Member(ctx context.Context, orgID, userID string) (*Member, error) {
	m, err := docstore.FetchOneAs[Member](ctx, s.store, docstore.MembersPath(orgID), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check org membership: %w", err)
	}
	return m, nil
}

// SetMember writes an active membership with role, keeping JoinedAt.
func (s *Service) SetMember(ctx context.Context, orgID, userID string, role MemberRole) (*Member, error) {
	if !role.IsValid() {
		return nil, ErrInvalidMemberRole
	}

	existing, err := s.Member(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	m := Member{ID: userID, UserID: userID, Role: role, Status: MemberActive, JoinedAt: &now}
	if existing != nil && existing.JoinedAt != nil {
		m.JoinedAt = existing.JoinedAt
		m.InvitedAt = existing.InvitedAt
	}

	if err := docstore.SetAs(ctx, s.store, docstore.MembersPath(orgID), userID, m); err != nil {
		return nil, fmt.Errorf("failed to save member: %w", err)
	}
	return &m, nil
}

// RemoveMember marks a membership removed. The document is kept.
func (s *Service) RemoveMember(ctx context.Context, orgID, userID string) error {
	existing, err := s.Member(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotMember
	}
	existing.Status = MemberRemoved
	if err := docstore.SetAs(ctx, s.store, docstore.MembersPath(orgID), userID, existing); err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// RequireMember returns the caller's active membership. The owner always
// counts as an admin even without a member document.
func (s *Service) RequireMember(ctx context.Context, org Organization, userID string) (*Member, error) {
	if org.OwnerUID != "" && org.OwnerUID == userID {
		return &Member{ID: userID, UserID: userID, Role: RoleAdmin, Status: MemberActive}, nil
	}

	m, err := s.Member(ctx, org.ID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Status != MemberActive {
		log.Debug().Str("user_id", userID).Str("org_id", org.ID).Msg("RBAC: User is not a member of organization")
		return nil, ErrNotMember
	}
	return m, nil
}

// RequireManager checks that the caller may manage the organization's
// events: the owner, or an active admin or staff member.
func (s *Service) RequireManager(ctx context.Context, org Organization, userID string) (*Member, error) {
	m, err := s.RequireMember(ctx, org, userID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanMutate() {
		log.Warn().
			Str("user_id", userID).
			Str("org_id", org.ID).
			Str("user_role", string(m.Role)).
			Msg("RBAC: Insufficient permissions")
		return m, ErrInsufficientPermissions
	}
	return m, nil
}

// RequireAdmin checks for the owner or an active admin.
func (s *Service) RequireAdmin(ctx context.Context, org Organization, userID string) (*Member, error) {
	m, err := s.RequireMember(ctx, org, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != RoleAdmin {
		return m, ErrInsufficientPermissions
	}
	return m, nil
}

func joined(m Member) time.Time {
	if m.JoinedAt != nil {
		return *m.JoinedAt
	}
	if m.InvitedAt != nil {
		return *m.InvitedAt
	}
	return time.Time{}
}
