package appstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/orgs"
	"github.com/volunqueer/volunqueer/internal/users"
)

// SaveUser writes the profile, then upserts it into the cache.
func (s *Store) SaveUser(ctx context.Context, u users.User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.docs != nil {
		if err := docstore.SetAs(ctx, s.docs, docstore.Users, u.ID, u); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}

	s.mu.Lock()
	s.users = upsert(s.users, u, func(u users.User) string { return u.ID })
	s.mu.Unlock()
	return nil
}

// SaveOrganization writes the organization, then upserts it into the cache.
func (s *Store) SaveOrganization(ctx context.Context, o orgs.Organization) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.docs != nil {
		if err := docstore.SetAs(ctx, s.docs, docstore.Organizations, o.ID, o); err != nil {
			return fmt.Errorf("failed to save organization: %w", err)
		}
	}

	s.mu.Lock()
	s.orgs = upsert(s.orgs, o, func(o orgs.Organization) string { return o.ID })
	s.mu.Unlock()
	return nil
}

// SaveEvent writes the event, then upserts it into the cache.
func (s *Store) SaveEvent(ctx context.Context, e events.Event) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.docs != nil {
		if err := docstore.SetAs(ctx, s.docs, docstore.Events, e.ID, e); err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
	}

	s.mu.Lock()
	s.events = upsert(s.events, e, func(e events.Event) string { return e.ID })
	s.mu.Unlock()
	return nil
}

// SaveRoles replaces an event's role list. Roles missing from the new list
// are deleted, then every new role is written. The cache takes the new list
// even when a write fails part way; nothing is rolled back. Concurrent
// saves for the same event run one after the other.
func (s *Store) SaveRoles(ctx context.Context, roles []events.EventRole, eventID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	previous := slices.Clone(s.roles[eventID])
	s.mu.RUnlock()

	var err error
	if s.docs != nil {
		err = s.writeRoles(ctx, previous, roles, eventID)
	}

	s.mu.Lock()
	s.roles[eventID] = slices.Clone(roles)
	s.mu.Unlock()

	return err
}

func (s *Store) writeRoles(ctx context.Context, previous, roles []events.EventRole, eventID string) error {
	keep := make(map[string]bool, len(roles))
	for _, r := range roles {
		keep[r.ID] = true
	}

	path := docstore.RolesPath(eventID)
	for _, old := range previous {
		if keep[old.ID] {
			continue
		}
		log.Debug().Str("event_id", eventID).Str("role_id", old.ID).Msg("Deleting removed role")
		if err := s.docs.Delete(ctx, path, old.ID); err != nil {
			return fmt.Errorf("failed to delete role %s: %w", old.ID, err)
		}
	}

	for _, r := range roles {
		if err := docstore.SetAs(ctx, s.docs, path, r.ID, r); err != nil {
			return fmt.Errorf("failed to save role %s: %w", r.ID, err)
		}
	}
	return nil
}

// CreateProfile saves a fresh volunteer profile for a new login.
func (s *Store) CreateProfile(ctx context.Context, userID, email, displayName string) error {
	return s.SaveUser(ctx, users.NewProfile(userID, email, displayName, s.clock()))
}
