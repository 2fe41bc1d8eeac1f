package appstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/orgs"
	"github.com/volunqueer/volunqueer/internal/seed"
	"github.com/volunqueer/volunqueer/internal/users"
	"golang.org/x/sync/errgroup"
)

// Store caches users, organizations, events and roles in memory and
// writes changes through to the document store. With no document store
// it serves a mock bundle and keeps every write in memory.
type Store struct {
	docs  docstore.Store
	mock  func() seed.Bundle
	clock func() time.Time

	// writeMu serializes saves and loads so a role diff or a cache swap
	// never works from a snapshot another writer is replacing. mu only
	// guards the fields below for readers.
	writeMu sync.Mutex

	mu     sync.RWMutex
	state  LoadState
	users  []users.User
	orgs   []orgs.Organization
	events []events.Event
	roles  map[string][]events.EventRole
}

// New returns a store-backed cache. Call Load before serving reads.
func New(docs docstore.Store) *Store {
	return &Store{
		docs:  docs,
		clock: func() time.Time { return time.Now().UTC() },
		state: LoadState{Phase: PhaseIdle},
		roles: map[string][]events.EventRole{},
	}
}

// NewMock returns a cache over bundle. With preload set it is loaded
// immediately instead of waiting for Load.
func NewMock(bundle func() seed.Bundle, preload bool) *Store {
	s := &Store{
		mock:  bundle,
		clock: func() time.Time { return time.Now().UTC() },
		state: LoadState{Phase: PhaseIdle},
		roles: map[string][]events.EventRole{},
	}
	if preload {
		s.applyMock()
		s.state = LoadState{Phase: PhaseLoaded}
	}
	return s
}

// IsMock reports whether writes stay in memory.
func (s *Store) IsMock() bool {
	return s.docs == nil
}

func (s *Store) State() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) setState(state LoadState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	log.Debug().Str("phase", string(state.Phase)).Str("message", state.Message).Msg("Load state changed")
}

// Load fetches users, organizations and events in parallel, then each
// event's roles one event at a time. A failure moves the state to failed
// with the error message and leaves the previous cache in place.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.setState(LoadState{Phase: PhaseLoading})

	if s.docs == nil {
		s.mu.Lock()
		s.applyMock()
		s.state = LoadState{Phase: PhaseLoaded}
		s.mu.Unlock()
		return nil
	}

	var (
		loadedUsers  []users.User
		loadedOrgs   []orgs.Organization
		loadedEvents []events.Event
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		loadedUsers, err = docstore.FetchAllAs[users.User](gctx, s.docs, docstore.Users)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		loadedOrgs, err = docstore.FetchAllAs[orgs.Organization](gctx, s.docs, docstore.Organizations)
		if err != nil {
			return fmt.Errorf("failed to load organizations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		loadedEvents, err = docstore.FetchAllAs[events.Event](gctx, s.docs, docstore.Events)
		if err != nil {
			return fmt.Errorf("failed to load events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.setState(failed(err))
		return err
	}

	loadedRoles := make(map[string][]events.EventRole, len(loadedEvents))
	for _, e := range loadedEvents {
		roles, err := docstore.FetchAllAs[events.EventRole](ctx, s.docs, docstore.RolesPath(e.ID))
		if err != nil {
			err = fmt.Errorf("failed to load roles for %s: %w", e.ID, err)
			s.setState(failed(err))
			return err
		}
		loadedRoles[e.ID] = roles
	}

	s.mu.Lock()
	s.users = loadedUsers
	s.orgs = loadedOrgs
	s.events = loadedEvents
	s.roles = loadedRoles
	s.state = LoadState{Phase: PhaseLoaded}
	s.mu.Unlock()

	log.Info().
		Int("users", len(loadedUsers)).
		Int("organizations", len(loadedOrgs)).
		Int("events", len(loadedEvents)).
		Msg("Application store loaded")
	return nil
}

// SeedMockData writes the mock bundle when the events collection is empty
// and then reloads. It does nothing for a mock store.
func (s *Store) SeedMockData(ctx context.Context, bundle seed.Bundle) error {
	if s.docs == nil {
		return nil
	}

	s.setState(LoadState{Phase: PhaseLoading})
	if _, err := seed.IfEmpty(ctx, s.docs, bundle); err != nil {
		s.setState(failed(err))
		return err
	}
	return s.Load(ctx)
}

// applyMock resets the cache to the bundle. Records created during the
// session that the bundle does not know are kept, since their supporting
// documents (credentials, memberships) outlive a reload. It must run with
// mu held or before the store is shared.
func (s *Store) applyMock() {
	b := s.mock()
	s.users = keepMissing(b.Users, s.users, func(u users.User) string { return u.ID })
	s.orgs = keepMissing(b.Organizations, s.orgs, func(o orgs.Organization) string { return o.ID })
	s.events = keepMissing(b.Events, s.events, func(e events.Event) string { return e.ID })

	roles := make(map[string][]events.EventRole, len(b.RolesByEvent))
	for eventID, list := range s.roles {
		roles[eventID] = list
	}
	for eventID, list := range b.RolesByEvent {
		roles[eventID] = slices.Clone(list)
	}
	s.roles = roles
}

// keepMissing returns fresh followed by the entries of current whose id
// fresh lacks.
func keepMissing[T any](fresh, current []T, id func(T) string) []T {
	out := slices.Clone(fresh)
	known := make(map[string]bool, len(fresh))
	for _, v := range fresh {
		known[id(v)] = true
	}
	for _, v := range current {
		if !known[id(v)] {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Users() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

func (s *Store) User(id string) (users.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.users, func(u users.User) bool { return u.ID == id })
}

func (s *Store) Organizations() []orgs.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orgs)
}

func (s *Store) Organization(id string) (orgs.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.orgs, func(o orgs.Organization) bool { return o.ID == id })
}

func (s *Store) Events() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

func (s *Store) Event(id string) (events.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return find(s.events, func(e events.Event) bool { return e.ID == id })
}

// Roles returns the cached roles of an event; unknown events have none.
func (s *Store) Roles(eventID string) []events.EventRole {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roles[eventID])
}

func find[T any](list []T, match func(T) bool) (T, bool) {
	for _, v := range list {
		if match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// upsert replaces the element with the same id or appends it.
func upsert[T any](list []T, v T, id func(T) string) []T {
	key := id(v)
	for i := range list {
		if id(list[i]) == key {
			out := slices.Clone(list)
			out[i] = v
			return out
		}
	}
	return append(slices.Clone(list), v)
}
