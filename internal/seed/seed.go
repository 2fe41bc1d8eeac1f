package seed

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

// Write stores every record of b. Parents are written before their
// subcollections; a failure stops the write and leaves earlier documents.
func Write(ctx context.Context, store docstore.Store, b Bundle) error {
	for _, u := range b.Users {
		if err := docstore.SetAs(ctx, store, docstore.Users, u.ID, u); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
		}
	}
	for _, o := range b.Organizations {
		if err := docstore.SetAs(ctx, store, docstore.Organizations, o.ID, o); err != nil {
			return fmt.Errorf("failed to seed organization %s: %w", o.ID, err)
		}
	}
	for _, orgID := range sortedKeys(b.MembersByOrg) {
		for _, m := range b.MembersByOrg[orgID] {
			if err := docstore.SetAs(ctx, store, docstore.MembersPath(orgID), m.ID, m); err != nil {
				return fmt.Errorf("failed to seed member %s: %w", m.ID, err)
			}
		}
	}
	for _, e := range b.Events {
		if err := docstore.SetAs(ctx, store, docstore.Events, e.ID, e); err != nil {
			return fmt.Errorf("failed to seed event %s: %w", e.ID, err)
		}
	}
	for _, eventID := range sortedKeys(b.RolesByEvent) {
		for _, r := range b.RolesByEvent[eventID] {
			if err := docstore.SetAs(ctx, store, docstore.RolesPath(eventID), r.ID, r); err != nil {
				return fmt.Errorf("failed to seed role %s: %w", r.ID, err)
			}
		}
	}
	for _, eventID := range sortedKeys(b.RSVPsByEvent) {
		for _, r := range b.RSVPsByEvent[eventID] {
			r.EventID = eventID
			if err := docstore.SetAs(ctx, store, docstore.RSVPsPath(eventID), r.UserID, r); err != nil {
				return fmt.Errorf("failed to seed rsvp %s: %w", r.UserID, err)
			}
		}
	}
	for _, eventID := range sortedKeys(b.AttendanceByEvent) {
		for _, a := range b.AttendanceByEvent[eventID] {
			if err := docstore.SetAs(ctx, store, docstore.AttendancePath(eventID), a.ID, a); err != nil {
				return fmt.Errorf("failed to seed attendance %s: %w", a.ID, err)
			}
		}
	}
	for _, t := range b.Threads {
		if err := docstore.SetAs(ctx, store, docstore.MessageThreads, t.ID, t); err != nil {
			return fmt.Errorf("failed to seed thread %s: %w", t.ID, err)
		}
	}
	for _, threadID := range sortedKeys(b.MessagesByThread) {
		for _, m := range b.MessagesByThread[threadID] {
			if err := docstore.SetAs(ctx, store, docstore.MessagesPath(threadID), m.ID, m); err != nil {
				return fmt.Errorf("failed to seed message %s: %w", m.ID, err)
			}
		}
	}
	for _, userID := range sortedKeys(b.NotificationsByUser) {
		for _, n := range b.NotificationsByUser[userID] {
			if err := docstore.SetAs(ctx, store, docstore.NotificationsPath(userID), n.ID, n); err != nil {
				return fmt.Errorf("failed to seed notification %s: %w", n.ID, err)
			}
		}
	}
	return nil
}

// IfEmpty writes b only when the events collection is empty. It reports
// whether anything was written.
func IfEmpty(ctx context.Context, store docstore.Store, b Bundle) (bool, error) {
	empty, err := store.IsCollectionEmpty(ctx, docstore.Events)
	if err != nil {
		return false, fmt.Errorf("failed to check events collection: %w", err)
	}
	if !empty {
		log.Debug().Msg("Events collection not empty, skipping seed")
		return false, nil
	}

	if err := Write(ctx, store, b); err != nil {
		return false, err
	}
	log.Info().Int("users", len(b.Users)).Int("events", len(b.Events)).Msg("Seeded mock data")
	return true, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
