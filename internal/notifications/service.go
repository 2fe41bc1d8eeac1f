package notifications

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

var ErrNotFound = errors.New("notification not found")

// Service manages a user's notification inbox.
type Service struct {
	store docstore.Store
	now   func() time.Time
	newID func() (string, error)
}

func NewService(store docstore.Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() (string, error) { return gonanoid.New() },
	}
}

// List returns the user's notifications newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	list, err := docstore.FetchAllAs[Notification](ctx, s.store, docstore.NotificationsPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// UnreadCount counts notifications without ReadAt.
func UnreadCount(list []Notification) int {
	n := 0
	for _, item := range list {
		if item.ReadAt == nil {
			n++
		}
	}
	return n
}

// Create stores n for userID, assigning an id and timestamp when missing.
func (s *Service) Create(ctx context.Context, userID string, n Notification) (*Notification, error) {
	if n.ID == "" {
		id, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate notification id: %w", err)
		}
		n.ID = "notif-" + id
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if err := docstore.SetAs(ctx, s.store, docstore.NotificationsPath(userID), n.ID, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	return &n, nil
}

// CreateOnce stores n unless a notification with the same id exists.
func (s *Service) CreateOnce(ctx context.Context, userID string, n Notification) (bool, error) {
	_, found, err := s.store.FetchOne(ctx, docstore.NotificationsPath(userID), n.ID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch notification: %w", err)
	}
	if found {
		return false, nil
	}
	if _, err := s.Create(ctx, userID, n); err != nil {
		return false, err
	}
	return true, nil
}

// MarkRead sets ReadAt. Marking an already read notification keeps the first time.
func (s *Service) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := docstore.FetchOneAs[Notification](ctx, s.store, docstore.NotificationsPath(userID), id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	if n == nil {
		return nil, ErrNotFound
	}
	if n.ReadAt != nil {
		return n, nil
	}

	now := s.now()
	n.ReadAt = &now
	if err := docstore.SetAs(ctx, s.store, docstore.NotificationsPath(userID), n.ID, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	return n, nil
}
