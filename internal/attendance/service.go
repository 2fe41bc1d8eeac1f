package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/volunqueer/volunqueer/internal/docstore"
)

var (
	ErrAlreadyCheckedIn = errors.New("volunteer is already checked in")
	ErrNotCheckedIn     = errors.New("volunteer is not checked in")
)

// Service records organizer verified check-ins and check-outs.
type Service struct {
	store docstore.Store
	now   func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the attendance records of an event ordered by check-in time.
func (s *Service) List(ctx context.Context, eventID string) ([]Attendance, error) {
	list, err := docstore.FetchAllAs[Attendance](ctx, s.store, docstore.AttendancePath(eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].CheckedInAt, list[j].CheckedInAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return list, nil
}

// Get returns the record for a user on an event, or nil.
func (s *Service) Get(ctx context.Context, eventID, userID string) (*Attendance, error) {
	a, err := docstore.FetchOneAs[Attendance](ctx, s.store, docstore.AttendancePath(eventID), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attendance: %w", err)
	}
	return a, nil
}

// CheckIn opens a new attendance interval. A previous closed interval is
// replaced; an open one is rejected.
func (s *Service) CheckIn(ctx context.Context, eventID, userID, verifiedBy string) (*Attendance, error) {
	existing, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.IsOpen() {
		return existing, ErrAlreadyCheckedIn
	}

	now := s.now()
	a := Attendance{
		ID:          userID,
		UserID:      userID,
		CheckedInAt: &now,
		VerifiedBy:  verifiedBy,
	}
	if existing != nil {
		a.Notes = existing.Notes
	}

	if err := s.save(ctx, eventID, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckOut closes the open interval and records the hours served.
func (s *Service) CheckOut(ctx context.Context, eventID, userID, verifiedBy, notes string) (*Attendance, error) {
	existing, err := s.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil || !existing.IsOpen() {
		return nil, ErrNotCheckedIn
	}

	now := s.now()
	hours := HoursBetween(*existing.CheckedInAt, now)

	a := *existing
	a.ID = userID
	a.UserID = userID
	a.CheckedOutAt = &now
	a.Hours = &hours
	a.VerifiedBy = verifiedBy
	if n := strings.TrimSpace(notes); n != "" {
		a.Notes = n
	}

	if err := s.save(ctx, eventID, a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) save(ctx context.Context, eventID string, a Attendance) error {
	if err := docstore.SetAs(ctx, s.store, docstore.AttendancePath(eventID), a.UserID, a); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}
