package rsvps

import (
	"context"
	"sort"
	"sync"
)

// MemoryService keeps RSVPs in process, keyed by event then user.
// Each call holds the lock for its whole read-modify-write.
type MemoryService struct {
	mu      sync.Mutex
	byEvent map[string]map[string]RSVP
	opts    options
}

var _ Service = (*MemoryService)(nil)

// NewMemoryService seeds the table from initial records. Records without an
// EventID are skipped since they cannot be keyed.
func NewMemoryService(initial []RSVP, opts ...Option) *MemoryService {
	s := &MemoryService{
		byEvent: make(map[string]map[string]RSVP),
		opts:    buildOptions(opts),
	}
	for _, r := range initial {
		if r.EventID == "" || r.UserID == "" {
			continue
		}
		s.put(r.EventID, r)
	}
	return s
}

func (s *MemoryService) Fetch(ctx context.Context, eventID, userID string) (*RSVP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(eventID, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byEvent[eventID][userID]
	if !ok {
		return nil, nil
	}
	r = withEventID(r, eventID)
	return &r, nil
}

func (s *MemoryService) FetchForUser(ctx context.Context, userID string) ([]RSVP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RSVP
	for eventID, perUser := range s.byEvent {
		if r, ok := perUser[userID]; ok {
			out = append(out, withEventID(r, eventID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (s *MemoryService) FetchForEvent(ctx context.Context, eventID string) ([]RSVP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perUser := s.byEvent[eventID]
	out := make([]RSVP, 0, len(perUser))
	for _, r := range perUser {
		out = append(out, withEventID(r, eventID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryService) Submit(ctx context.Context, eventID, userID, roleID string, consent ConsentSnapshot) (*RSVP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(eventID, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := submitted(s.lookup(eventID, userID), eventID, userID, roleID, consent, s.opts.now())
	s.put(eventID, r)
	return &r, nil
}

func (s *MemoryService) Cancel(ctx context.Context, eventID, userID string) (*RSVP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(eventID, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := cancelled(s.lookup(eventID, userID), eventID, userID, s.opts.now())
	s.put(eventID, r)
	return &r, nil
}

// lookup must be called with mu held.
func (s *MemoryService) lookup(eventID, userID string) *RSVP {
	r, ok := s.byEvent[eventID][userID]
	if !ok {
		return nil
	}
	return &r
}

// put must be called with mu held.
func (s *MemoryService) put(eventID string, r RSVP) {
	perUser, ok := s.byEvent[eventID]
	if !ok {
		perUser = make(map[string]RSVP)
		s.byEvent[eventID] = perUser
	}
	perUser[r.UserID] = r
}

func withEventID(r RSVP, eventID string) RSVP {
	if r.EventID == "" {
		r.EventID = eventID
	}
	return r
}
