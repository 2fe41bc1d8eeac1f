package rsvps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

const userIDField = "userId"

// StoreService persists RSVPs at events/{eventId}/rsvps/{userId}.
type StoreService struct {
	store docstore.Store
	opts  options
}

var _ Service = (*StoreService)(nil)

func NewStoreService(store docstore.Store, opts ...Option) *StoreService {
	return &StoreService{store: store, opts: buildOptions(opts)}
}

func (s *StoreService) Fetch(ctx context.Context, eventID, userID string) (*RSVP, error) {
	if err := validateKey(eventID, userID); err != nil {
		return nil, err
	}

	r, err := docstore.FetchOneAs[RSVP](ctx, s.store, docstore.RSVPsPath(eventID), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rsvp: %w", err)
	}
	if r != nil {
		*r = withEventID(*r, eventID)
	}
	return r, nil
}

// FetchForUser uses a collection group query. Older documents written
// without eventId get it from their parent path.
func (s *StoreService) FetchForUser(ctx context.Context, userID string) ([]RSVP, error) {
	docs, err := s.store.QueryGroup(ctx, docstore.RSVPs, userIDField, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rsvps for user: %w", err)
	}

	out := make([]RSVP, 0, len(docs))
	for _, doc := range docs {
		var r RSVP
		if err := docstore.Decode(doc, &r); err != nil {
			log.Debug().Err(err).Str("path", doc.Path).Msg("Skipping undecodable rsvp")
			continue
		}
		out = append(out, withEventID(r, doc.ParentID()))
	}
	return out, nil
}

func (s *StoreService) FetchForEvent(ctx context.Context, eventID string) ([]RSVP, error) {
	list, err := docstore.FetchAllAs[RSVP](ctx, s.store, docstore.RSVPsPath(eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rsvps for event: %w", err)
	}
	for i := range list {
		list[i] = withEventID(list[i], eventID)
	}
	return list, nil
}

func (s *StoreService) Submit(ctx context.Context, eventID, userID, roleID string, consent ConsentSnapshot) (*RSVP, error) {
	existing, err := s.Fetch(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	r := submitted(existing, eventID, userID, roleID, consent, s.opts.now())
	if err := docstore.SetAs(ctx, s.store, docstore.RSVPsPath(eventID), userID, r); err != nil {
		return nil, fmt.Errorf("failed to save rsvp: %w", err)
	}
	return &r, nil
}

func (s *StoreService) Cancel(ctx context.Context, eventID, userID string) (*RSVP, error) {
	existing, err := s.Fetch(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	r := cancelled(existing, eventID, userID, s.opts.now())
	if err := docstore.SetAs(ctx, s.store, docstore.RSVPsPath(eventID), userID, r); err != nil {
		return nil, fmt.Errorf("failed to save rsvp: %w", err)
	}
	return &r, nil
}
