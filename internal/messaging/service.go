package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/volunqueer/volunqueer/internal/docstore"
)

const maxBodyLength = 4000

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrNotParticipant = errors.New("user is not a participant of this thread")
	ErrEmptyBody      = errors.New("message body is required")
	ErrBodyTooLong    = errors.New("message body is too long")
)

// Service reads threads and posts messages.
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

// ThreadsFor lists the threads userID participates in, most recent activity first.
func (s *Service) ThreadsFor(ctx context.Context, userID string) ([]Thread, error) {
	all, err := docstore.FetchAllAs[Thread](ctx, s.store, docstore.MessageThreads)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch threads: %w", err)
	}

	out := make([]Thread, 0, len(all))
	for _, t := range all {
		if t.HasParticipant(userID) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return activity(out[i]).After(activity(out[j]))
	})
	return out, nil
}

// Thread returns a thread only when userID participates in it.
func (s *Service) Thread(ctx context.Context, threadID, userID string) (*Thread, error) {
	t, err := docstore.FetchOneAs[Thread](ctx, s.store, docstore.MessageThreads, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}
	if t == nil {
		return nil, ErrThreadNotFound
	}
	if !t.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return t, nil
}

// Messages lists a thread's messages oldest first.
func (s *Service) Messages(ctx context.Context, threadID, userID string) ([]Message, error) {
	if _, err := s.Thread(ctx, threadID, userID); err != nil {
		return nil, err
	}

	list, err := docstore.FetchAllAs[Message](ctx, s.store, docstore.MessagesPath(threadID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	for i := range list {
		if list[i].ThreadID == "" {
			list[i].ThreadID = threadID
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].SentAt.Before(list[j].SentAt)
	})
	return list, nil
}

// Send posts a message and bumps the thread's lastMessageAt.
func (s *Service) Send(ctx context.Context, threadID, senderUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len(body) > maxBodyLength {
		return nil, ErrBodyTooLong
	}

	thread, err := s.Thread(ctx, threadID, senderUID)
	if err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	now := s.now()
	msg := Message{
		ID:        "msg-" + id,
		ThreadID:  threadID,
		SenderUID: senderUID,
		Body:      body,
		SentAt:    now,
	}
	if err := docstore.SetAs(ctx, s.store, docstore.MessagesPath(threadID), msg.ID, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	thread.LastMessageAt = &now
	if err := docstore.SetAs(ctx, s.store, docstore.MessageThreads, thread.ID, thread); err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}
	return &msg, nil
}

func activity(t Thread) time.Time {
	if t.LastMessageAt != nil {
		return *t.LastMessageAt
	}
	return t.CreatedAt
}
