package rsvps

import (
	"context"
	"errors"
	"time"
)

// ErrMissingKey is returned when an event or user id is empty.
var ErrMissingKey = errors.New("event id and user id are required")

// Service reads and mutates individual RSVPs. One RSVP exists per
// (event, user); submit and cancel overwrite it in place.
type Service interface {
	// Fetch returns the RSVP for the pair, or nil if none was ever submitted.
	Fetch(ctx context.Context, eventID, userID string) (*RSVP, error)

	// FetchForUser returns the user's RSVPs across all events with EventID set.
	FetchForUser(ctx context.Context, userID string) ([]RSVP, error)

	// FetchForEvent returns every RSVP under one event with EventID set.
	FetchForEvent(ctx context.Context, eventID string) ([]RSVP, error)

	// Submit upserts a live RSVP, keeping the original CreatedAt.
	Submit(ctx context.Context, eventID, userID, roleID string, consent ConsentSnapshot) (*RSVP, error)

	// Cancel marks the RSVP cancelled. Without a prior RSVP it writes a
	// cancelled record with default consent.
	Cancel(ctx context.Context, eventID, userID string) (*RSVP, error)
}

// Option configures a Service implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validateKey(eventID, userID string) error {
	if eventID == "" || userID == "" {
		return ErrMissingKey
	}
	return nil
}
