package rsvps

import (
	"context"

	"github.com/volunqueer/volunqueer/internal/events"
)

// Notifier is told about every successful submit or cancel. Implementations
// must not fail the RSVP call, so the method has no error.
type Notifier interface {
	RSVPChanged(ctx context.Context, event events.Event, r RSVP)
}

// NopNotifier ignores changes.
type NopNotifier struct{}

func (NopNotifier) RSVPChanged(context.Context, events.Event, RSVP) {}
