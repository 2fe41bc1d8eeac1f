package rsvps

import (
	"context"
	"errors"
	"fmt"

	"github.com/volunqueer/volunqueer/internal/events"
)

var (
	// ErrEventFull is returned when an event without roles has reached its RSVP cap.
	ErrEventFull = errors.New("event is at capacity")

	// ErrNoOpenRole is returned when every role of an event is full.
	ErrNoOpenRole = errors.New("all roles are full")

	// ErrRoleFull is returned when the selected role is full.
	ErrRoleFull = errors.New("selected role is full")

	// ErrUnknownRole is returned when the selected role does not belong to the event.
	ErrUnknownRole = errors.New("role does not belong to this event")
)

// HasOpenRole reports whether any role still has a free slot.
func HasOpenRole(roles []events.EventRole) bool {
	for _, role := range roles {
		if role.SlotsFilled < role.SlotsTotal {
			return true
		}
	}
	return false
}

// IsRoleFull reports whether the role has no free slot.
func IsRoleFull(role events.EventRole) bool {
	return role.SlotsFilled >= role.SlotsTotal
}

// IsEventAtCapacity reports whether a cap is set and liveCount has reached it.
func IsEventAtCapacity(rsvpCap *int, liveCount int) bool {
	return rsvpCap != nil && liveCount >= *rsvpCap
}

// LiveCount counts RSVPs that are not cancelled.
func LiveCount(list []RSVP) int {
	n := 0
	for _, r := range list {
		if r.Status.IsLive() {
			n++
		}
	}
	return n
}

// CheckEligibility decides whether a submission may go ahead. Events with
// roles are judged on role slots only; events without roles on the live
// RSVP count against the cap. The result is advisory: nothing stops two
// concurrent callers from both passing.
func CheckEligibility(ctx context.Context, svc Service, event events.Event, roles []events.EventRole, roleID string) error {
	if len(roles) > 0 {
		if !HasOpenRole(roles) {
			return ErrNoOpenRole
		}
		if roleID == "" {
			return nil
		}
		for _, role := range roles {
			if role.ID == roleID {
				if IsRoleFull(role) {
					return ErrRoleFull
				}
				return nil
			}
		}
		return ErrUnknownRole
	}
	if roleID != "" {
		return ErrUnknownRole
	}

	if event.RSVPCap == nil {
		return nil
	}
	list, err := svc.FetchForEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to count rsvps: %w", err)
	}
	if IsEventAtCapacity(event.RSVPCap, LiveCount(list)) {
		return ErrEventFull
	}
	return nil
}

// Availability summarizes remaining space for display.
type Availability struct {
	TotalSlots  int    `json:"totalSlots"`
	FilledSlots int    `json:"filledSlots"`
	SpotsLeft   int    `json:"spotsLeft"`
	Full        bool   `json:"full"`
	Label       string `json:"label"`
}

// Summarize computes an availability summary from role slots. Full applies
// the event cap as a bound on the slot total. Events without role slots
// fall back to the cap for the label and are never reported full here.
func Summarize(event events.Event, roles []events.EventRole) Availability {
	total, filled := 0, 0
	for _, role := range roles {
		total += role.SlotsTotal
		filled += role.SlotsFilled
	}

	if total == 0 {
		if event.RSVPCap != nil {
			return Availability{Label: fmt.Sprintf("%d spots", *event.RSVPCap)}
		}
		return Availability{Label: "Open"}
	}

	bound := total
	if event.RSVPCap != nil && *event.RSVPCap > 0 {
		bound = min(total, *event.RSVPCap)
	}
	left := total - filled

	return Availability{
		TotalSlots:  total,
		FilledSlots: filled,
		SpotsLeft:   max(0, left),
		Full:        filled >= bound,
		Label:       fmt.Sprintf("%d of %d spots left", max(0, left), total),
	}
}
