package events

import (
	"time"
	_ "time/tzdata"

	"github.com/volunqueer/volunqueer/internal/orgs"
)

// Status is the publication state of an event.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCancelled Status = "cancelled"
	StatusArchived  Status = "archived"
)

type Accessibility struct {
	Notes string   `json:"notes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Event is stored at events/{id}.
type Event struct {
	ID            string         `json:"id"`
	OrgID         string         `json:"orgId"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	StartsAt      time.Time      `json:"startsAt"`
	EndsAt        time.Time      `json:"endsAt"`
	Timezone      string         `json:"timezone"`
	Location      orgs.Location  `json:"location"`
	Accessibility *Accessibility `json:"accessibility,omitempty"`
	Tags          []string       `json:"tags"`
	RSVPCap       *int           `json:"rsvpCap,omitempty"`
	Status        Status         `json:"status"`
	Contact       *orgs.Contact  `json:"contact,omitempty"`
	CreatedBy     string         `json:"createdBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Zone returns the event's IANA zone, falling back to UTC.
func (e Event) Zone() *time.Location {
	if e.Timezone != "" {
		if loc, err := time.LoadLocation(e.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// EventRole is stored at events/{eventId}/roles/{id}.
// SlotsFilled is maintained by organizer edits only.
type EventRole struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	SlotsTotal      int      `json:"slotsTotal"`
	SlotsFilled     int      `json:"slotsFilled"`
	SkillsRequired  []string `json:"skillsRequired"`
	CheckInRequired bool     `json:"checkInRequired"`
	MinAge          *int     `json:"minAge,omitempty"`
}
