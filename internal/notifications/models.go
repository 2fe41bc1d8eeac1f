package notifications

import "time"

type Type string

const (
	TypeEventReminder Type = "eventReminder"
	TypeRSVPUpdate    Type = "rsvpUpdate"
	TypeOrgMessage    Type = "orgMessage"
	TypeSystem        Type = "system"
)

// Notification is stored at users/{userId}/notifications/{id}.
type Notification struct {
	ID        string     `json:"id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	DeepLink  string     `json:"deepLink,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

// EventDeepLink is the in-app link to an event.
func EventDeepLink(eventID string) string {
	return "volunqueer://events/" + eventID
}
