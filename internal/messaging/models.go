package messaging

import (
	"slices"
	"time"
)

// Thread is stored at messageThreads/{id}.
type Thread struct {
	ID              string     `json:"id"`
	EventID         string     `json:"eventId,omitempty"`
	OrgID           string     `json:"orgId,omitempty"`
	ParticipantUIDs []string   `json:"participantUids"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastMessageAt   *time.Time `json:"lastMessageAt,omitempty"`
}

// HasParticipant reports whether userID belongs to the thread.
func (t Thread) HasParticipant(userID string) bool {
	return slices.Contains(t.ParticipantUIDs, userID)
}

// Message is stored at messageThreads/{threadId}/messages/{id}.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	SenderUID string    `json:"senderUid"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}
