package rsvps

import "time"

// Status is the lifecycle state of an RSVP. Waitlisted and no-show are
// declared for organizers but never produced by Submit or Cancel.
type Status string

const (
	StatusRSVP       Status = "rsvp"
	StatusWaitlisted Status = "waitlisted"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "noShow"
)

// IsLive reports whether the RSVP counts against capacity.
func (s Status) IsLive() bool {
	return s != StatusCancelled
}

// ConsentSnapshot captures what the volunteer agreed to share with
// organizers at submission time.
type ConsentSnapshot struct {
	ShareEmail         bool `json:"shareEmail"`
	SharePhone         bool `json:"sharePhone"`
	SharePronouns      bool `json:"sharePronouns"`
	ShareAccessibility bool `json:"shareAccessibility"`
}

// DefaultConsent is used when a cancellation has no prior RSVP to copy from.
func DefaultConsent() ConsentSnapshot {
	return ConsentSnapshot{SharePronouns: true, ShareAccessibility: true}
}

// RSVP is stored at events/{eventId}/rsvps/{userId}. ID always equals UserID.
type RSVP struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	EventID   string            `json:"eventId,omitempty"`
	RoleID    string            `json:"roleId,omitempty"`
	Status    Status            `json:"status"`
	Consent   ConsentSnapshot   `json:"consent"`
	Answers   map[string]string `json:"answers,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// submitted builds the record written by Submit.
func submitted(existing *RSVP, eventID, userID, roleID string, consent ConsentSnapshot, now time.Time) RSVP {
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}
	return RSVP{
		ID:        userID,
		UserID:    userID,
		EventID:   eventID,
		RoleID:    roleID,
		Status:    StatusRSVP,
		Consent:   consent,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
}

// cancelled builds the record written by Cancel.
func cancelled(existing *RSVP, eventID, userID string, now time.Time) RSVP {
	r := RSVP{
		ID:        userID,
		UserID:    userID,
		EventID:   eventID,
		Status:    StatusCancelled,
		Consent:   DefaultConsent(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		r.RoleID = existing.RoleID
		r.Consent = existing.Consent
		r.Answers = existing.Answers
		r.CreatedAt = existing.CreatedAt
	}
	return r
}
