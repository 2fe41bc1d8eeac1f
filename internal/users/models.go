package users

import (
	"math"
	"time"
)

// Role is a capability granted to an account.
type Role string

const (
	RoleVolunteer    Role = "volunteer"
	RoleOrganizer    Role = "organizer"
	RoleProgramAdmin Role = "programAdmin"
)

// Status is the account lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// Channel is the preferred contact channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Visibility holds the standing profile sharing preferences.
type Visibility struct {
	ShareEmail         bool `json:"shareEmail"`
	SharePhone         bool `json:"sharePhone"`
	SharePronouns      bool `json:"sharePronouns"`
	ShareAccessibility bool `json:"shareAccessibility"`
}

type Contact struct {
	Email            string  `json:"email,omitempty"`
	Phone            string  `json:"phone,omitempty"`
	PreferredChannel Channel `json:"preferredChannel"`
}

type TimeWindow struct {
	StartMinutes int `json:"startMinutes"`
	EndMinutes   int `json:"endMinutes"`
}

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

type DayAvailability struct {
	Weekday Weekday      `json:"weekday"`
	Windows []TimeWindow `json:"windows"`
}

type Availability struct {
	Timezone string            `json:"timezone"`
	Weekly   []DayAvailability `json:"weekly"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type VolunteerProfile struct {
	Interests          []string     `json:"interests"`
	Skills             []string     `json:"skills"`
	Availability       Availability `json:"availability"`
	AccessibilityNeeds []string     `json:"accessibilityNeeds,omitempty"`
	Location           *GeoPoint    `json:"location,omitempty"`
	Bio                string       `json:"bio,omitempty"`
	ExperienceNotes    string       `json:"experienceNotes,omitempty"`
}

type OrganizerProfile struct {
	OrgIDs      []string `json:"orgIds"`
	ContactRole string   `json:"contactRole,omitempty"`
	Verified    bool     `json:"verified"`
}

type ImpactSummary struct {
	TotalHours     float64    `json:"totalHours"`
	EventsAttended int        `json:"eventsAttended"`
	LastEventAt    *time.Time `json:"lastEventAt,omitempty"`
}

// User is a volunteer or organizer profile stored at users/{id}.
type User struct {
	ID               string            `json:"id"`
	DisplayName      string            `json:"displayName"`
	Pronouns         string            `json:"pronouns,omitempty"`
	PhotoURL         string            `json:"photoURL,omitempty"`
	Roles            []Role            `json:"roles"`
	Status           Status            `json:"status"`
	Visibility       Visibility        `json:"visibility"`
	Contact          Contact           `json:"contact"`
	VolunteerProfile *VolunteerProfile `json:"volunteerProfile,omitempty"`
	OrganizerProfile *OrganizerProfile `json:"organizerProfile,omitempty"`
	ImpactSummary    *ImpactSummary    `json:"impactSummary,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// HasRole reports whether the user holds role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DefaultVisibility is applied to new accounts.
func DefaultVisibility() Visibility {
	return Visibility{SharePronouns: true, ShareAccessibility: true}
}

// NewProfile is the profile created alongside a new login.
func NewProfile(id, email, displayName string, now time.Time) User {
	return User{
		ID:          id,
		DisplayName: displayName,
		Roles:       []Role{RoleVolunteer},
		Status:      StatusActive,
		Visibility:  DefaultVisibility(),
		Contact:     Contact{Email: email, PreferredChannel: ChannelEmail},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// JoinOrganization grants the organizer role and links orgID once.
func (u User) JoinOrganization(orgID string) User {
	if !u.HasRole(RoleOrganizer) {
		u.Roles = append(append([]Role(nil), u.Roles...), RoleOrganizer)
	}
	if u.OrganizerProfile == nil {
		u.OrganizerProfile = &OrganizerProfile{}
	} else {
		profile := *u.OrganizerProfile
		profile.OrgIDs = append([]string(nil), profile.OrgIDs...)
		u.OrganizerProfile = &profile
	}
	for _, id := range u.OrganizerProfile.OrgIDs {
		if id == orgID {
			return u
		}
	}
	u.OrganizerProfile.OrgIDs = append(u.OrganizerProfile.OrgIDs, orgID)
	return u
}

// RecordAttendance adds a completed shift to the impact summary.
func (u User) RecordAttendance(hours float64, at time.Time) User {
	summary := ImpactSummary{}
	if u.ImpactSummary != nil {
		summary = *u.ImpactSummary
	}
	summary.TotalHours = math.Round((summary.TotalHours+hours)*100) / 100
	summary.EventsAttended++
	if summary.LastEventAt == nil || at.After(*summary.LastEventAt) {
		summary.LastEventAt = &at
	}
	u.ImpactSummary = &summary
	return u
}
