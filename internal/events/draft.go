package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volunqueer/volunqueer/internal/orgs"
)

const (
	defaultRSVPCap   = 20
	defaultRoleTitle = "Volunteer"
	defaultRoleSlots = 6
	defaultMinAge    = 18
	fallbackTimezone = "UTC"
)

// ValidationError carries the first problem found in a draft.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Draft is the editable form of an event and its roles. Free text list
// fields (tags, accessibility tags) are comma or newline separated.
type Draft struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Timezone    string    `json:"timezone"`

	LocationName       string `json:"locationName"`
	LocationAddress    string `json:"locationAddress"`
	LocationCity       string `json:"locationCity"`
	LocationRegion     string `json:"locationRegion"`
	LocationPostalCode string `json:"locationPostalCode"`
	LocationCountry    string `json:"locationCountry"`

	AccessibilityNotes string `json:"accessibilityNotes"`
	AccessibilityTags  string `json:"accessibilityTags"`
	Tags               string `json:"tags"`

	RSVPCapEnabled bool `json:"rsvpCapEnabled"`
	RSVPCap        int  `json:"rsvpCap"`

	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`

	Roles  []RoleDraft `json:"roles"`
	Status Status      `json:"status"`
}

// RoleDraft is the editable form of an EventRole.
type RoleDraft struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	SlotsTotal      int    `json:"slotsTotal"`
	SlotsFilled     int    `json:"slotsFilled"`
	Skills          string `json:"skills"`
	CheckInRequired bool   `json:"checkInRequired"`
	MinAgeEnabled   bool   `json:"minAgeEnabled"`
	MinAge          int    `json:"minAge"`
}

// NewDraft returns a one hour published draft starting at now with one default role.
func NewDraft(now time.Time) Draft {
	return Draft{
		StartsAt: now,
		EndsAt:   now.Add(time.Hour),
		Timezone: fallbackTimezone,
		RSVPCap:  defaultRSVPCap,
		Roles:    []RoleDraft{NewRoleDraft()},
		Status:   StatusPublished,
	}
}

// NewRoleDraft returns the default role draft.
func NewRoleDraft() RoleDraft {
	return RoleDraft{
		ID:         "role-" + uuid.NewString(),
		Title:      defaultRoleTitle,
		SlotsTotal: defaultRoleSlots,
		MinAge:     defaultMinAge,
	}
}

// DraftFromEvent loads an existing event and its roles for editing.
func DraftFromEvent(event Event, roles []EventRole) Draft {
	d := Draft{
		Title:              event.Title,
		Description:        event.Description,
		StartsAt:           event.StartsAt,
		EndsAt:             event.EndsAt,
		Timezone:           event.Timezone,
		LocationName:       event.Location.Name,
		LocationAddress:    event.Location.Address,
		LocationCity:       event.Location.City,
		LocationRegion:     event.Location.Region,
		LocationPostalCode: event.Location.PostalCode,
		LocationCountry:    event.Location.Country,
		Tags:               strings.Join(event.Tags, ", "),
		RSVPCap:            defaultRSVPCap,
		Status:             event.Status,
	}
	if event.Accessibility != nil {
		d.AccessibilityNotes = event.Accessibility.Notes
		d.AccessibilityTags = strings.Join(event.Accessibility.Tags, ", ")
	}
	if event.RSVPCap != nil {
		d.RSVPCapEnabled = true
		d.RSVPCap = *event.RSVPCap
	}
	if event.Contact != nil {
		d.ContactName = event.Contact.Name
		d.ContactEmail = event.Contact.Email
		d.ContactPhone = event.Contact.Phone
	}

	if len(roles) == 0 {
		d.Roles = []RoleDraft{NewRoleDraft()}
	} else {
		for _, role := range roles {
			d.Roles = append(d.Roles, RoleDraftFromRole(role))
		}
	}
	return d
}

// RoleDraftFromRole loads an existing role for editing.
func RoleDraftFromRole(role EventRole) RoleDraft {
	d := RoleDraft{
		ID:              role.ID,
		Title:           role.Title,
		Description:     role.Description,
		SlotsTotal:      role.SlotsTotal,
		SlotsFilled:     role.SlotsFilled,
		Skills:          strings.Join(role.SkillsRequired, ", "),
		CheckInRequired: role.CheckInRequired,
		MinAge:          defaultMinAge,
	}
	if role.MinAge != nil {
		d.MinAgeEnabled = true
		d.MinAge = *role.MinAge
	}
	return d
}

// Validate returns the first problem with the draft, or nil.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Message: "Add an event title."}
	}
	if !d.StartsAt.Before(d.EndsAt) {
		return &ValidationError{Message: "End time must be after the start time."}
	}
	if d.location().IsEmpty() {
		return &ValidationError{Message: "Add a location for the event."}
	}
	if d.RSVPCapEnabled && d.RSVPCap < 1 {
		return &ValidationError{Message: "RSVP cap must be at least 1."}
	}
	if len(d.Roles) == 0 {
		return &ValidationError{Message: "Add at least one role."}
	}
	for _, role := range d.Roles {
		if err := role.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate returns the first problem with the role draft, or nil.
func (r RoleDraft) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Message: "Add a role title."}
	}
	if minSlots := max(1, r.SlotsFilled); r.SlotsTotal < minSlots {
		return &ValidationError{Message: fmt.Sprintf("Slots must be at least %d.", minSlots)}
	}
	if r.MinAgeEnabled && r.MinAge < 1 {
		return &ValidationError{Message: "Minimum age must be at least 1."}
	}
	return nil
}

// BuildOptions identify the record a draft is saved over. Zero values
// create a new event.
type BuildOptions struct {
	EventID   string
	CreatedAt time.Time
	CreatedBy string
}

// Build turns a validated draft into an event and its roles.
func (d Draft) Build(userID, orgID string, opts BuildOptions, now time.Time) (Event, []EventRole) {
	eventID := opts.EventID
	if eventID == "" {
		eventID = "event-" + uuid.NewString()
	}
	createdAt := opts.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	createdBy := opts.CreatedBy
	if createdBy == "" {
		createdBy = userID
	}
	timezone := strings.TrimSpace(d.Timezone)
	if timezone == "" {
		timezone = fallbackTimezone
	}
	status := d.Status
	if status == "" {
		status = StatusPublished
	}

	event := Event{
		ID:            eventID,
		OrgID:         orgID,
		Title:         strings.TrimSpace(d.Title),
		Description:   strings.TrimSpace(d.Description),
		StartsAt:      d.StartsAt,
		EndsAt:        d.EndsAt,
		Timezone:      timezone,
		Location:      d.location(),
		Accessibility: d.accessibility(),
		Tags:          ParseList(d.Tags),
		Status:        status,
		Contact:       d.contact(),
		CreatedBy:     createdBy,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	}
	if d.RSVPCapEnabled {
		rsvpCap := max(1, d.RSVPCap)
		event.RSVPCap = &rsvpCap
	}

	roles := make([]EventRole, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, role.Build())
	}
	return event, roles
}

// Build turns a validated role draft into an EventRole.
func (r RoleDraft) Build() EventRole {
	id := r.ID
	if id == "" {
		id = "role-" + uuid.NewString()
	}
	role := EventRole{
		ID:              id,
		Title:           strings.TrimSpace(r.Title),
		Description:     strings.TrimSpace(r.Description),
		SlotsTotal:      max(r.SlotsTotal, max(1, r.SlotsFilled)),
		SlotsFilled:     r.SlotsFilled,
		SkillsRequired:  ParseList(r.Skills),
		CheckInRequired: r.CheckInRequired,
	}
	if r.MinAgeEnabled {
		minAge := max(1, r.MinAge)
		role.MinAge = &minAge
	}
	return role
}

func (d Draft) location() orgs.Location {
	return orgs.Location{
		Name:       strings.TrimSpace(d.LocationName),
		Address:    strings.TrimSpace(d.LocationAddress),
		City:       strings.TrimSpace(d.LocationCity),
		Region:     strings.TrimSpace(d.LocationRegion),
		PostalCode: strings.TrimSpace(d.LocationPostalCode),
		Country:    strings.TrimSpace(d.LocationCountry),
	}
}

func (d Draft) accessibility() *Accessibility {
	notes := strings.TrimSpace(d.AccessibilityNotes)
	tags := ParseList(d.AccessibilityTags)
	if notes == "" && len(tags) == 0 {
		return nil
	}
	return &Accessibility{Notes: notes, Tags: tags}
}

func (d Draft) contact() *orgs.Contact {
	c := orgs.Contact{
		Name:  strings.TrimSpace(d.ContactName),
		Email: strings.TrimSpace(d.ContactEmail),
		Phone: strings.TrimSpace(d.ContactPhone),
	}
	if c.Name == "" && c.Email == "" && c.Phone == "" {
		return nil
	}
	return &c
}

// ParseList splits comma or newline separated text, trimming entries and
// dropping empty ones.
func ParseList(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
