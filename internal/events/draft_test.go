package events

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	d := NewDraft(time.Unix(0, 0).UTC())
	d.Title = "Community Dinner"
	d.LocationName = "Center"
	d.Roles[0].Title = "Host"
	d.Roles[0].SlotsTotal = 4
	return d
}

func TestDraft_ValidDraftPasses(t *testing.T) {
	require.NoError(t, validDraft().Validate())
}

func TestDraft_ValidationOrder(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   string
	}{
		{"missing title", func(d *Draft) { d.Title = "  " }, "Add an event title."},
		{"end before start", func(d *Draft) { d.EndsAt = d.StartsAt }, "End time must be after the start time."},
		{"no location", func(d *Draft) { d.LocationName = "" }, "Add a location for the event."},
		{"bad cap", func(d *Draft) { d.RSVPCapEnabled = true; d.RSVPCap = 0 }, "RSVP cap must be at least 1."},
		{"no roles", func(d *Draft) { d.Roles = nil }, "Add at least one role."},
		{"role title", func(d *Draft) { d.Roles[0].Title = "" }, "Add a role title."},
		{"role slots below filled", func(d *Draft) { d.Roles[0].SlotsFilled = 5; d.Roles[0].SlotsTotal = 3 }, "Slots must be at least 5."},
		{"role slots zero", func(d *Draft) { d.Roles[0].SlotsTotal = 0 }, "Slots must be at least 1."},
		{"role min age", func(d *Draft) { d.Roles[0].MinAgeEnabled = true; d.Roles[0].MinAge = 0 }, "Minimum age must be at least 1."},
		{"title checked before time", func(d *Draft) { d.Title = ""; d.EndsAt = d.StartsAt }, "Add an event title."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.want, verr.Message)
		})
	}
}

func TestDraft_BuildsEventWithTagsAndContact(t *testing.T) {
	d := validDraft()
	d.Description = "  Serve food and welcome guests. "
	d.Tags = "Community, Food\n\n"
	d.AccessibilityNotes = "Wheelchair accessible"
	d.AccessibilityTags = "ASL, Masks"
	d.ContactName = "Alex"
	d.ContactEmail = "alex@example.com"
	d.Roles[0].SlotsTotal = 3
	d.RSVPCapEnabled = true
	d.RSVPCap = 10

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	event, roles := d.Build("user-1", "org-1", BuildOptions{}, now)

	require.True(t, strings.HasPrefix(event.ID, "event-"))
	require.Equal(t, "org-1", event.OrgID)
	require.Equal(t, "Serve food and welcome guests.", event.Description)
	require.Equal(t, []string{"Community", "Food"}, event.Tags)
	require.NotNil(t, event.Accessibility)
	require.Equal(t, "Wheelchair accessible", event.Accessibility.Notes)
	require.Equal(t, []string{"ASL", "Masks"}, event.Accessibility.Tags)
	require.NotNil(t, event.Contact)
	require.Equal(t, "alex@example.com", event.Contact.Email)
	require.NotNil(t, event.RSVPCap)
	require.Equal(t, 10, *event.RSVPCap)
	require.Equal(t, "user-1", event.CreatedBy)
	require.Equal(t, now, event.CreatedAt)
	require.Equal(t, now, event.UpdatedAt)
	require.Len(t, roles, 1)
	require.Equal(t, "Host", roles[0].Title)
}

func TestDraft_BuildKeepsIdentityWhenEditing(t *testing.T) {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := created.Add(48 * time.Hour)
	d := validDraft()
	d.Timezone = ""

	event, _ := d.Build("user-2", "org-1", BuildOptions{EventID: "event-1", CreatedAt: created, CreatedBy: "user-1"}, now)

	require.Equal(t, "event-1", event.ID)
	require.Equal(t, created, event.CreatedAt)
	require.Equal(t, "user-1", event.CreatedBy)
	require.Equal(t, "UTC", event.Timezone)
	require.Nil(t, event.RSVPCap)
	require.Nil(t, event.Accessibility)
	require.Nil(t, event.Contact)
}

func TestRoleDraft_BuildClampsSlots(t *testing.T) {
	r := RoleDraft{ID: "role-1", Title: " Assembler ", SlotsTotal: 1, SlotsFilled: 3, Skills: "lifting,\n sorting", MinAgeEnabled: true, MinAge: 16}

	role := r.Build()
	require.Equal(t, "role-1", role.ID)
	require.Equal(t, "Assembler", role.Title)
	require.Equal(t, 3, role.SlotsTotal)
	require.Equal(t, []string{"lifting", "sorting"}, role.SkillsRequired)
	require.NotNil(t, role.MinAge)
	require.Equal(t, 16, *role.MinAge)
}

func TestNewRoleDraft_Defaults(t *testing.T) {
	r := NewRoleDraft()
	require.True(t, strings.HasPrefix(r.ID, "role-"))
	require.Equal(t, "Volunteer", r.Title)
	require.Equal(t, 6, r.SlotsTotal)
	require.False(t, r.MinAgeEnabled)
	require.Equal(t, 18, r.MinAge)
}

func TestDraftFromEvent_RoundTrip(t *testing.T) {
	rsvpCap := 12
	minAge := 16
	event := Event{
		ID:       "event-kits",
		Title:    "Care Kit Assembly",
		StartsAt: time.Unix(0, 0).UTC(),
		EndsAt:   time.Unix(3600, 0).UTC(),
		Timezone: "America/Chicago",
		Tags:     []string{"Mutual aid", "Hands-on"},
		RSVPCap:  &rsvpCap,
		Status:   StatusPublished,
	}
	event.Location.Name = "Rainbow Community Center"
	roles := []EventRole{{ID: "role-assembler", Title: "Assembler", SlotsTotal: 6, SlotsFilled: 2, MinAge: &minAge}}

	d := DraftFromEvent(event, roles)
	require.Equal(t, "Mutual aid, Hands-on", d.Tags)
	require.True(t, d.RSVPCapEnabled)
	require.Equal(t, 12, d.RSVPCap)
	require.Len(t, d.Roles, 1)
	require.True(t, d.Roles[0].MinAgeEnabled)
	require.NoError(t, d.Validate())

	rebuilt, rebuiltRoles := d.Build("user-jules", "org-rainbow-center", BuildOptions{EventID: event.ID}, time.Unix(10, 0).UTC())
	require.Equal(t, event.Tags, rebuilt.Tags)
	require.Equal(t, roles[0].ID, rebuiltRoles[0].ID)
	require.Equal(t, 2, rebuiltRoles[0].SlotsFilled)
}

func TestParseList(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, ParseList(" a, b\nc ,, "))
	require.Empty(t, ParseList(""))
}
