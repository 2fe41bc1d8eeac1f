package seed

import (
	"time"

	"github.com/volunqueer/volunqueer/internal/attendance"
	"github.com/volunqueer/volunqueer/internal/events"
	"github.com/volunqueer/volunqueer/internal/messaging"
	"github.com/volunqueer/volunqueer/internal/notifications"
	"github.com/volunqueer/volunqueer/internal/orgs"
	"github.com/volunqueer/volunqueer/internal/rsvps"
	"github.com/volunqueer/volunqueer/internal/users"
)

// Bundle is a complete demo data set keyed the way it is stored.
type Bundle struct {
	Users               []users.User
	Organizations       []orgs.Organization
	MembersByOrg        map[string][]orgs.Member
	Events              []events.Event
	RolesByEvent        map[string][]events.EventRole
	RSVPsByEvent        map[string][]rsvps.RSVP
	AttendanceByEvent   map[string][]attendance.Attendance
	Threads             []messaging.Thread
	MessagesByThread    map[string][]messaging.Message
	NotificationsByUser map[string][]notifications.Notification
}

// AllRSVPs flattens RSVPsByEvent with EventID set on each record.
func (b Bundle) AllRSVPs() []rsvps.RSVP {
	var out []rsvps.RSVP
	for eventID, list := range b.RSVPsByEvent {
		for _, r := range list {
			r.EventID = eventID
			out = append(out, r)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// Build returns the demo bundle with every timestamp relative to now.
func Build(now time.Time) Bundle {
	now = now.UTC()
	nextFriday := now.Add(5 * 24 * time.Hour)
	nextSaturday := now.Add(6 * 24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	visibility := users.Visibility{ShareEmail: false, SharePhone: false, SharePronouns: true, ShareAccessibility: true}

	alex := users.User{
		ID:          "user-alex",
		DisplayName: "Alex Rivera",
		Pronouns:    "they/them",
		Roles:       []users.Role{users.RoleVolunteer},
		Status:      users.StatusActive,
		Visibility:  visibility,
		Contact:     users.Contact{Email: "alex@example.com", PreferredChannel: users.ChannelEmail},
		VolunteerProfile: &users.VolunteerProfile{
			Interests: []string{"community", "mutual-aid"},
			Skills:    []string{"setup", "hospitality"},
			Availability: users.Availability{
				Timezone: "America/Chicago",
				Weekly: []users.DayAvailability{
					{Weekday: users.Saturday, Windows: []users.TimeWindow{{StartMinutes: 600, EndMinutes: 1020}}},
					{Weekday: users.Sunday, Windows: []users.TimeWindow{{StartMinutes: 540, EndMinutes: 900}}},
				},
			},
			AccessibilityNeeds: []string{"step-free"},
			Location:           &users.GeoPoint{Latitude: 41.8781, Longitude: -87.6298},
			Bio:                "New in town and excited to help.",
			ExperienceNotes:    "Previous volunteer at local pantry.",
		},
		ImpactSummary: &users.ImpactSummary{TotalHours: 6.5, EventsAttended: 2, LastEventAt: ptr(lastWeek)},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	jules := users.User{
		ID:          "user-jules",
		DisplayName: "Jules Kim",
		Pronouns:    "she/her",
		Roles:       []users.Role{users.RoleOrganizer},
		Status:      users.StatusActive,
		Visibility:  visibility,
		Contact:     users.Contact{Email: "jules@example.com", Phone: "555-111-2222", PreferredChannel: users.ChannelEmail},
		OrganizerProfile: &users.OrganizerProfile{
			OrgIDs:      []string{"org-rainbow-center"},
			ContactRole: "Volunteer Coordinator",
			Verified:    true,
		},
		ImpactSummary: &users.ImpactSummary{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	location := orgs.Location{
		Name:       "Rainbow Center",
		Address:    "124 Community Way",
		City:       "Chicago",
		Region:     "IL",
		PostalCode: "60601",
		Country:    "US",
		Geo:        &orgs.GeoPoint{Latitude: 41.8839, Longitude: -87.6324},
	}

	org := orgs.Organization{
		ID:        "org-rainbow-center",
		Name:      "Rainbow Community Center",
		Mission:   "Create welcoming third spaces for LGBTQ+ neighbors.",
		Website:   "https://rainbow.example.org",
		Location:  ptr(location),
		Contact:   &orgs.Contact{Email: "hello@rainbow.example.org", Phone: "555-333-4444"},
		Verified:  true,
		OwnerUID:  jules.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	eventContact := &orgs.Contact{Name: "Jules Kim", Email: "jules@example.com"}

	coffee := events.Event{
		ID:          "event-coffee-hour",
		OrgID:       org.ID,
		Title:       "Community Coffee Hour",
		Description: "Low-key hang with neighbors and new volunteers.",
		StartsAt:    nextFriday,
		EndsAt:      nextFriday.Add(2 * time.Hour),
		Timezone:    "America/Chicago",
		Location:    location,
		Accessibility: &events.Accessibility{
			Notes: "Step-free entry and ADA restroom.",
			Tags:  []string{"step-free", "gender-neutral-restroom"},
		},
		Tags:      []string{"social", "coffee"},
		RSVPCap:   ptr(20),
		Status:    events.StatusPublished,
		Contact:   eventContact,
		CreatedBy: jules.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	kits := events.Event{
		ID:          "event-kits",
		OrgID:       org.ID,
		Title:       "Care Kit Assembly",
		Description: "Pack hygiene kits for mutual aid partners.",
		StartsAt:    nextSaturday,
		EndsAt:      nextSaturday.Add(3 * time.Hour),
		Timezone:    "America/Chicago",
		Location:    location,
		Accessibility: &events.Accessibility{
			Notes: "Masks welcome; fragrance-free space.",
			Tags:  []string{"fragrance-free"},
		},
		Tags:      []string{"mutual-aid", "kits"},
		RSVPCap:   ptr(12),
		Status:    events.StatusPublished,
		Contact:   eventContact,
		CreatedBy: jules.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	host := events.EventRole{
		ID:              "role-host",
		Title:           "Host",
		Description:     "Welcome volunteers, answer questions.",
		SlotsTotal:      2,
		SlotsFilled:     1,
		SkillsRequired:  []string{"hospitality"},
		CheckInRequired: true,
		MinAge:          ptr(18),
	}
	assembler := events.EventRole{
		ID:              "role-assembler",
		Title:           "Assembler",
		Description:     "Assemble care kits with provided supplies.",
		SlotsTotal:      6,
		SlotsFilled:     2,
		SkillsRequired:  []string{"detail"},
		CheckInRequired: true,
		MinAge:          ptr(16),
	}

	checkedOut := lastWeek.Add(2 * time.Hour)

	return Bundle{
		Users:         []users.User{alex, jules},
		Organizations: []orgs.Organization{org},
		MembersByOrg: map[string][]orgs.Member{
			org.ID: {{
				ID:       jules.ID,
				UserID:   jules.ID,
				Role:     orgs.RoleAdmin,
				Status:   orgs.MemberActive,
				JoinedAt: ptr(lastWeek),
			}},
		},
		Events: []events.Event{coffee, kits},
		RolesByEvent: map[string][]events.EventRole{
			coffee.ID: {host},
			kits.ID:   {assembler},
		},
		RSVPsByEvent: map[string][]rsvps.RSVP{
			coffee.ID: {{
				ID:      alex.ID,
				UserID:  alex.ID,
				EventID: coffee.ID,
				RoleID:  host.ID,
				Status:  rsvps.StatusRSVP,
				Consent: rsvps.ConsentSnapshot{
					ShareEmail:         false,
					SharePhone:         false,
					SharePronouns:      true,
					ShareAccessibility: true,
				},
				Answers:   map[string]string{"tshirtSize": "M"},
				CreatedAt: lastWeek,
				UpdatedAt: now,
			}},
		},
		AttendanceByEvent: map[string][]attendance.Attendance{
			coffee.ID: {{
				ID:           alex.ID,
				UserID:       alex.ID,
				CheckedInAt:  ptr(lastWeek),
				CheckedOutAt: ptr(checkedOut),
				Hours:        ptr(2.0),
				VerifiedBy:   jules.ID,
				Notes:        "Great energy and welcoming.",
			}},
		},
		Threads: []messaging.Thread{{
			ID:              "thread-coffee-hour",
			EventID:         coffee.ID,
			OrgID:           org.ID,
			ParticipantUIDs: []string{jules.ID, alex.ID},
			CreatedAt:       lastWeek,
			LastMessageAt:   ptr(now),
		}},
		MessagesByThread: map[string][]messaging.Message{
			"thread-coffee-hour": {
				{ID: "msg-1", ThreadID: "thread-coffee-hour", SenderUID: jules.ID, Body: "Thanks for signing up! See you Friday.", SentAt: lastWeek},
				{ID: "msg-2", ThreadID: "thread-coffee-hour", SenderUID: alex.ID, Body: "Looking forward to it!", SentAt: now},
			},
		},
		NotificationsByUser: map[string][]notifications.Notification{
			alex.ID: {{
				ID:        "notif-1",
				Type:      notifications.TypeEventReminder,
				Title:     "Community Coffee Hour",
				Body:      "Starts in 24 hours. Bring a mug if you can.",
				DeepLink:  notifications.EventDeepLink(coffee.ID),
				CreatedAt: now,
			}},
		},
	}
}
