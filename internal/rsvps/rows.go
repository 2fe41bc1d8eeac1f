package rsvps

import (
	"sort"
	"time"

	"github.com/volunqueer/volunqueer/internal/events"
)

// Row pairs a volunteer's RSVP with the event it belongs to.
type Row struct {
	Event events.Event `json:"event"`
	RSVP  RSVP         `json:"rsvp"`
}

// BuildRows joins live RSVPs to known events, ordered by event start.
// Cancelled RSVPs and RSVPs for unknown events are dropped.
func BuildRows(list []RSVP, known []events.Event) []Row {
	byID := indexEvents(known)

	rows := make([]Row, 0, len(list))
	for _, r := range list {
		if !r.Status.IsLive() {
			continue
		}
		event, ok := byID[r.EventID]
		if !ok {
			continue
		}
		rows = append(rows, Row{Event: event, RSVP: r})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Event.StartsAt.Before(rows[j].Event.StartsAt)
	})
	return rows
}

// StatusesByEvent maps event id to RSVP status for live RSVPs on known events.
func StatusesByEvent(list []RSVP, known []events.Event) map[string]Status {
	byID := indexEvents(known)

	statuses := make(map[string]Status)
	for _, r := range list {
		if _, ok := byID[r.EventID]; !ok || !r.Status.IsLive() {
			continue
		}
		statuses[r.EventID] = r.Status
	}
	return statuses
}

// SortByCreated orders an event's RSVPs oldest first, as organizers see them.
func SortByCreated(list []RSVP) []RSVP {
	out := make([]RSVP, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CalendarDay holds the rows whose events start on Date, a YYYY-MM-DD
// day in each event's own timezone.
type CalendarDay struct {
	Date string `json:"date"`
	Rows []Row  `json:"rows"`
}

// GroupByDay buckets rows by the local start date of their event.
func GroupByDay(rows []Row) []CalendarDay {
	buckets := make(map[string][]Row)
	for _, row := range rows {
		key := DayKey(row.Event)
		buckets[key] = append(buckets[key], row)
	}

	days := make([]CalendarDay, 0, len(buckets))
	for date, dayRows := range buckets {
		days = append(days, CalendarDay{Date: date, Rows: dayRows})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// DayKey is the event's start date in its own timezone.
func DayKey(event events.Event) string {
	return event.StartsAt.In(event.Zone()).Format(time.DateOnly)
}

// CalendarMonth is a month grid plus the RSVP days that fall in it.
// LeadingBlanks is the number of empty cells before day 1 in a
// Sunday-first week.
type CalendarMonth struct {
	Month         string        `json:"month"`
	LeadingBlanks int           `json:"leadingBlanks"`
	DaysInMonth   int           `json:"daysInMonth"`
	Days          []CalendarDay `json:"days"`
}

// BuildMonth lays out the month containing month and keeps the days of
// rows that fall inside it.
func BuildMonth(month time.Time, rows []Row) CalendarMonth {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	prefix := first.Format("2006-01")

	var inMonth []CalendarDay
	for _, day := range GroupByDay(rows) {
		if day.Date[:7] == prefix {
			inMonth = append(inMonth, day)
		}
	}

	return CalendarMonth{
		Month:         prefix,
		LeadingBlanks: int(first.Weekday()),
		DaysInMonth:   last.Day(),
		Days:          inMonth,
	}
}

func indexEvents(known []events.Event) map[string]events.Event {
	byID := make(map[string]events.Event, len(known))
	for _, e := range known {
		byID[e.ID] = e
	}
	return byID
}
