package attendance

import (
	"math"
	"time"
)

// Attendance is stored at events/{eventId}/attendance/{userId}.
type Attendance struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	CheckedInAt  *time.Time `json:"checkedInAt,omitempty"`
	CheckedOutAt *time.Time `json:"checkedOutAt,omitempty"`
	Hours        *float64   `json:"hours,omitempty"`
	VerifiedBy   string     `json:"verifiedBy,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// IsOpen reports whether the volunteer is checked in and not yet out.
func (a Attendance) IsOpen() bool {
	return a.CheckedInAt != nil && a.CheckedOutAt == nil
}

// HoursBetween is the interval length in hours, rounded to two decimals.
// Inverted intervals count as zero.
func HoursBetween(in, out time.Time) float64 {
	d := out.Sub(in)
	if d < 0 {
		return 0
	}
	return math.Round(d.Hours()*100) / 100
}
