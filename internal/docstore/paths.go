package docstore

import "strings"

// Top-level collections.
const (
	Users          = "users"
	Organizations  = "organizations"
	Events         = "events"
	MessageThreads = "messageThreads"
	Credentials    = "credentials"
	AuditLog       = "auditLog"
)

// Subcollection names.
const (
	Members       = "members"
	Roles         = "roles"
	RSVPs         = "rsvps"
	Attendance    = "attendance"
	Messages      = "messages"
	Notifications = "notifications"
)

func MembersPath(orgID string) string {
	return Organizations + "/" + orgID + "/" + Members
}

func RolesPath(eventID string) string {
	return Events + "/" + eventID + "/" + Roles
}

func RSVPsPath(eventID string) string {
	return Events + "/" + eventID + "/" + RSVPs
}

func AttendancePath(eventID string) string {
	return Events + "/" + eventID + "/" + Attendance
}

func MessagesPath(threadID string) string {
	return MessageThreads + "/" + threadID + "/" + Messages
}

func NotificationsPath(userID string) string {
	return Users + "/" + userID + "/" + Notifications
}

// Segments splits a slash separated path, ignoring leading and trailing slashes.
func Segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// CollectionName returns the last segment of a collection path.
func CollectionName(path string) string {
	segments := Segments(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// ParentID returns the owning document id of a subcollection path,
// e.g. "event-1" for "events/event-1/rsvps".
func ParentID(path string) string {
	segments := Segments(path)
	if len(segments) < 3 {
		return ""
	}
	return segments[len(segments)-2]
}
