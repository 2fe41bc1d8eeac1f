package orgs

import "time"

// MemberRole is a member's role within an organization.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleStaff  MemberRole = "staff"
	RoleViewer MemberRole = "viewer"
)

// IsValid reports whether r is a known role.
func (r MemberRole) IsValid() bool {
	return r == RoleAdmin || r == RoleStaff || r == RoleViewer
}

// CanMutate returns true if the role may manage events of the organization.
func (r MemberRole) CanMutate() bool {
	return r == RoleAdmin || r == RoleStaff
}

// MemberStatus is the membership lifecycle state.
type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberInvited MemberStatus = "invited"
	MemberRemoved MemberStatus = "removed"
)

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a postal location shared by organizations and events.
// Every component is optional.
type Location struct {
	Name       string    `json:"name,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Region     string    `json:"region,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	Country    string    `json:"country,omitempty"`
	Geo        *GeoPoint `json:"geo,omitempty"`
}

type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Organization is stored at organizations/{id}.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mission   string    `json:"mission,omitempty"`
	Website   string    `json:"website,omitempty"`
	Location  *Location `json:"location,omitempty"`
	Contact   *Contact  `json:"contact,omitempty"`
	Verified  bool      `json:"verified"`
	OwnerUID  string    `json:"ownerUid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Member is stored at organizations/{orgId}/members/{id}.
type Member struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Role      MemberRole   `json:"role"`
	Status    MemberStatus `json:"status"`
	JoinedAt  *time.Time   `json:"joinedAt,omitempty"`
	InvitedAt *time.Time   `json:"invitedAt,omitempty"`
}

// IsEmpty reports whether no postal component is set.
func (l Location) IsEmpty() bool {
	return l.Name == "" && l.Address == "" && l.City == "" &&
		l.Region == "" && l.PostalCode == "" && l.Country == ""
}
