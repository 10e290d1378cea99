package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleOrganisor Role = "organisor" // Owns an organisation, manages agents, leads and categories
	RoleAgent     Role = "agent"     // Works the leads assigned to them
)

// Valid returns true if the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOrganisor || r == RoleAgent
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored or transmitted role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is an authenticated identity. A user is either the organisor of
// OrgID or an agent working within OrgID, never both.
type User struct {
	UserID    uuid.UUID // UUIDv7
	OrgID     uuid.UUID // UUIDv7, FK to organisations
	Role      Role
	Username  string
	Email     string // Matched against the verified GitHub email on login
	FirstName string
	LastName  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}
