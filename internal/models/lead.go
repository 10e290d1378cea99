package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a sales prospect tracked by an organisation.
type Lead struct {
	LeadID uuid.UUID // UUIDv7
	OrgID  uuid.UUID // Never changes after creation

	AgentID    *uuid.UUID // nil when unassigned
	CategoryID *uuid.UUID // nil when uncategorised

	FirstName   string
	LastName    string
	Age         int
	Description string
	PhoneNumber string
	Email       string

	// ConvertedAt is stamped the first time the lead moves into the
	// Converted category and is never cleared afterwards.
	ConvertedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the lead's display name.
func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

// IsAssigned returns true if the lead has an agent.
func (l *Lead) IsAssigned() bool {
	return l.AgentID != nil
}

// IsConverted returns true once the lead has been stamped as converted.
func (l *Lead) IsConverted() bool {
	return l.ConvertedAt != nil
}
