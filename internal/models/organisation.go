package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisation is the identity boundary in the system.
// Every agent, lead and category belongs to exactly one organisation.
type Organisation struct {
	OrgID     uuid.UUID // UUIDv7
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
