package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent wraps a user with the agent role and binds it to an organisation.
type Agent struct {
	AgentID   uuid.UUID // UUIDv7
	UserID    uuid.UUID // FK to users, unique
	OrgID     uuid.UUID // FK to organisations
	CreatedAt time.Time
}

// AgentWithUser joins an agent to the user it wraps, for display.
type AgentWithUser struct {
	Agent
	User User
}
