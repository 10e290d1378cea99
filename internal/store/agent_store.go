package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentAlreadyExists = errors.New("agent already exists")
)

// AgentStore manages the agent records binding agent users to organisations.
type AgentStore interface {
	// Create creates a new agent. The wrapped user must already exist.
	// Returns ErrAgentAlreadyExists if the user is already an agent.
	Create(ctx context.Context, agent *models.Agent) error

	// Get retrieves an agent by ID regardless of organisation.
	// Callers are responsible for checking OrgID.
	Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error)

	// GetByUser retrieves the agent wrapping the given user.
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Agent, error)

	// ListByOrg returns the agents of an organisation joined with their users,
	// ordered by creation time.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.AgentWithUser, error)

	// Delete removes an agent from an organisation. Leads assigned to the agent
	// become unassigned.
	// Returns ErrAgentNotFound if the agent doesn't exist within orgID.
	Delete(ctx context.Context, orgID, agentID uuid.UUID) error
}
