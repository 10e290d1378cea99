package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// AgentStore implements store.AgentStore using SQLite.
type AgentStore struct {
	db *sql.DB
}

// NewAgentStore creates a new SQLite-backed agent store.
func NewAgentStore(db *sql.DB) *AgentStore {
	return &AgentStore{db: db}
}

// Create creates a new agent in the database.
func (s *AgentStore) Create(ctx context.Context, agent *models.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, user_id, org_id, created_at) VALUES (?, ?, ?, ?)`,
		agent.AgentID, agent.UserID, agent.OrgID, toMicros(agent.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAgentAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return fmt.Errorf("failed to create agent: %w", err)
	}

	log.Debug().
		Str("agent_id", agent.AgentID.String()).
		Str("user_id", agent.UserID.String()).
		Msg("Created agent")

	return nil
}

// Get retrieves an agent by ID.
func (s *AgentStore) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	return s.getOne(ctx, `SELECT agent_id, user_id, org_id, created_at FROM agents WHERE agent_id = ?`, agentID)
}

// GetByUser retrieves the agent wrapping a user.
func (s *AgentStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	return s.getOne(ctx, `SELECT agent_id, user_id, org_id, created_at FROM agents WHERE user_id = ?`, userID)
}

// ListByOrg returns the agents of an organisation with their users.
func (s *AgentStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.AgentWithUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.agent_id, a.created_at,
			u.user_id, u.org_id, u.role, u.username, u.email,
			u.first_name, u.last_name, u.created_at, u.updated_at
		FROM agents a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.org_id = ?
		ORDER BY a.created_at, a.agent_id`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []*models.AgentWithUser
	for rows.Next() {
		var (
			agentID        uuid.UUID
			agentCreatedAt int64
		)
		user, err := scanUser(prefixScanner{rows: rows, prefix: []any{&agentID, &agentCreatedAt}})
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, &models.AgentWithUser{
			Agent: models.Agent{
				AgentID:   agentID,
				UserID:    user.UserID,
				OrgID:     orgID,
				CreatedAt: fromMicros(agentCreatedAt),
			},
			User: *user,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// Delete deletes an agent within an organisation. Its leads are unassigned via FK constraint.
func (s *AgentStore) Delete(ctx context.Context, orgID, agentID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE agent_id = ? AND org_id = ?`, agentID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	return expectRow(result, store.ErrAgentNotFound)
}

func (s *AgentStore) getOne(ctx context.Context, query string, arg any) (*models.Agent, error) {
	var (
		agent     models.Agent
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&agent.AgentID, &agent.UserID, &agent.OrgID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	agent.CreatedAt = fromMicros(createdAt)
	return &agent, nil
}

// prefixScanner scans leading columns into prefix before handing the rest to the caller.
type prefixScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(p.prefix, dest...)...)
}
