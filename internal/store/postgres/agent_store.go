package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// AgentStore implements store.AgentStore using PostgreSQL.
type AgentStore struct {
	pool *pgxpool.Pool
}

// NewAgentStore creates a new PostgreSQL-backed agent store.
func NewAgentStore(pool *pgxpool.Pool) *AgentStore {
	return &AgentStore{
		pool: pool,
	}
}

// Create creates a new agent in the database.
func (s *AgentStore) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (agent_id, user_id, org_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		agent.AgentID,
		agent.UserID,
		agent.OrgID,
		agent.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAgentAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return fmt.Errorf("failed to create agent: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("agent_id", agent.AgentID.String()).
		Str("user_id", agent.UserID.String()).
		Str("org_id", agent.OrgID.String()).
		Msg("Created agent")

	return nil
}

// Get retrieves an agent by ID.
func (s *AgentStore) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	query := `SELECT agent_id, user_id, org_id, created_at FROM agents WHERE agent_id = $1`
	return s.getOne(ctx, query, agentID)
}

// GetByUser retrieves the agent wrapping a user.
func (s *AgentStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	query := `SELECT agent_id, user_id, org_id, created_at FROM agents WHERE user_id = $1`
	return s.getOne(ctx, query, userID)
}

// ListByOrg returns the agents of an organisation with their users.
func (s *AgentStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.AgentWithUser, error) {
	query := `
		SELECT
			a.agent_id, a.user_id, a.org_id, a.created_at,
			u.user_id, u.org_id, u.role, u.username, u.email,
			u.first_name, u.last_name, u.created_at, u.updated_at
		FROM agents a
		JOIN users u ON u.user_id = a.user_id
		WHERE a.org_id = $1
		ORDER BY a.created_at
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var agents []*models.AgentWithUser
	for rows.Next() {
		var a models.AgentWithUser
		err := rows.Scan(
			&a.AgentID,
			&a.UserID,
			&a.OrgID,
			&a.CreatedAt,
			&a.User.UserID,
			&a.User.OrgID,
			&a.User.Role,
			&a.User.Username,
			&a.User.Email,
			&a.User.FirstName,
			&a.User.LastName,
			&a.User.CreatedAt,
			&a.User.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// Delete deletes an agent within an organisation.
// Leads assigned to the agent are unassigned via FK constraint.
func (s *AgentStore) Delete(ctx context.Context, orgID, agentID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE agent_id = $1 AND org_id = $2`, agentID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrAgentNotFound
	}

	log.Info().
		Str("agent_id", agentID.String()).
		Str("org_id", orgID.String()).
		Msg("Deleted agent (and unassigned its leads)")

	return nil
}

func (s *AgentStore) getOne(ctx context.Context, query string, arg any) (*models.Agent, error) {
	var agent models.Agent
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&agent.AgentID,
		&agent.UserID,
		&agent.OrgID,
		&agent.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAgentNotFound
		}
		return nil, fmt.Errorf("failed to get agent: %w", mapPostgresError(err))
	}

	return &agent, nil
}
