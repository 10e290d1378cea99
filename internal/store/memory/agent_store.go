package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// AgentStore implements store.AgentStore using in-memory storage.
// It reads users for ListByOrg and clears lead assignments on Delete, standing in
// for the joins and FK actions of the SQL backends.
type AgentStore struct {
	mu sync.RWMutex

	agents       map[uuid.UUID]*models.Agent // agent_id -> Agent
	agentsByUser map[uuid.UUID]uuid.UUID     // user_id -> agent_id

	users *UserStore
	leads *LeadStore
}

// NewAgentStore creates a new in-memory agent store.
func NewAgentStore(users *UserStore, leads *LeadStore) *AgentStore {
	return &AgentStore{
		agents:       make(map[uuid.UUID]*models.Agent),
		agentsByUser: make(map[uuid.UUID]uuid.UUID),
		users:        users,
		leads:        leads,
	}
}

// Create creates a new agent in memory.
func (s *AgentStore) Create(ctx context.Context, agent *models.Agent) error {
	if _, err := s.users.Get(ctx, agent.UserID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.AgentID]; exists {
		return store.ErrAgentAlreadyExists
	}
	if _, exists := s.agentsByUser[agent.UserID]; exists {
		return store.ErrAgentAlreadyExists
	}

	clone := *agent
	s.agents[agent.AgentID] = &clone
	s.agentsByUser[agent.UserID] = agent.AgentID

	return nil
}

// Get retrieves an agent by ID.
func (s *AgentStore) Get(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, exists := s.agents[agentID]
	if !exists {
		return nil, store.ErrAgentNotFound
	}

	clone := *agent
	return &clone, nil
}

// GetByUser retrieves the agent wrapping a user.
func (s *AgentStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agentID, exists := s.agentsByUser[userID]
	if !exists {
		return nil, store.ErrAgentNotFound
	}

	clone := *s.agents[agentID]
	return &clone, nil
}

// ListByOrg returns the agents of an organisation with their users.
func (s *AgentStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.AgentWithUser, error) {
	s.mu.RLock()
	var agents []models.Agent
	for _, agent := range s.agents {
		if agent.OrgID == orgID {
			agents = append(agents, *agent)
		}
	}
	s.mu.RUnlock()

	sort.Slice(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})

	result := make([]*models.AgentWithUser, 0, len(agents))
	for _, agent := range agents {
		user, err := s.users.Get(ctx, agent.UserID)
		if err != nil {
			return nil, err
		}
		result = append(result, &models.AgentWithUser{Agent: agent, User: *user})
	}

	return result, nil
}

// Delete removes an agent and unassigns its leads.
func (s *AgentStore) Delete(ctx context.Context, orgID, agentID uuid.UUID) error {
	s.mu.Lock()
	agent, exists := s.agents[agentID]
	if !exists || agent.OrgID != orgID {
		s.mu.Unlock()
		return store.ErrAgentNotFound
	}
	delete(s.agentsByUser, agent.UserID)
	delete(s.agents, agentID)
	s.mu.Unlock()

	s.leads.unassignAgent(agentID)
	return nil
}
