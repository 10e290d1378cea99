package crm

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

const maxUsernameLength = 150

// AgentInput is the editable part of an agent and its user.
type AgentInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AgentService implements the organisor-only agent management operations.
type AgentService struct {
	stores store.Stores
	now    func() time.Time
}

// NewAgentService creates an agent service.
func NewAgentService(stores store.Stores, opts ...Option) *AgentService {
	cfg := newServiceConfig(opts)
	return &AgentService{stores: stores, now: cfg.now}
}

// List returns the agents of the organisor's organisation.
func (s *AgentService) List(ctx context.Context, id access.Identity) ([]*models.AgentWithUser, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	agents, err := s.stores.Agents.ListByOrg(ctx, id.OrgID)
	if err != nil {
		return nil, mapStoreError(err, "list agents")
	}
	return agents, nil
}

// Get returns one agent of the organisor's organisation.
func (s *AgentService) Get(ctx context.Context, id access.Identity, agentID uuid.UUID) (*models.AgentWithUser, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	agent, err := s.stores.Agents.Get(ctx, agentID)
	if err != nil {
		return nil, mapStoreError(err, "get agent")
	}
	if agent.OrgID != id.OrgID {
		return nil, fmt.Errorf("get agent: %w", ErrNotFound)
	}

	user, err := s.stores.Users.Get(ctx, agent.UserID)
	if err != nil {
		return nil, mapStoreError(err, "get agent user")
	}

	return &models.AgentWithUser{Agent: *agent, User: *user}, nil
}

// Create adds an agent user and its agent record to the organisor's organisation.
func (s *AgentService) Create(ctx context.Context, id access.Identity, in AgentInput) (*models.AgentWithUser, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	in = normaliseAgentInput(in)
	if err := validateAgentInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		OrgID:     id.OrgID,
		Role:      models.RoleAgent,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.stores.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, s.duplicateUserError(ctx, in.Email)
		}
		return nil, mapStoreError(err, "create agent user")
	}

	agent := &models.Agent{
		AgentID:   uuid.Must(uuid.NewV7()),
		UserID:    user.UserID,
		OrgID:     id.OrgID,
		CreatedAt: now,
	}

	if err := s.stores.Agents.Create(ctx, agent); err != nil {
		// Do not leave an agent-role user without an agent record
		if delErr := s.stores.Users.Delete(ctx, user.UserID); delErr != nil {
			log.Error().Err(delErr).Str("user_id", user.UserID.String()).Msg("Failed to remove user after agent creation failed")
		}
		return nil, mapStoreError(err, "create agent")
	}

	telemetry.GetMetrics().AgentsCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("agent_id", agent.AgentID.String()).
		Str("user_id", user.UserID.String()).
		Str("org_id", agent.OrgID.String()).
		Msg("Agent created")

	return &models.AgentWithUser{Agent: *agent, User: *user}, nil
}

// Update changes the names and contact details of an agent's user.
func (s *AgentService) Update(ctx context.Context, id access.Identity, agentID uuid.UUID, in AgentInput) (*models.AgentWithUser, error) {
	current, err := s.Get(ctx, id, agentID)
	if err != nil {
		return nil, err
	}

	in = normaliseAgentInput(in)
	if err := validateAgentInput(in); err != nil {
		return nil, err
	}

	user := current.User
	user.Email = in.Email
	user.Username = in.Username
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.UpdatedAt = s.now()

	if err := s.stores.Users.Update(ctx, &user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, s.duplicateUserError(ctx, in.Email)
		}
		return nil, mapStoreError(err, "update agent user")
	}

	return &models.AgentWithUser{Agent: current.Agent, User: user}, nil
}

// Delete removes an agent from the organisation: its leads are unassigned, its sessions
// ended and its user deleted.
func (s *AgentService) Delete(ctx context.Context, id access.Identity, agentID uuid.UUID) error {
	current, err := s.Get(ctx, id, agentID)
	if err != nil {
		return err
	}

	// Sessions go first so a failure leaves the agent intact
	if _, err := s.stores.Sessions.DeleteByUser(ctx, current.UserID); err != nil {
		return mapStoreError(err, "delete agent sessions")
	}

	if err := s.stores.Agents.Delete(ctx, id.OrgID, agentID); err != nil {
		return mapStoreError(err, "delete agent")
	}

	// The agent is gone; a user left behind cannot resolve an identity
	if err := s.stores.Users.Delete(ctx, current.UserID); err != nil && !errors.Is(err, store.ErrUserNotFound) {
		log.Error().Err(err).Str("user_id", current.UserID.String()).Msg("Failed to remove user after agent deletion")
	}

	telemetry.GetMetrics().AgentsDeletedTotal.Add(ctx, 1)

	log.Info().
		Str("agent_id", agentID.String()).
		Str("user_id", current.UserID.String()).
		Str("org_id", id.OrgID.String()).
		Msg("Agent deleted")

	return nil
}

// duplicateUserError attributes a uniqueness failure to the email or the username.
func (s *AgentService) duplicateUserError(ctx context.Context, email string) error {
	if _, err := s.stores.Users.GetByEmail(ctx, email); err == nil {
		return fieldError("email", "a user with this email already exists")
	}
	return fieldError("username", "a user with this username already exists")
}

func normaliseAgentInput(in AgentInput) AgentInput {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	return in
}

func validateAgentInput(in AgentInput) error {
	verr := &ValidationError{}

	if in.Email == "" {
		verr.Add("email", "this field is required")
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		verr.Add("email", "enter a valid email address")
	}

	switch {
	case in.Username == "":
		verr.Add("username", "this field is required")
	case len(in.Username) > maxUsernameLength:
		verr.Add("username", fmt.Sprintf("must be at most %d characters", maxUsernameLength))
	case strings.ContainsAny(in.Username, " \t\n"):
		verr.Add("username", "must not contain spaces")
	}

	if len([]rune(in.FirstName)) > maxNameLength {
		verr.Add("first_name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if len([]rune(in.LastName)) > maxNameLength {
		verr.Add("last_name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}

	return verr.Err()
}
