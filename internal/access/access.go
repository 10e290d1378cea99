// Package access resolves what a requesting user may see. Every lead and
// category query is narrowed by a filter built here, so records outside the
// requester's scope are indistinguishable from records that do not exist.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// ErrInconsistentIdentity is returned when stored records disagree about who a user is,
// for example an agent user without an agent record.
var ErrInconsistentIdentity = errors.New("inconsistent identity")

// Identity is the requesting user as seen by the visibility rules.
type Identity struct {
	UserID  uuid.UUID
	OrgID   uuid.UUID
	Role    models.Role
	AgentID uuid.UUID // zero for organisors
}

// IsOrganisor reports whether the identity owns its organisation.
func (id Identity) IsOrganisor() bool {
	return id.Role == models.RoleOrganisor
}

// IsAgent reports whether the identity is an agent of its organisation.
func (id Identity) IsAgent() bool {
	return id.Role == models.RoleAgent
}

// LeadScope returns the filter selecting the leads an identity may view or mutate.
// Organisors see every lead of their organisation; agents only the leads assigned to them.
func LeadScope(id Identity) store.LeadFilter {
	filter := store.LeadFilter{OrgID: id.OrgID}
	if !id.IsOrganisor() {
		agentID := id.AgentID
		filter.AgentID = &agentID
	}
	return filter
}

// CategoryScope returns the filter selecting the categories an identity may see.
// Both roles see every category of their organisation.
func CategoryScope(id Identity) store.CategoryFilter {
	return store.CategoryFilter{OrgID: id.OrgID}
}

// UnassignedLeadScope returns the filter selecting leads without an agent.
// The view is only available to organisors; ok is false for anyone else.
func UnassignedLeadScope(id Identity) (filter store.LeadFilter, ok bool) {
	if !id.IsOrganisor() {
		return store.LeadFilter{}, false
	}
	unassigned := false
	return store.LeadFilter{OrgID: id.OrgID, Assigned: &unassigned}, true
}

// Resolve builds the identity of a stored user, looking up the agent record for agents.
func Resolve(ctx context.Context, users store.UserStore, agents store.AgentStore, userID uuid.UUID) (Identity, error) {
	user, err := users.Get(ctx, userID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get user: %w", err)
	}

	id := Identity{
		UserID: user.UserID,
		OrgID:  user.OrgID,
		Role:   user.Role,
	}

	switch user.Role {
	case models.RoleOrganisor:
		return id, nil
	case models.RoleAgent:
		agent, err := agents.GetByUser(ctx, user.UserID)
		if errors.Is(err, store.ErrAgentNotFound) {
			return Identity{}, fmt.Errorf("%w: agent user %s has no agent record", ErrInconsistentIdentity, user.UserID)
		}
		if err != nil {
			return Identity{}, fmt.Errorf("failed to get agent: %w", err)
		}
		if agent.OrgID != user.OrgID {
			return Identity{}, fmt.Errorf("%w: agent %s belongs to another organisation", ErrInconsistentIdentity, agent.AgentID)
		}
		id.AgentID = agent.AgentID
		return id, nil
	default:
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInconsistentIdentity, user.Role)
	}
}

type contextKey int

const identityContextKey contextKey = iota

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the identity placed on the context by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
