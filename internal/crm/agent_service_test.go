package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

func TestAgentService_List(t *testing.T) {
	f := newFixture(t)

	agents, err := f.agents.List(f.ctx, f.acme.organisor)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	for _, a := range agents {
		require.Equal(t, f.acme.organisor.OrgID, a.OrgID)
		require.Equal(t, models.RoleAgent, a.User.Role)
	}

	_, err = f.agents.List(f.ctx, f.acme.agent)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAgentService_Get(t *testing.T) {
	f := newFixture(t)

	got, err := f.agents.Get(f.ctx, f.acme.organisor, f.acme.agent.AgentID)
	require.NoError(t, err)
	require.Equal(t, "acme-agent", got.User.Username)

	_, err = f.agents.Get(f.ctx, f.globex.organisor, f.acme.agent.AgentID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.agents.Get(f.ctx, f.acme.organisor, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.agents.Get(f.ctx, f.acme.agent, f.acme.agent.AgentID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAgentService_Create(t *testing.T) {
	f := newFixture(t)

	created, err := f.agents.Create(f.ctx, f.acme.organisor, AgentInput{
		Email:     " newbie@example.com ",
		Username:  "newbie",
		FirstName: "New",
		LastName:  "Bie",
	})
	require.NoError(t, err)
	require.Equal(t, "newbie@example.com", created.User.Email)
	require.Equal(t, models.RoleAgent, created.User.Role)
	require.Equal(t, f.acme.organisor.OrgID, created.User.OrgID)

	id := f.resolve(created.UserID)
	require.True(t, id.IsAgent())
	require.Equal(t, created.AgentID, id.AgentID)

	tests := []struct {
		name  string
		in    AgentInput
		field string
	}{
		{"missing email", AgentInput{Username: "x1"}, "email"},
		{"bad email", AgentInput{Email: "nope", Username: "x2"}, "email"},
		{"missing username", AgentInput{Email: "x3@example.com"}, "username"},
		{"username with spaces", AgentInput{Email: "x4@example.com", Username: "two words"}, "username"},
		{"duplicate email", AgentInput{Email: "NEWBIE@example.com", Username: "another"}, "email"},
		{"duplicate username", AgentInput{Email: "fresh@example.com", Username: "newbie"}, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.agents.Create(f.ctx, f.acme.organisor, tt.in)
			requireValidation(t, err, tt.field)
		})
	}

	_, err = f.agents.Create(f.ctx, f.acme.agent, AgentInput{Email: "sneaky@example.com", Username: "sneaky"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.stores.Users.GetByEmail(f.ctx, "sneaky@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAgentService_Update(t *testing.T) {
	f := newFixture(t)

	updated, err := f.agents.Update(f.ctx, f.acme.organisor, f.acme.agent.AgentID, AgentInput{
		Email:     "renamed@example.com",
		Username:  "renamed",
		FirstName: "Re",
		LastName:  "Named",
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.User.Username)

	user, err := f.stores.Users.Get(f.ctx, f.acme.agent.UserID)
	require.NoError(t, err)
	require.Equal(t, "renamed@example.com", user.Email)
	require.Equal(t, models.RoleAgent, user.Role)

	_, err = f.agents.Update(f.ctx, f.acme.organisor, f.acme.agent.AgentID, AgentInput{
		Email:    "acme-owner@example.com",
		Username: "renamed",
	})
	requireValidation(t, err, "email")

	_, err = f.agents.Update(f.ctx, f.globex.organisor, f.acme.agent.AgentID, AgentInput{Email: "g@example.com", Username: "g"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAgentService_Delete(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(f.acme.organisor, "orphan", &f.acme.agent)

	now := time.Now()
	err := f.stores.Sessions.Create(f.ctx, &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		UserID:     f.acme.agent.UserID,
		OrgID:      f.acme.agent.OrgID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(24 * time.Hour),
		LastUsedAt: now,
	})
	require.NoError(t, err)

	require.ErrorIs(t, f.agents.Delete(f.ctx, f.acme.agent, f.acme.agent.AgentID), ErrForbidden)
	require.ErrorIs(t, f.agents.Delete(f.ctx, f.globex.organisor, f.acme.agent.AgentID), ErrNotFound)

	require.NoError(t, f.agents.Delete(f.ctx, f.acme.organisor, f.acme.agent.AgentID))

	stored, err := f.leads.Get(f.ctx, f.acme.organisor, lead.LeadID)
	require.NoError(t, err)
	require.Nil(t, stored.AgentID)

	_, err = f.stores.Users.Get(f.ctx, f.acme.agent.UserID)
	require.ErrorIs(t, err, store.ErrUserNotFound)

	n, err := f.stores.Sessions.DeleteByUser(f.ctx, f.acme.agent.UserID)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = access.Resolve(f.ctx, f.stores.Users, f.stores.Agents, f.acme.agent.UserID)
	require.Error(t, err)
}

type failingSessions struct {
	store.SessionStore
	err error
}

func (s failingSessions) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, s.err
}

func TestAgentService_Delete_sessionFailure(t *testing.T) {
	f := newFixture(t)

	stores := f.stores
	stores.Sessions = failingSessions{SessionStore: f.stores.Sessions, err: errors.New("session store down")}
	agents := NewAgentService(stores, WithClock(f.clock.Now))

	require.Error(t, agents.Delete(f.ctx, f.acme.organisor, f.acme.agent.AgentID))

	// Nothing was removed, so the agent still resolves
	id, err := access.Resolve(f.ctx, f.stores.Users, f.stores.Agents, f.acme.agent.UserID)
	require.NoError(t, err)
	require.Equal(t, f.acme.agent, id)
}
