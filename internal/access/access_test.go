package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/store/memory"
	"github.com/wolfeidau/leadtrack/internal/store/storetest"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores()
	fx := storetest.Seed(t, stores, "acme")

	t.Run("organisor", func(t *testing.T) {
		id, err := Resolve(ctx, stores.Users, stores.Agents, fx.Organisor.UserID)
		require.NoError(t, err)
		require.True(t, id.IsOrganisor())
		require.False(t, id.IsAgent())
		require.Equal(t, fx.Org.OrgID, id.OrgID)
		require.Equal(t, uuid.Nil, id.AgentID)
	})

	t.Run("agent", func(t *testing.T) {
		id, err := Resolve(ctx, stores.Users, stores.Agents, fx.AgentUser.UserID)
		require.NoError(t, err)
		require.True(t, id.IsAgent())
		require.Equal(t, fx.Agent.AgentID, id.AgentID)
	})

	t.Run("agent user without agent record", func(t *testing.T) {
		orphan := storetest.NewUser(fx.Org.OrgID, models.RoleAgent, "orphan")
		require.NoError(t, stores.Users.Create(ctx, orphan))

		_, err := Resolve(ctx, stores.Users, stores.Agents, orphan.UserID)
		require.ErrorIs(t, err, ErrInconsistentIdentity)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := Resolve(ctx, stores.Users, stores.Agents, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestScopes(t *testing.T) {
	orgID := uuid.Must(uuid.NewV7())
	agentID := uuid.Must(uuid.NewV7())

	organisor := Identity{UserID: uuid.Must(uuid.NewV7()), OrgID: orgID, Role: models.RoleOrganisor}
	agent := Identity{UserID: uuid.Must(uuid.NewV7()), OrgID: orgID, Role: models.RoleAgent, AgentID: agentID}

	t.Run("organisor sees the whole organisation", func(t *testing.T) {
		require.Equal(t, store.LeadFilter{OrgID: orgID}, LeadScope(organisor))
		require.Equal(t, store.CategoryFilter{OrgID: orgID}, CategoryScope(organisor))

		filter, ok := UnassignedLeadScope(organisor)
		require.True(t, ok)
		require.NotNil(t, filter.Assigned)
		require.False(t, *filter.Assigned)
		require.Equal(t, orgID, filter.OrgID)
	})

	t.Run("agent sees only their own leads", func(t *testing.T) {
		filter := LeadScope(agent)
		require.Equal(t, orgID, filter.OrgID)
		require.NotNil(t, filter.AgentID)
		require.Equal(t, agentID, *filter.AgentID)

		require.Equal(t, store.CategoryFilter{OrgID: orgID}, CategoryScope(agent))

		_, ok := UnassignedLeadScope(agent)
		require.False(t, ok)
	})

	t.Run("zero identity is treated as an agent of nothing", func(t *testing.T) {
		filter := LeadScope(Identity{})
		require.NotNil(t, filter.AgentID)
		require.Equal(t, uuid.Nil, *filter.AgentID)
	})
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	require.False(t, ok)

	id := Identity{UserID: uuid.Must(uuid.NewV7()), Role: models.RoleAgent}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), id))
	require.True(t, ok)
	require.Equal(t, id, got)
}
