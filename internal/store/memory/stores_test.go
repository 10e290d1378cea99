package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/store/storetest"
)

func TestStores(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Stores {
		stores := NewStores()
		require.NoError(t, stores.Validate())
		return stores
	})
}

func TestLeadStore_returnsCopies(t *testing.T) {
	stores := NewStores()
	ctx := context.Background()
	fx := storetest.Seed(t, stores, "copies")

	lead := storetest.NewLead(fx.Org.OrgID, "copied")
	lead.AgentID = &fx.Agent.AgentID
	require.NoError(t, stores.Leads.Create(ctx, lead))

	got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, lead.LeadID)
	require.NoError(t, err)

	// Mutating the returned pointer fields must not leak into the store
	*got.AgentID = fx.Org.OrgID
	got.FirstName = "changed"

	again, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, lead.LeadID)
	require.NoError(t, err)
	require.Equal(t, fx.Agent.AgentID, *again.AgentID)
	require.Equal(t, "copied", again.FirstName)
}

func TestSessionStore_UpdateLastUsed(t *testing.T) {
	st := NewSessionStore()
	ctx := context.Background()
	now := time.Now()

	session := &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		UserID:     uuid.Must(uuid.NewV7()),
		OrgID:      uuid.Must(uuid.NewV7()),
		CreatedAt:  now.Add(-time.Hour),
		ExpiresAt:  now.Add(time.Hour),
		LastUsedAt: now.Add(-time.Hour),
	}
	require.NoError(t, st.Create(ctx, session))
	require.NoError(t, st.UpdateLastUsed(ctx, session.SessionID, now))

	got, err := st.Get(ctx, session.SessionID)
	require.NoError(t, err)
	require.Equal(t, now, got.LastUsedAt)

	// An earlier timestamp never moves last use backwards
	require.NoError(t, st.UpdateLastUsed(ctx, session.SessionID, now.Add(-time.Minute)))
	got, err = st.Get(ctx, session.SessionID)
	require.NoError(t, err)
	require.Equal(t, now, got.LastUsedAt)

	require.ErrorIs(t, st.UpdateLastUsed(ctx, uuid.Must(uuid.NewV7()), now), store.ErrSessionNotFound)
}
