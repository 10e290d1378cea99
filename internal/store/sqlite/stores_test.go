package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/store/storetest"
)

func openTestDB(t *testing.T) store.Stores {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db))

	return NewStores(db)
}

func TestStores(t *testing.T) {
	storetest.Run(t, openTestDB)
}

func TestRunMigrations_idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "leadtrack.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestForeignKeysEnforced(t *testing.T) {
	stores := openTestDB(t)
	ctx := context.Background()
	fx := storetest.Seed(t, stores, "fk")

	// An agent row must reference an existing user
	orphan := *fx.Agent
	orphan.AgentID = fx.Org.OrgID
	orphan.UserID = fx.Org.OrgID
	require.ErrorIs(t, stores.Agents.Create(ctx, &orphan), store.ErrUserNotFound)
}
