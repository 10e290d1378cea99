package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name    string
		version int
		ok      bool
	}{
		{"1_initial_schema.sql", 1, true},
		{"12_lead_indexes.sql", 12, true},
		{"initial_schema.sql", 0, false},
		{"0_bootstrap.sql", 0, false},
		{"1_initial_schema.down", 0, false},
		{"1.sql", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := parseMigrationName(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.version, version)
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	t.Run("embedded migrations are ordered", func(t *testing.T) {
		migrations, err := loadMigrations(migrationsFS)
		require.NoError(t, err)
		require.NotEmpty(t, migrations)
		require.Equal(t, 1, migrations[0].version)
	})

	t.Run("orders by version and skips stray files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/10_later.sql":   {Data: []byte("SELECT 1;")},
			"migrations/2_second.sql":   {Data: []byte("SELECT 1;")},
			"migrations/1_first.sql":    {Data: []byte("SELECT 1;")},
			"migrations/README.md":      {Data: []byte("notes")},
			"migrations/draft_next.sql": {Data: []byte("SELECT 1;")},
		}

		migrations, err := loadMigrations(fsys)
		require.NoError(t, err)
		require.Equal(t, []migration{
			{version: 1, name: "1_first.sql"},
			{version: 2, name: "2_second.sql"},
			{version: 10, name: "10_later.sql"},
		}, migrations)
	})

	t.Run("duplicate versions fail", func(t *testing.T) {
		fsys := fstest.MapFS{
			"migrations/1_first.sql": {Data: []byte("SELECT 1;")},
			"migrations/1_again.sql": {Data: []byte("SELECT 1;")},
		}

		_, err := loadMigrations(fsys)
		require.ErrorContains(t, err, "share version 1")
	})
}
