package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockID is the advisory lock key held while migrating, so servers started
// together with auto-migrate apply each migration once.
const migrationLockID int64 = 0x6c656164747261 // "leadtra"

type migration struct {
	version int
	name    string
}

// parseMigrationName extracts the version from names like "1_initial_schema.sql".
func parseMigrationName(name string) (int, bool) {
	if !strings.HasSuffix(name, ".sql") {
		return 0, false
	}
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, false
	}
	return version, true
}

// loadMigrations lists the embedded migrations ordered by version.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, ok := parseMigrationName(entry.Name())
		if !ok {
			log.Warn().Str("file", entry.Name()).Msg("Skipping migration file with invalid name")
			continue
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, entry.Name(), version)
		}
		seen[version] = entry.Name()
		migrations = append(migrations, migration{version: version, name: entry.Name()})
	}

	slices.SortFunc(migrations, func(a, b migration) int { return a.version - b.version })
	return migrations, nil
}

// RunMigrations applies the embedded migrations that schema_migrations does not list yet.
// Each migration runs in its own transaction under a session advisory lock.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockID); err != nil {
			log.Warn().Err(err).Msg("Failed to release migration lock")
		}
	}()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", mapPostgresError(err))
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	pending := 0
	for _, m := range migrations {
		if slices.Contains(applied, m.version) {
			continue
		}
		if err := applyMigration(ctx, conn.Conn(), m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		pending++
	}

	log.Info().Int("applied", pending).Int("total", len(migrations)).Msg("Database migrations complete")
	return nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, m migration) error {
	content, err := migrationsFS.ReadFile("migrations/" + m.name)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	log.Info().Int("version", m.version).Str("name", m.name).Msg("Applying migration")

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", mapPostgresError(err))
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
