package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/store"
	memorystore "github.com/wolfeidau/leadtrack/internal/store/memory"
	postgresstore "github.com/wolfeidau/leadtrack/internal/store/postgres"
	sqlitestore "github.com/wolfeidau/leadtrack/internal/store/sqlite"
)

// StoreFlags selects and configures the persistence backend.
type StoreFlags struct {
	StoreType string `help:"store type (memory, sqlite, or postgres)" default:"sqlite" env:"LEADTRACK_STORE_TYPE" enum:"memory,sqlite,postgres"`

	SQLitePath string `help:"path to the SQLite database file" default:"data/leadtrack.db" env:"LEADTRACK_SQLITE_PATH"`

	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32         `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32         `help:"maximum connection idle time in seconds" default:"1800"`
	ConnectRetry    time.Duration `help:"how long to retry the initial connection" default:"30s" env:"LEADTRACK_POSTGRES_CONNECT_RETRY"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// open connects to the configured backend, optionally applying migrations first.
// The returned func releases the connection.
func (f *StoreFlags) open(ctx context.Context, migrate bool) (store.Stores, func(), error) {
	switch f.StoreType {
	case "postgres":
		if err := f.PostgresStore.Validate(); err != nil {
			return store.Stores{}, nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:          f.PostgresStore.ConnString,
			MaxConns:            f.PostgresStore.MaxConns,
			MinConns:            f.PostgresStore.MinConns,
			MaxConnLifetime:     f.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime:     f.PostgresStore.MaxConnIdleTime,
			ConnectRetryTimeout: f.PostgresStore.ConnectRetry,
		})
		if err != nil {
			return store.Stores{}, nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		if migrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return store.Stores{}, nil, fmt.Errorf("failed to run postgres migrations: %w", err)
			}
		}

		log.Info().Msg("Using PostgreSQL stores")
		return postgresstore.NewStores(pool), pool.Close, nil

	case "sqlite":
		db, err := sqlitestore.Open(f.SQLitePath)
		if err != nil {
			return store.Stores{}, nil, err
		}

		if migrate {
			if err := sqlitestore.RunMigrations(ctx, db); err != nil {
				_ = db.Close()
				return store.Stores{}, nil, fmt.Errorf("failed to run sqlite migrations: %w", err)
			}
		}

		closer := func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close SQLite database")
			}
		}

		log.Info().Str("path", f.SQLitePath).Msg("Using SQLite stores")
		return sqlitestore.NewStores(db), closer, nil

	default:
		log.Warn().Msg("Using in-memory stores, all data is lost on exit")
		return memorystore.NewStores(), func() {}, nil
	}
}
