package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// OrganisationStore implements store.OrganisationStore using PostgreSQL.
type OrganisationStore struct {
	pool *pgxpool.Pool
}

// NewOrganisationStore creates a new PostgreSQL-backed organisation store.
// It shares the connection pool with other stores.
func NewOrganisationStore(pool *pgxpool.Pool) *OrganisationStore {
	return &OrganisationStore{
		pool: pool,
	}
}

// Create creates a new organisation in the database.
func (s *OrganisationStore) Create(ctx context.Context, org *models.Organisation) error {
	query := `
		INSERT INTO organisations (
			org_id, name, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4
		)
	`

	_, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganisationAlreadyExists
		}
		return fmt.Errorf("failed to create organisation: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organisation")

	return nil
}

// Get retrieves an organisation by ID.
func (s *OrganisationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organisation, error) {
	query := `
		SELECT org_id, name, created_at, updated_at
		FROM organisations
		WHERE org_id = $1
	`

	var org models.Organisation
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&org.OrgID,
		&org.Name,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganisationNotFound
		}
		return nil, fmt.Errorf("failed to get organisation: %w", mapPostgresError(err))
	}

	return &org, nil
}

// Update updates an existing organisation.
func (s *OrganisationStore) Update(ctx context.Context, org *models.Organisation) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organisations SET
			name = $2,
			updated_at = $3
		WHERE org_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		org.OrgID,
		org.Name,
		org.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update organisation: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganisationNotFound
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Msg("Updated organisation")

	return nil
}

// Delete removes an organisation. It fails while users still reference it.
func (s *OrganisationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM organisations WHERE org_id = $1`, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organisation: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganisationNotFound
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Msg("Deleted organisation")

	return nil
}
