package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// OrganisationStore implements store.OrganisationStore using SQLite.
type OrganisationStore struct {
	db *sql.DB
}

// NewOrganisationStore creates a new SQLite-backed organisation store.
func NewOrganisationStore(db *sql.DB) *OrganisationStore {
	return &OrganisationStore{db: db}
}

// Create creates a new organisation in the database.
func (s *OrganisationStore) Create(ctx context.Context, org *models.Organisation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organisations (org_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		org.OrgID, org.Name, toMicros(org.CreatedAt), toMicros(org.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganisationAlreadyExists
		}
		return fmt.Errorf("failed to create organisation: %w", err)
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organisation")

	return nil
}

// Get retrieves an organisation by ID.
func (s *OrganisationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organisation, error) {
	var (
		org                  models.Organisation
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT org_id, name, created_at, updated_at FROM organisations WHERE org_id = ?`, orgID,
	).Scan(&org.OrgID, &org.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOrganisationNotFound
		}
		return nil, fmt.Errorf("failed to get organisation: %w", err)
	}

	org.CreatedAt = fromMicros(createdAt)
	org.UpdatedAt = fromMicros(updatedAt)
	return &org, nil
}

// Update updates an existing organisation.
func (s *OrganisationStore) Update(ctx context.Context, org *models.Organisation) error {
	org.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE organisations SET name = ?, updated_at = ? WHERE org_id = ?`,
		org.Name, toMicros(org.UpdatedAt), org.OrgID,
	)
	if err != nil {
		return fmt.Errorf("failed to update organisation: %w", err)
	}

	return expectRow(result, store.ErrOrganisationNotFound)
}

// Delete removes an organisation. It fails while users still reference it.
func (s *OrganisationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM organisations WHERE org_id = ?`, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organisation: %w", err)
	}

	return expectRow(result, store.ErrOrganisationNotFound)
}

// expectRow returns notFound when a statement matched no rows.
func expectRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
