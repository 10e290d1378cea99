package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// CategoryStore implements store.CategoryStore using PostgreSQL.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// NewCategoryStore creates a new PostgreSQL-backed category store.
func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{
		pool: pool,
	}
}

// Create creates a new category in the database.
func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (category_id, org_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		category.CategoryID,
		category.OrgID,
		category.Name,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrCategoryAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganisationNotFound
		}
		return fmt.Errorf("failed to create category: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("category_id", category.CategoryID.String()).
		Str("org_id", category.OrgID.String()).
		Str("name", category.Name).
		Msg("Created category")

	return nil
}

// Get retrieves a category within the filter.
func (s *CategoryStore) Get(ctx context.Context, filter store.CategoryFilter, categoryID uuid.UUID) (*models.Category, error) {
	query := `
		SELECT category_id, org_id, name, created_at, updated_at
		FROM categories
		WHERE category_id = $1 AND org_id = $2
	`
	return s.getOne(ctx, query, categoryID, filter.OrgID)
}

// GetByName retrieves a category by name within an organisation.
func (s *CategoryStore) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Category, error) {
	query := `
		SELECT category_id, org_id, name, created_at, updated_at
		FROM categories
		WHERE org_id = $1 AND name = $2
	`
	return s.getOne(ctx, query, orgID, name)
}

// List returns the categories within the filter ordered by name.
func (s *CategoryStore) List(ctx context.Context, filter store.CategoryFilter) ([]*models.Category, error) {
	query := `
		SELECT category_id, org_id, name, created_at, updated_at
		FROM categories
		WHERE org_id = $1
		ORDER BY name COLLATE "C"
	`

	rows, err := s.pool.Query(ctx, query, filter.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.OrgID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Update renames a category.
func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories SET
			name = $3,
			updated_at = $4
		WHERE category_id = $1 AND org_id = $2
	`

	result, err := s.pool.Exec(ctx, query,
		category.CategoryID,
		category.OrgID,
		category.Name,
		category.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrCategoryNotFound
	}

	return nil
}

// Delete deletes a category within the filter.
// Leads in the category become uncategorised via FK constraint.
func (s *CategoryStore) Delete(ctx context.Context, filter store.CategoryFilter, categoryID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE category_id = $1 AND org_id = $2`, categoryID, filter.OrgID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrCategoryNotFound
	}

	log.Info().
		Str("category_id", categoryID.String()).
		Str("org_id", filter.OrgID.String()).
		Msg("Deleted category")

	return nil
}

func (s *CategoryStore) getOne(ctx context.Context, query string, args ...any) (*models.Category, error) {
	var c models.Category
	err := s.pool.QueryRow(ctx, query, args...).Scan(&c.CategoryID, &c.OrgID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", mapPostgresError(err))
	}

	return &c, nil
}
