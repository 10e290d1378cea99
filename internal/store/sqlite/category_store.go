package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const categoryColumns = `category_id, org_id, name, created_at, updated_at`

// CategoryStore implements store.CategoryStore using SQLite.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore creates a new SQLite-backed category store.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Create creates a new category in the database.
func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
		category.CategoryID, category.OrgID, category.Name,
		toMicros(category.CreatedAt), toMicros(category.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrCategoryAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganisationNotFound
		}
		return fmt.Errorf("failed to create category: %w", err)
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
	return s.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE category_id = ? AND org_id = ?`, categoryID, filter.OrgID)
}

// GetByName retrieves a category by name within an organisation.
func (s *CategoryStore) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Category, error) {
	return s.getOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE org_id = ? AND name = ?`, orgID, name)
}

// List returns the categories within the filter ordered by name.
func (s *CategoryStore) List(ctx context.Context, filter store.CategoryFilter) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE org_id = ? ORDER BY name`, filter.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []*models.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Update renames a category.
func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, updated_at = ? WHERE category_id = ? AND org_id = ?`,
		category.Name, toMicros(category.UpdatedAt), category.CategoryID, category.OrgID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	return expectRow(result, store.ErrCategoryNotFound)
}

// Delete deletes a category within the filter. Its leads become uncategorised via FK constraint.
func (s *CategoryStore) Delete(ctx context.Context, filter store.CategoryFilter, categoryID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE category_id = ? AND org_id = ?`, categoryID, filter.OrgID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return expectRow(result, store.ErrCategoryNotFound)
}

func (s *CategoryStore) getOne(ctx context.Context, query string, args ...any) (*models.Category, error) {
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

func scanCategory(row scanner) (*models.Category, error) {
	var (
		category             models.Category
		createdAt, updatedAt int64
	)
	if err := row.Scan(&category.CategoryID, &category.OrgID, &category.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	category.CreatedAt = fromMicros(createdAt)
	category.UpdatedAt = fromMicros(updatedAt)
	return &category, nil
}
