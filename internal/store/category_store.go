package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
)

// CategoryFilter narrows category queries. OrgID is always required.
type CategoryFilter struct {
	OrgID uuid.UUID
}

// CategoryStore manages pipeline categories.
type CategoryStore interface {
	// Create creates a category.
	// Returns ErrCategoryAlreadyExists if the name is taken within the organisation.
	Create(ctx context.Context, category *models.Category) error

	// Get retrieves a category within the filter.
	// Returns ErrCategoryNotFound if it does not exist or falls outside the filter.
	Get(ctx context.Context, filter CategoryFilter, categoryID uuid.UUID) (*models.Category, error)

	// GetByName retrieves a category by its exact name within an organisation.
	GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Category, error)

	// List returns all categories within the filter ordered by name.
	List(ctx context.Context, filter CategoryFilter) ([]*models.Category, error)

	// Update renames a category. The organisation never changes.
	Update(ctx context.Context, category *models.Category) error

	// Delete removes a category. Leads in the category become uncategorised.
	Delete(ctx context.Context, filter CategoryFilter, categoryID uuid.UUID) error
}
