package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const maxCategoryNameLength = 30

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name string `json:"name"`
}

// CategorySummary is a category with the number of requester-visible leads in it.
type CategorySummary struct {
	*models.Category
	LeadCount int `json:"lead_count"`
}

// CategoryList is the category index as seen by one requester.
type CategoryList struct {
	Categories         []CategorySummary `json:"categories"`
	UncategorisedCount int               `json:"uncategorised_count"`

	// UnassignedCount is the number of leads without an agent. Only organisors see it.
	UnassignedCount     int  `json:"unassigned_count"`
	ShowUnassignedCount bool `json:"-"`
}

// CategoryDetail is a category with the requester-visible leads it contains.
type CategoryDetail struct {
	Category *models.Category `json:"category"`
	Leads    []*models.Lead   `json:"leads"`
}

// CategoryService implements the category operations on top of the stores.
type CategoryService struct {
	stores store.Stores
	now    func() time.Time
}

// NewCategoryService creates a category service.
func NewCategoryService(stores store.Stores, opts ...Option) *CategoryService {
	cfg := newServiceConfig(opts)
	return &CategoryService{stores: stores, now: cfg.now}
}

// List returns the organisation's categories with visible lead counts.
func (s *CategoryService) List(ctx context.Context, id access.Identity) (*CategoryList, error) {
	categories, err := s.stores.Categories.List(ctx, access.CategoryScope(id))
	if err != nil {
		return nil, mapStoreError(err, "list categories")
	}

	list := &CategoryList{Categories: make([]CategorySummary, 0, len(categories))}
	for _, category := range categories {
		scope := access.LeadScope(id)
		scope.CategoryID = &category.CategoryID

		count, err := s.stores.Leads.Count(ctx, scope)
		if err != nil {
			return nil, mapStoreError(err, "count leads")
		}
		list.Categories = append(list.Categories, CategorySummary{Category: category, LeadCount: count})
	}

	uncategorised := access.LeadScope(id)
	uncategorised.Uncategorised = true
	if list.UncategorisedCount, err = s.stores.Leads.Count(ctx, uncategorised); err != nil {
		return nil, mapStoreError(err, "count uncategorised leads")
	}

	if unassigned, ok := access.UnassignedLeadScope(id); ok {
		if list.UnassignedCount, err = s.stores.Leads.Count(ctx, unassigned); err != nil {
			return nil, mapStoreError(err, "count unassigned leads")
		}
		list.ShowUnassignedCount = true
	}

	return list, nil
}

// Get returns a category and the requester-visible leads in it.
func (s *CategoryService) Get(ctx context.Context, id access.Identity, categoryID uuid.UUID) (*CategoryDetail, error) {
	category, err := s.stores.Categories.Get(ctx, access.CategoryScope(id), categoryID)
	if err != nil {
		return nil, mapStoreError(err, "get category")
	}

	scope := access.LeadScope(id)
	scope.CategoryID = &category.CategoryID

	leads, err := s.stores.Leads.List(ctx, scope)
	if err != nil {
		return nil, mapStoreError(err, "list category leads")
	}

	return &CategoryDetail{Category: category, Leads: leads}, nil
}

// Create adds a category to the organisor's organisation.
func (s *CategoryService) Create(ctx context.Context, id access.Identity, in CategoryInput) (*models.Category, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	name, err := validateCategoryName(in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	category := &models.Category{
		CategoryID: uuid.Must(uuid.NewV7()),
		OrgID:      id.OrgID,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.stores.Categories.Create(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryAlreadyExists) {
			return nil, fieldError("name", "a category with this name already exists")
		}
		return nil, mapStoreError(err, "create category")
	}

	log.Info().
		Str("category_id", category.CategoryID.String()).
		Str("org_id", category.OrgID.String()).
		Str("name", category.Name).
		Msg("Category created")

	return category, nil
}

// Update renames a category. The Converted category keeps its name.
func (s *CategoryService) Update(ctx context.Context, id access.Identity, categoryID uuid.UUID, in CategoryInput) (*models.Category, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	category, err := s.stores.Categories.Get(ctx, access.CategoryScope(id), categoryID)
	if err != nil {
		return nil, mapStoreError(err, "get category")
	}

	name, err := validateCategoryName(in.Name)
	if err != nil {
		return nil, err
	}

	if category.Name == models.ConvertedCategoryName && name != category.Name {
		return nil, fieldError("name", fmt.Sprintf("the %s category cannot be renamed", models.ConvertedCategoryName))
	}

	category.Name = name
	category.UpdatedAt = s.now()
	if err := s.stores.Categories.Update(ctx, category); err != nil {
		if errors.Is(err, store.ErrCategoryAlreadyExists) {
			return nil, fieldError("name", "a category with this name already exists")
		}
		return nil, mapStoreError(err, "update category")
	}

	return category, nil
}

// Delete removes a category; its leads become uncategorised. The Converted category cannot be removed.
func (s *CategoryService) Delete(ctx context.Context, id access.Identity, categoryID uuid.UUID) error {
	if !id.IsOrganisor() {
		return ErrForbidden
	}

	category, err := s.stores.Categories.Get(ctx, access.CategoryScope(id), categoryID)
	if err != nil {
		return mapStoreError(err, "get category")
	}

	if category.Name == models.ConvertedCategoryName {
		return fieldError("name", fmt.Sprintf("the %s category cannot be deleted", models.ConvertedCategoryName))
	}

	if err := s.stores.Categories.Delete(ctx, access.CategoryScope(id), categoryID); err != nil {
		return mapStoreError(err, "delete category")
	}

	log.Info().
		Str("category_id", categoryID.String()).
		Str("org_id", id.OrgID.String()).
		Msg("Category deleted")

	return nil
}

// EnsureDefaults creates any missing default categories for an organisation.
func (s *CategoryService) EnsureDefaults(ctx context.Context, orgID uuid.UUID) error {
	for _, name := range models.DefaultCategoryNames {
		now := s.now()
		err := s.stores.Categories.Create(ctx, &models.Category{
			CategoryID: uuid.Must(uuid.NewV7()),
			OrgID:      orgID,
			Name:       name,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil && !errors.Is(err, store.ErrCategoryAlreadyExists) {
			return fmt.Errorf("failed to create category %q: %w", name, err)
		}
	}
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fieldError("name", "this field is required")
	case len([]rune(name)) > maxCategoryNameLength:
		return "", fieldError("name", fmt.Sprintf("must be at most %d characters", maxCategoryNameLength))
	}
	return name, nil
}
