package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// CategoryStore implements store.CategoryStore using in-memory storage.
type CategoryStore struct {
	mu sync.RWMutex

	categories map[uuid.UUID]*models.Category // category_id -> Category

	leads *LeadStore
}

// NewCategoryStore creates a new in-memory category store.
func NewCategoryStore(leads *LeadStore) *CategoryStore {
	return &CategoryStore{
		categories: make(map[uuid.UUID]*models.Category),
		leads:      leads,
	}
}

// Create creates a new category in memory.
func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[category.CategoryID]; exists {
		return store.ErrCategoryAlreadyExists
	}
	if s.nameTaken(category.OrgID, category.Name, category.CategoryID) {
		return store.ErrCategoryAlreadyExists
	}

	clone := *category
	s.categories[category.CategoryID] = &clone
	return nil
}

// Get retrieves a category within the filter.
func (s *CategoryStore) Get(ctx context.Context, filter store.CategoryFilter, categoryID uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, exists := s.categories[categoryID]
	if !exists || category.OrgID != filter.OrgID {
		return nil, store.ErrCategoryNotFound
	}

	clone := *category
	return &clone, nil
}

// GetByName retrieves a category by name within an organisation.
func (s *CategoryStore) GetByName(ctx context.Context, orgID uuid.UUID, name string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, category := range s.categories {
		if category.OrgID == orgID && category.Name == name {
			clone := *category
			return &clone, nil
		}
	}

	return nil, store.ErrCategoryNotFound
}

// List returns the categories within the filter ordered by name.
func (s *CategoryStore) List(ctx context.Context, filter store.CategoryFilter) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Category
	for _, category := range s.categories {
		if category.OrgID == filter.OrgID {
			clone := *category
			result = append(result, &clone)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Update renames a category.
func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.categories[category.CategoryID]
	if !exists || existing.OrgID != category.OrgID {
		return store.ErrCategoryNotFound
	}
	if s.nameTaken(category.OrgID, category.Name, category.CategoryID) {
		return store.ErrCategoryAlreadyExists
	}

	clone := *category
	clone.CreatedAt = existing.CreatedAt
	s.categories[category.CategoryID] = &clone
	return nil
}

// Delete removes a category and uncategorises its leads.
func (s *CategoryStore) Delete(ctx context.Context, filter store.CategoryFilter, categoryID uuid.UUID) error {
	s.mu.Lock()
	category, exists := s.categories[categoryID]
	if !exists || category.OrgID != filter.OrgID {
		s.mu.Unlock()
		return store.ErrCategoryNotFound
	}
	delete(s.categories, categoryID)
	s.mu.Unlock()

	s.leads.uncategorise(categoryID)
	return nil
}

// nameTaken must be called with the lock held.
func (s *CategoryStore) nameTaken(orgID uuid.UUID, name string, except uuid.UUID) bool {
	for id, category := range s.categories {
		if id != except && category.OrgID == orgID && category.Name == name {
			return true
		}
	}
	return false
}
