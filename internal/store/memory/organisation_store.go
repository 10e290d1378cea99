package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// OrganisationStore implements store.OrganisationStore using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
type OrganisationStore struct {
	mu sync.RWMutex

	organisations map[uuid.UUID]*models.Organisation // org_id -> Organisation
}

// NewOrganisationStore creates a new in-memory organisation store.
func NewOrganisationStore() *OrganisationStore {
	return &OrganisationStore{
		organisations: make(map[uuid.UUID]*models.Organisation),
	}
}

// Create creates a new organisation in memory.
func (s *OrganisationStore) Create(ctx context.Context, org *models.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organisations[org.OrgID]; exists {
		return store.ErrOrganisationAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *org
	s.organisations[org.OrgID] = &clone

	return nil
}

// Get retrieves an organisation by ID.
func (s *OrganisationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organisations[orgID]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}

	clone := *org
	return &clone, nil
}

// Update updates an existing organisation.
func (s *OrganisationStore) Update(ctx context.Context, org *models.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organisations[org.OrgID]; !exists {
		return store.ErrOrganisationNotFound
	}

	org.UpdatedAt = time.Now()

	clone := *org
	s.organisations[org.OrgID] = &clone

	return nil
}

// Delete removes an organisation.
func (s *OrganisationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organisations[orgID]; !exists {
		return store.ErrOrganisationNotFound
	}

	delete(s.organisations, orgID)
	return nil
}
