package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// LeadStore implements store.LeadStore using in-memory storage.
type LeadStore struct {
	mu sync.RWMutex

	leads map[uuid.UUID]*models.Lead // lead_id -> Lead
}

// NewLeadStore creates a new in-memory lead store.
func NewLeadStore() *LeadStore {
	return &LeadStore{
		leads: make(map[uuid.UUID]*models.Lead),
	}
}

// Create creates a new lead in memory.
func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads[lead.LeadID] = cloneLead(lead)
	return nil
}

// Get retrieves a lead within the filter.
func (s *LeadStore) Get(ctx context.Context, filter store.LeadFilter, leadID uuid.UUID) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, exists := s.leads[leadID]
	if !exists || !filter.Matches(lead) {
		return nil, store.ErrLeadNotFound
	}

	return cloneLead(lead), nil
}

// List returns the leads within the filter, newest first.
func (s *LeadStore) List(ctx context.Context, filter store.LeadFilter) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Lead
	for _, lead := range s.leads {
		if filter.Matches(lead) {
			result = append(result, cloneLead(lead))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].LeadID.String() > result[j].LeadID.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Count returns the number of leads within the filter.
func (s *LeadStore) Count(ctx context.Context, filter store.LeadFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, lead := range s.leads {
		if filter.Matches(lead) {
			count++
		}
	}
	return count, nil
}

// Update persists the mutable fields of a lead.
func (s *LeadStore) Update(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.leads[lead.LeadID]
	if !exists || existing.OrgID != lead.OrgID {
		return store.ErrLeadNotFound
	}

	clone := cloneLead(lead)
	clone.CreatedAt = existing.CreatedAt
	// Once stamped the conversion time is never replaced
	if existing.ConvertedAt != nil {
		convertedAt := *existing.ConvertedAt
		clone.ConvertedAt = &convertedAt
		lead.ConvertedAt = &convertedAt
	}

	s.leads[lead.LeadID] = clone
	return nil
}

// Delete removes a lead within the filter.
func (s *LeadStore) Delete(ctx context.Context, filter store.LeadFilter, leadID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, exists := s.leads[leadID]
	if !exists || !filter.Matches(lead) {
		return store.ErrLeadNotFound
	}

	delete(s.leads, leadID)
	return nil
}

// unassignAgent clears the agent on every lead assigned to agentID.
func (s *LeadStore) unassignAgent(agentID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lead := range s.leads {
		if lead.AgentID != nil && *lead.AgentID == agentID {
			lead.AgentID = nil
		}
	}
}

// uncategorise clears the category on every lead in categoryID.
func (s *LeadStore) uncategorise(categoryID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, lead := range s.leads {
		if lead.CategoryID != nil && *lead.CategoryID == categoryID {
			lead.CategoryID = nil
		}
	}
}

// cloneLead deep-copies a lead so that pointer fields are not shared with callers.
func cloneLead(lead *models.Lead) *models.Lead {
	clone := *lead
	if lead.AgentID != nil {
		id := *lead.AgentID
		clone.AgentID = &id
	}
	if lead.CategoryID != nil {
		id := *lead.CategoryID
		clone.CategoryID = &id
	}
	if lead.ConvertedAt != nil {
		t := *lead.ConvertedAt
		clone.ConvertedAt = &t
	}
	return &clone
}
