package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var ErrLeadNotFound = errors.New("lead not found")

// LeadFilter narrows lead queries. OrgID is always required; every other
// field further restricts the set when set.
type LeadFilter struct {
	OrgID uuid.UUID

	// AgentID restricts to leads assigned to this agent.
	AgentID *uuid.UUID

	// Assigned restricts to assigned (true) or unassigned (false) leads.
	Assigned *bool

	// CategoryID restricts to leads in this category.
	CategoryID *uuid.UUID

	// Uncategorised restricts to leads without a category.
	Uncategorised bool
}

// Matches reports whether a lead falls within the filter. Backends that
// filter in process use this so they agree with the SQL backends.
func (f LeadFilter) Matches(lead *models.Lead) bool {
	if lead.OrgID != f.OrgID {
		return false
	}
	if f.AgentID != nil && (lead.AgentID == nil || *lead.AgentID != *f.AgentID) {
		return false
	}
	if f.Assigned != nil && lead.IsAssigned() != *f.Assigned {
		return false
	}
	if f.CategoryID != nil && (lead.CategoryID == nil || *lead.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Uncategorised && lead.CategoryID != nil {
		return false
	}
	return true
}

// LeadStore manages leads.
type LeadStore interface {
	// Create creates a lead.
	Create(ctx context.Context, lead *models.Lead) error

	// Get retrieves a lead within the filter.
	// Returns ErrLeadNotFound if it does not exist or falls outside the filter.
	Get(ctx context.Context, filter LeadFilter, leadID uuid.UUID) (*models.Lead, error)

	// List returns all leads within the filter, newest first.
	List(ctx context.Context, filter LeadFilter) ([]*models.Lead, error)

	// Count returns the number of leads within the filter.
	Count(ctx context.Context, filter LeadFilter) (int, error)

	// Update persists the mutable fields of a lead. The organisation is never
	// written, and ConvertedAt is only written when not already set.
	// Returns ErrLeadNotFound if no lead matches both LeadID and OrgID.
	Update(ctx context.Context, lead *models.Lead) error

	// Delete removes a lead within the filter.
	Delete(ctx context.Context, filter LeadFilter, leadID uuid.UUID) error
}
