package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

// Sentinel errors for organisation store operations
var (
	ErrOrganisationNotFound      = errors.New("organisation not found")
	ErrOrganisationAlreadyExists = errors.New("organisation already exists")
)

// OrganisationStore defines the interface for organisation storage operations.
// Organisations are the tenants of the system; every other record hangs off one.
type OrganisationStore interface {
	// Create creates a new organisation in the store.
	// Returns ErrOrganisationAlreadyExists if an organisation with the same ID already exists.
	Create(ctx context.Context, org *models.Organisation) error

	// Get retrieves an organisation by ID.
	// Returns ErrOrganisationNotFound if the organisation doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organisation, error)

	// Update updates an existing organisation.
	// Returns ErrOrganisationNotFound if the organisation doesn't exist.
	Update(ctx context.Context, org *models.Organisation) error

	// Delete removes an organisation that owns no other records.
	// Returns ErrOrganisationNotFound if the organisation doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error
}
