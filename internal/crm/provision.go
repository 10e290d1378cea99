package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

// SignupInput describes the organisor of a new organisation.
type SignupInput struct {
	OrgName   string
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Provisioner creates organisations together with their organisor and default categories.
type Provisioner struct {
	stores     store.Stores
	categories *CategoryService
	now        func() time.Time
}

// NewProvisioner creates a provisioner.
func NewProvisioner(stores store.Stores, opts ...Option) *Provisioner {
	cfg := newServiceConfig(opts)
	return &Provisioner{
		stores:     stores,
		categories: NewCategoryService(stores, opts...),
		now:        cfg.now,
	}
}

// Signup creates an organisation, its organisor user and the default categories.
func (p *Provisioner) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	verr := &ValidationError{}
	if in.Email == "" {
		verr.Add("email", "this field is required")
	}
	if in.Username == "" {
		verr.Add("username", "this field is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if in.OrgName == "" {
		in.OrgName = in.Username
	}

	now := p.now()
	org := &models.Organisation{
		OrgID:     uuid.Must(uuid.NewV7()),
		Name:      in.OrgName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.stores.Organisations.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organisation: %w", err)
	}

	user := &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		OrgID:     org.OrgID,
		Role:      models.RoleOrganisor,
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.stores.Users.Create(ctx, user); err != nil {
		// An organisation without its organisor is unreachable
		if delErr := p.stores.Organisations.Delete(ctx, org.OrgID); delErr != nil {
			log.Error().Err(delErr).Str("org_id", org.OrgID.String()).Msg("Failed to remove organisation after signup failed")
		}
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, fieldError("username", "a user with this username or email already exists")
		}
		return nil, fmt.Errorf("failed to create organisor: %w", err)
	}

	if err := p.categories.EnsureDefaults(ctx, org.OrgID); err != nil {
		return nil, err
	}

	telemetry.GetMetrics().SignupsTotal.Add(ctx, 1)

	log.Info().
		Str("org_id", org.OrgID.String()).
		Str("user_id", user.UserID.String()).
		Str("name", org.Name).
		Msg("Organisation provisioned")

	return user, nil
}
