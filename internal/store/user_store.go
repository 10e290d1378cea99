package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore manages authenticated identities.
type UserStore interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists if the ID, email or username is taken.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email address (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update updates names and email of an existing user. Role and organisation are immutable.
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user.
	Delete(ctx context.Context, userID uuid.UUID) error
}
