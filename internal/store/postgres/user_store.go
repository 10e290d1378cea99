package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const userColumns = `user_id, org_id, role, username, email, first_name, last_name, created_at, updated_at`

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{
		pool: pool,
	}
}

// Create creates a new user in the database.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		user.UserID,
		user.OrgID,
		user.Role,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganisationNotFound
		}
		return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("user_id", user.UserID.String()).
		Str("org_id", user.OrgID.String()).
		Str("role", user.Role.String()).
		Msg("Created user")

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return s.getOne(ctx, query, userID)
}

// GetByEmail retrieves a user by email address, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return s.getOne(ctx, query, email)
}

// Update updates the names and contact details of a user. Role and organisation are never written.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			username = $2,
			email = $3,
			first_name = $4,
			last_name = $5,
			updated_at = $6
		WHERE user_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		user.UserID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

// Delete deletes a user by ID.
// This will cascade-delete the user's agent record and sessions via FK constraint.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	log.Info().
		Str("user_id", userID.String()).
		Msg("Deleted user")

	return nil
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.UserID,
		&user.OrgID,
		&user.Role,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapPostgresError(err))
	}

	return &user, nil
}
