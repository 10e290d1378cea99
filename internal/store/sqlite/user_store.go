package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const userColumns = `user_id, org_id, role, username, email, first_name, last_name, created_at, updated_at`

// UserStore implements store.UserStore using SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new SQLite-backed user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create creates a new user in the database.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UserID,
		user.OrgID,
		user.Role.String(),
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		toMicros(user.CreatedAt),
		toMicros(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganisationNotFound
		}
		return fmt.Errorf("failed to create user: %w", err)
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
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
}

// GetByEmail retrieves a user by email address, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?)`, email)
}

// Update updates the names and contact details of a user. Role and organisation are never written.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE user_id = ?`,
		user.Username, user.Email, user.FirstName, user.LastName, toMicros(user.UpdatedAt), user.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectRow(result, store.ErrUserNotFound)
}

// Delete deletes a user, cascading to its agent record and sessions.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectRow(result, store.ErrUserNotFound)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user                 models.User
		role                 string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&user.UserID,
		&user.OrgID,
		&role,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = fromMicros(createdAt)
	user.UpdatedAt = fromMicros(updatedAt)
	return &user, nil
}
