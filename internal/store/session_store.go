package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// SessionStore manages server-side login sessions.
type SessionStore interface {
	// Create creates a new session.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionExpired if the session exists but has expired.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)

	// UpdateLastUsed records at as the last time the session was used.
	UpdateLastUsed(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	// Delete deletes a session by ID (logout).
	Delete(ctx context.Context, sessionID uuid.UUID) error

	// DeleteByUser deletes all sessions for a user (logout everywhere).
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteExpired deletes the sessions that expired before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
