package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// SessionStore implements store.SessionStore using SQLite.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SQLite-backed session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create creates a new session in the database.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			session_id, user_id, org_id,
			created_at, expires_at, last_used_at,
			user_agent, ip_address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionID,
		session.UserID,
		session.OrgID,
		toMicros(session.CreatedAt),
		toMicros(session.ExpiresAt),
		toMicros(session.LastUsedAt),
		session.UserAgent,
		session.IPAddress,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug().
		Str("session_id", session.SessionID.String()).
		Str("user_id", session.UserID.String()).
		Msg("Created session")

	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	var (
		session                          models.Session
		createdAt, expiresAt, lastUsedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, org_id, created_at, expires_at, last_used_at, user_agent, ip_address
		FROM sessions
		WHERE session_id = ?`, sessionID,
	).Scan(
		&session.SessionID,
		&session.UserID,
		&session.OrgID,
		&createdAt,
		&expiresAt,
		&lastUsedAt,
		&session.UserAgent,
		&session.IPAddress,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.CreatedAt = fromMicros(createdAt)
	session.ExpiresAt = fromMicros(expiresAt)
	session.LastUsedAt = fromMicros(lastUsedAt)

	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}

	return &session, nil
}

// UpdateLastUsed records at as the last use of a session.
func (s *SessionStore) UpdateLastUsed(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_used_at = MAX(last_used_at, ?) WHERE session_id = ?`,
		toMicros(at), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session last_used_at: %w", err)
	}

	return expectRow(result, store.ErrSessionNotFound)
}

// Delete deletes a session by ID (logout).
func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return expectRow(result, store.ErrSessionNotFound)
}

// DeleteByUser deletes all sessions for a user (logout everywhere).
func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return int(n), nil
}

// DeleteExpired deletes the sessions that expired before the given time.
func (s *SessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, toMicros(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if n > 0 {
		log.Info().Int64("count", n).Msg("Deleted expired sessions")
	}

	return int(n), nil
}
