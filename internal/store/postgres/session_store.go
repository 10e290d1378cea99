package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// SessionStore implements store.SessionStore using PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create inserts a session. A session for an unknown user is ErrUserNotFound.
func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	// NULLIF keeps an absent client address out of the INET column
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, org_id, created_at, expires_at, last_used_at, user_agent, ip_address)
		VALUES (@session_id, @user_id, @org_id, @created_at, @expires_at, @last_used_at, @user_agent, NULLIF(@ip_address, '')::inet)`,
		pgx.NamedArgs{
			"session_id":   session.SessionID,
			"user_id":      session.UserID,
			"org_id":       session.OrgID,
			"created_at":   session.CreatedAt,
			"expires_at":   session.ExpiresAt,
			"last_used_at": session.LastUsedAt,
			"user_agent":   session.UserAgent,
			"ip_address":   session.IPAddress,
		})
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return fmt.Errorf("failed to create session: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", session.SessionID.String()).
		Str("user_id", session.UserID.String()).
		Msg("Created session")

	return nil
}

// Get returns a session, or ErrSessionExpired once it has expired.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := scanSession(s.pool.QueryRow(ctx, `
		SELECT session_id, user_id, org_id, created_at, expires_at, last_used_at,
			user_agent, COALESCE(host(ip_address), '')
		FROM sessions
		WHERE session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired() {
		return nil, store.ErrSessionExpired
	}

	return session, nil
}

// UpdateLastUsed records at as the last use of a session; last use never moves backwards.
func (s *SessionStore) UpdateLastUsed(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE sessions SET last_used_at = GREATEST(last_used_at, $2) WHERE session_id = $1`, sessionID, at)
	if err != nil {
		return fmt.Errorf("failed to update session last_used_at: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}
	return nil
}

// DeleteByUser ends every session of a user, as on logout everywhere or agent removal.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions by user: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("count", result.RowsAffected()).
		Msg("Deleted all sessions for user")

	return int(result.RowsAffected()), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.SessionID,
		&session.UserID,
		&session.OrgID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.LastUsedAt,
		&session.UserAgent,
		&session.IPAddress,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
