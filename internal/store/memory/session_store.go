package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// SessionStore implements store.SessionStore using in-memory storage.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	s.sessions[session.SessionID] = &clone
	return nil
}

// Get returns a copy of the session, or ErrSessionExpired once it has expired.
func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	switch {
	case !ok:
		return nil, store.ErrSessionNotFound
	case session.IsExpired():
		return nil, store.ErrSessionExpired
	}

	clone := *session
	return &clone, nil
}

func (s *SessionStore) UpdateLastUsed(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return store.ErrSessionNotFound
	}
	if at.After(session.LastUsedAt) {
		session.LastUsedAt = at
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return store.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// DeleteByUser ends every session of a user, as on logout everywhere or agent removal.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.deleteWhere(func(session *models.Session) bool {
		return session.UserID == userID
	}), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return s.deleteWhere(func(session *models.Session) bool {
		return session.ExpiresAt.Before(before)
	}), nil
}

func (s *SessionStore) deleteWhere(match func(*models.Session) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if match(session) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
