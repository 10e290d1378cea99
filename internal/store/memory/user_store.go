package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// UserStore implements store.UserStore using in-memory storage.
type UserStore struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*models.User // user_id -> User
	usersByEmail map[string]uuid.UUID       // lower(email) -> user_id
	usernames    map[string]uuid.UUID       // username -> user_id
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]uuid.UUID),
		usernames:    make(map[string]uuid.UUID),
	}
}

// Create creates a new user in memory.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}

	email := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[email]; exists {
		return store.ErrUserAlreadyExists
	}
	if _, exists := s.usernames[user.Username]; exists {
		return store.ErrUserAlreadyExists
	}

	clone := *user
	s.users[user.UserID] = &clone
	s.usersByEmail[email] = user.UserID
	s.usernames[user.Username] = user.UserID

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by email address.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *s.users[userID]
	return &clone, nil
}

// Update updates an existing user.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.UserID]
	if !exists {
		return store.ErrUserNotFound
	}

	oldEmail := strings.ToLower(existing.Email)
	newEmail := strings.ToLower(user.Email)
	if oldEmail != newEmail {
		if _, taken := s.usersByEmail[newEmail]; taken {
			return store.ErrUserAlreadyExists
		}
	}
	if existing.Username != user.Username {
		if _, taken := s.usernames[user.Username]; taken {
			return store.ErrUserAlreadyExists
		}
	}

	// Role and organisation are immutable
	clone := *user
	clone.Role = existing.Role
	clone.OrgID = existing.OrgID
	clone.CreatedAt = existing.CreatedAt

	delete(s.usersByEmail, oldEmail)
	delete(s.usernames, existing.Username)
	s.users[user.UserID] = &clone
	s.usersByEmail[newEmail] = user.UserID
	s.usernames[clone.Username] = user.UserID

	return nil
}

// Delete removes a user.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return store.ErrUserNotFound
	}

	delete(s.usersByEmail, strings.ToLower(user.Email))
	delete(s.usernames, user.Username)
	delete(s.users, userID)

	return nil
}
