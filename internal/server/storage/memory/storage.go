// Package memory is an in-process identity store for local development and tests.
// State is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/storage"
)

// Storage keeps identities in a map guarded by a mutex.
type Storage struct {
	now   func() time.Time
	users map[string]*models.User // id -> user
	mu    sync.RWMutex
}

// New creates an empty store.
func New() *Storage {
	return &Storage{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

// CreateUser inserts a new identity.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return storage.ErrUserAlreadyExists
	}
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}

	stored := *user
	now := s.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.users[user.ID] = &stored

	return nil
}

// GetUserByID retrieves user by ID.
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// GetUserByLogin retrieves user by username or email.
func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return u.Username == login || u.Email == login
	})
}

// GetUserByUsername retrieves user by username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return u.Username == username
	})
}

func (s *Storage) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// UpdateProfile replaces display name and email.
func (s *Storage) UpdateProfile(ctx context.Context, userID, fullName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	for id, other := range s.users {
		if id != userID && other.Email == email {
			return storage.ErrUserAlreadyExists
		}
	}

	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = s.now()
	return nil
}

// UpdatePassword replaces the password digest.
func (s *Storage) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.mutate(userID, func(u *models.User) {
		u.PasswordHash = passwordHash
	})
}

// SetRefreshToken overwrites the stored refresh token.
func (s *Storage) SetRefreshToken(ctx context.Context, userID, token string) error {
	return s.mutate(userID, func(u *models.User) {
		u.RefreshToken = token
	})
}

// ClearRefreshToken removes the stored refresh token.
func (s *Storage) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.mutate(userID, func(u *models.User) {
		u.RefreshToken = ""
	})
}

// SwapRefreshToken replaces current with next atomically.
func (s *Storage) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || current == "" || u.RefreshToken != current {
		return storage.ErrRefreshTokenMismatch
	}

	u.RefreshToken = next
	u.UpdatedAt = s.now()
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op kept for parity with the persistent stores.
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) mutate(userID string, apply func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	apply(u)
	u.UpdatedAt = s.now()
	return nil
}

var _ storage.UserStorage = (*Storage)(nil)
