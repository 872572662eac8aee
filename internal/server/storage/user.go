package storage

import (
	"context"

	"github.com/iudanet/vidtube/internal/models"
)

// UserStorage defines the identity persistence the authentication core needs.
// Implementations must be safe for concurrent use.
type UserStorage interface {
	// CreateUser inserts a new identity. PasswordHash must already be a digest.
	// Returns ErrUserAlreadyExists if username or email is taken
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves an identity by id
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByLogin retrieves an identity whose username or email equals login
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)

	// GetUserByUsername retrieves an identity by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateProfile replaces the display name and email
	// Returns ErrUserNotFound if user doesn't exist, ErrUserAlreadyExists on duplicate email
	UpdateProfile(ctx context.Context, userID, fullName, email string) error

	// UpdatePassword replaces the password digest
	// Returns ErrUserNotFound if user doesn't exist
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// SetRefreshToken unconditionally overwrites the stored refresh token
	// Returns ErrUserNotFound if user doesn't exist
	SetRefreshToken(ctx context.Context, userID, token string) error

	// SwapRefreshToken stores next only if the stored token still equals current
	// Returns ErrRefreshTokenMismatch if it does not (or the user is gone)
	SwapRefreshToken(ctx context.Context, userID, current, next string) error

	// ClearRefreshToken removes the stored refresh token
	// Returns ErrUserNotFound if user doesn't exist
	ClearRefreshToken(ctx context.Context, userID string) error

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}
