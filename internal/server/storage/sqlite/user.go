package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/storage"
)

const selectUser = `
	SELECT id, username, email, full_name, password_hash, COALESCE(refresh_token, ''), created_at, updated_at
	FROM users
`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, password_hash, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?)
	`

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		createdAt,
		updatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.getOne(ctx, selectUser+`WHERE id = ?`, userID)
}

// GetUserByLogin retrieves user by username or email
func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getOne(ctx, selectUser+`WHERE username = ? OR email = ? LIMIT 1`, login, login)
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, selectUser+`WHERE username = ?`, username)
}

func (s *Storage) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateProfile replaces display name and email
func (s *Storage) UpdateProfile(ctx context.Context, userID, fullName, email string) error {
	query := `UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, fullName, email, time.Now().UTC(), userID)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return expectRow(result, storage.ErrUserNotFound)
}

// UpdatePassword replaces the password digest
func (s *Storage) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectRow(result, storage.ErrUserNotFound)
}

// SetRefreshToken overwrites the stored refresh token
func (s *Storage) SetRefreshToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, token, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	return expectRow(result, storage.ErrUserNotFound)
}

// SwapRefreshToken replaces the stored refresh token only if it still equals current
func (s *Storage) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	if current == "" {
		return storage.ErrRefreshTokenMismatch
	}

	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ? AND refresh_token = ?`

	result, err := s.db.ExecContext(ctx, query, next, time.Now().UTC(), userID, current)
	if err != nil {
		return fmt.Errorf("failed to swap refresh token: %w", err)
	}

	return expectRow(result, storage.ErrRefreshTokenMismatch)
}

// ClearRefreshToken removes the stored refresh token
func (s *Storage) ClearRefreshToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET refresh_token = NULL, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	return expectRow(result, storage.ErrUserNotFound)
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}

// isUniqueViolation relies on the driver reporting extended result codes,
// which modernc.org/sqlite enables on every connection.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	default:
		return false
	}
}

var _ storage.UserStorage = (*Storage)(nil)
