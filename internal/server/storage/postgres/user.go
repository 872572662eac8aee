package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/storage"
)

const selectUser = `SELECT id, username, email, full_name, password_hash, COALESCE(refresh_token, ''), created_at, updated_at FROM users `

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, createdAt, updatedAt,
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
	return s.getOne(ctx, selectUser+`WHERE id = $1`, userID)
}

// GetUserByLogin retrieves user by username or email
func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getOne(ctx, selectUser+`WHERE username = $1 OR email = $1 LIMIT 1`, login)
}

// GetUserByUsername retrieves user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getOne(ctx, selectUser+`WHERE username = $1`, username)
}

func (s *Storage) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}

	err := s.pool.QueryRow(ctx, query, args...).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateProfile replaces display name and email
func (s *Storage) UpdateProfile(ctx context.Context, userID, fullName, email string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET full_name = $1, email = $2, updated_at = now() WHERE id = $3`,
		fullName, email, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return expectRow(tag, storage.ErrUserNotFound)
}

// UpdatePassword replaces the password digest
func (s *Storage) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return expectRow(tag, storage.ErrUserNotFound)
}

// SetRefreshToken overwrites the stored refresh token
func (s *Storage) SetRefreshToken(ctx context.Context, userID, token string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	return expectRow(tag, storage.ErrUserNotFound)
}

// SwapRefreshToken replaces the stored refresh token only if it still equals current
func (s *Storage) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	if current == "" {
		return storage.ErrRefreshTokenMismatch
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = now() WHERE id = $2 AND refresh_token = $3`,
		next, userID, current,
	)
	if err != nil {
		return fmt.Errorf("failed to swap refresh token: %w", err)
	}

	return expectRow(tag, storage.ErrRefreshTokenMismatch)
}

// ClearRefreshToken removes the stored refresh token
func (s *Storage) ClearRefreshToken(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	return expectRow(tag, storage.ErrUserNotFound)
}

func expectRow(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ storage.UserStorage = (*Storage)(nil)
