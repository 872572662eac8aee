// Package storage defines how the command line client keeps its session.
package storage

import (
	"context"
	"time"
)

// AuthStorage persists the session of the single account the client is logged in as.
type AuthStorage interface {
	// SaveAuth replaces the stored session.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns ErrAuthNotFound when nobody is logged in.
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the session. Deleting a missing session returns ErrAuthNotFound.
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a session exists whose refresh token has not expired.
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData is the session as stored on disk.
type AuthData struct {
	Username         string `json:"username"`
	UserID           string `json:"user_id"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// AccessExpired reports whether the access token is past its lifetime at now.
func (a *AuthData) AccessExpired(now time.Time) bool {
	return a.AccessExpiresAt != 0 && !now.Before(time.Unix(a.AccessExpiresAt, 0))
}

// RefreshExpired reports whether the refresh token is past its lifetime at now.
func (a *AuthData) RefreshExpired(now time.Time) bool {
	return a.RefreshExpiresAt != 0 && !now.Before(time.Unix(a.RefreshExpiresAt, 0))
}
