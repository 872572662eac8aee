package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that username or email is already taken
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrRefreshTokenMismatch indicates that a conditional refresh token update
	// lost against a concurrent writer or presented a stale token
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
)
