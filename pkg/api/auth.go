// Package api holds the JSON bodies exchanged between the server and its clients.
package api

import "time"

// RegisterRequest is the body of POST /api/v1/users/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/v1/users/login.
// Either Username or Email identifies the account.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Identifier returns whichever of Username and Email is set, username first.
func (r LoginRequest) Identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// RefreshRequest is the optional body of POST /api/v1/users/refresh-token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the body of POST /api/v1/users/change-password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateAccountRequest is the body of PATCH /api/v1/users/{id}
type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// User is the public projection of an account.
// It never carries the password hash or the refresh token.
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by a successful refresh
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}

// ChannelResponse is the public profile of an account as seen by the viewer
type ChannelResponse struct {
	User
	IsOwner bool `json:"isOwner"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by GET /api/v1/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`             // HTTP status text
	Message string `json:"message,omitempty"` // safe to show to the user
}
