package models

import "time"

// User is the persisted identity record.
// PasswordHash and RefreshToken never leave the server: both are excluded
// from JSON and from every projection returned by Public.
type User struct {
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	ID           string    `json:"-"` // UUID
	Username     string    `json:"-"` // unique, lower-case
	Email        string    `json:"-"` // unique, lower-case
	FullName     string    `json:"-"`
	PasswordHash string    `json:"-"` // bcrypt digest, never plaintext
	RefreshToken string    `json:"-"` // the single valid refresh token, empty when logged out
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
}

// Public strips credentials from the record.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
