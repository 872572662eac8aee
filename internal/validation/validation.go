// Package validation checks identity fields before they reach the store.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UsernamePattern allows lower-case latin letters, digits, underscore and dot, 3-32 chars.
// Usernames are normalized with NormalizeIdentifier before matching.
var UsernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,32}$`)

const (
	// MinUsernameLen minimal username length
	MinUsernameLen = 3
	// MaxUsernameLen maximal username length
	MaxUsernameLen = 32
	// MinPasswordLen minimal password length
	MinPasswordLen = 8
	// MaxPasswordLen is the bcrypt input limit in bytes.
	MaxPasswordLen = 72
	// MaxFullNameLen maximal display name length in characters
	MaxFullNameLen = 100
)

// NormalizeIdentifier lower-cases and trims a username or email.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateUsername checks an already normalized username.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z), numbers (0-9), dots and underscores")
	}

	return nil
}

// ValidateEmail checks an already normalized email address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email is not a valid address")
	}

	return nil
}

// ValidatePassword checks the plaintext password before hashing.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	// bcrypt ignores everything past 72 bytes
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidateFullName checks the display name.
func ValidateFullName(fullName string) error {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return fmt.Errorf("full name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxFullNameLen {
		return fmt.Errorf("full name must not exceed %d characters", MaxFullNameLen)
	}

	return nil
}
