package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "alice", NormalizeIdentifier("  Alice "))
	assert.Equal(t, "alice@example.com", NormalizeIdentifier("ALICE@Example.com"))
	assert.Equal(t, "", NormalizeIdentifier("   "))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		errMsg   string
		wantErr  bool
	}{
		{name: "valid", username: "alice"},
		{name: "valid with digits", username: "alice123"},
		{name: "valid with underscore and dot", username: "alice_smith.tv"},
		{name: "minimal length", username: "abc"},
		{name: "maximal length", username: strings.Repeat("a", MaxUsernameLen)},
		{name: "empty", username: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "too short", username: "ab", wantErr: true, errMsg: "at least"},
		{name: "too long", username: strings.Repeat("a", MaxUsernameLen+1), wantErr: true, errMsg: "must not exceed"},
		{name: "upper case is not normalized", username: "Alice", wantErr: true, errMsg: "can only contain"},
		{name: "space", username: "alice smith", wantErr: true, errMsg: "can only contain"},
		{name: "dash", username: "alice-smith", wantErr: true, errMsg: "can only contain"},
		{name: "cyrillic", username: "алиса", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "alice@example.com"},
		{name: "valid subdomain", email: "alice@mail.example.org"},
		{name: "empty", email: "", wantErr: true},
		{name: "no at", email: "alice.example.com", wantErr: true},
		{name: "display name form", email: "Alice <alice@example.com>", wantErr: true},
		{name: "no domain", email: "alice@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "secret-password"},
		{name: "minimal length", password: strings.Repeat("x", MinPasswordLen)},
		{name: "maximal length", password: strings.Repeat("x", MaxPasswordLen)},
		{name: "empty", password: "", wantErr: true},
		{name: "blank", password: "           ", wantErr: true},
		{name: "too short", password: "short", wantErr: true},
		{name: "too long", password: strings.Repeat("x", MaxPasswordLen+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFullName(t *testing.T) {
	assert.NoError(t, ValidateFullName("Alice Smith"))
	assert.NoError(t, ValidateFullName("Алиса"))
	assert.Error(t, ValidateFullName(""))
	assert.Error(t, ValidateFullName("   "))
	assert.Error(t, ValidateFullName(strings.Repeat("a", MaxFullNameLen+1)))
}
