package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/vidtube/internal/iocli"
	"github.com/iudanet/vidtube/internal/server/storage/sqlite"
)

func noEnv(string) (string, bool) { return "", false }

func run(t *testing.T, stdin string, lookup func(string) (string, bool), args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(iocli.New(strings.NewReader(stdin), &out), lookup)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserAdd_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "vidtube.db")

	out, err := run(t, "Alice Smith\npassword123\npassword123\n", noEnv,
		"useradd", "--db-dsn", dsn, "--log-level", "error", "--bcrypt-cost", "4",
		"--username", "Alice", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Full name: ")
	assert.Contains(t, out, "Created user alice")

	store, err := sqlite.New(context.Background(), dsn)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	user, err := store.GetUserByLogin(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", user.FullName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestUserAdd_PasswordMismatch(t *testing.T) {
	_, err := run(t, "password123\npassword124\n", noEnv,
		"useradd", "--db-driver", "memory", "--log-level", "error",
		"--username", "alice", "--email", "alice@example.com", "--full-name", "Alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

func TestMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "vidtube.db")

	_, err := run(t, "", noEnv, "migrate", "--db-dsn", dsn, "--log-level", "error")
	require.NoError(t, err)

	_, err = run(t, "", noEnv, "migrate", "--db-dsn", dsn, "--log-level", "error")
	assert.NoError(t, err)
}

func TestServe_RequiresSecrets(t *testing.T) {
	_, err := run(t, "", noEnv, "serve", "--db-driver", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
}

func TestInvalidEnvironment(t *testing.T) {
	env := func(key string) (string, bool) {
		if key == "ACCESS_TOKEN_EXPIRY" {
			return "forever", true
		}
		return "", false
	}

	_, err := run(t, "", env, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_EXPIRY")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", noEnv, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
}
