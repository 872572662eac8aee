package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/vidtube/internal/crypto"
	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/internal/server/jwt"
	"github.com/iudanet/vidtube/internal/server/metrics"
	"github.com/iudanet/vidtube/internal/server/storage"
	"github.com/iudanet/vidtube/internal/server/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingStore records every write that reaches the store.
type countingStore struct {
	storage.UserStorage
	writes atomic.Int32
	getErr error
}

func (c *countingStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.UserStorage.GetUserByID(ctx, id)
}

func (c *countingStore) SetRefreshToken(ctx context.Context, id, token string) error {
	c.writes.Add(1)
	return c.UserStorage.SetRefreshToken(ctx, id, token)
}

func (c *countingStore) SwapRefreshToken(ctx context.Context, id, current, next string) error {
	c.writes.Add(1)
	return c.UserStorage.SwapRefreshToken(ctx, id, current, next)
}

func (c *countingStore) ClearRefreshToken(ctx context.Context, id string) error {
	c.writes.Add(1)
	return c.UserStorage.ClearRefreshToken(ctx, id)
}

type fixture struct {
	svc    *Service
	store  *countingStore
	tokens *jwt.Service
	user   *models.User
}

func tokenConfig() jwt.Config {
	return jwt.Config{
		AccessSecret:    []byte("access-secret-for-session-tests-0001"),
		RefreshSecret:   []byte("refresh-secret-for-session-tests-002"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher := crypto.NewPasswordHasher(bcrypt.MinCost)
	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	store := &countingStore{UserStorage: memory.New()}
	user := &models.User{
		ID:           "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: digest,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))

	tokens, err := jwt.NewService(tokenConfig())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:    New(logger, store, hasher, tokens, metrics.New()),
		store:  store,
		tokens: tokens,
		user:   user,
	}
}

func (f *fixture) storedToken(t *testing.T) string {
	t.Helper()
	u, err := f.store.GetUserByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	return u.RefreshToken
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("by username", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)

		assert.Equal(t, "u1", res.User.ID)
		claims, err := f.tokens.ParseAccessToken(res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID())
		assert.Equal(t, res.Tokens.RefreshToken, f.storedToken(t))
		assert.EqualValues(t, 1, f.store.writes.Load())
	})

	t.Run("by email with different case and spaces", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.svc.Login(ctx, "  Alice@Example.com ", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice", res.User.Username)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Login(ctx, "bob", "secret1")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Zero(t, f.store.writes.Load())
	})

	t.Run("empty identifier", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Login(ctx, "   ", "secret1")
		assert.ErrorIs(t, err, apperr.ErrBadRequest)
	})

	t.Run("wrong password leaves the stored token unchanged", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		assert.Equal(t, first.Tokens.RefreshToken, f.storedToken(t))
	})

	t.Run("second login invalidates the first session", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)
		_, err = f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, first.Tokens.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, "u1"))
	assert.Empty(t, f.storedToken(t))

	require.NoError(t, f.svc.Logout(ctx, "u1"), "logout must be idempotent")
	assert.Empty(t, f.storedToken(t))

	assert.NoError(t, f.svc.Logout(ctx, "gone"), "logout of a removed identity still succeeds")
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates and rejects reuse", func(t *testing.T) {
		f := newFixture(t)
		t1, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)

		t2, err := f.svc.Refresh(ctx, t1.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, t1.Tokens.RefreshToken, t2.RefreshToken)
		assert.Equal(t, t2.RefreshToken, f.storedToken(t))

		_, err = f.svc.Refresh(ctx, t1.Tokens.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		assert.Equal(t, "refresh token is expired or used", apperr.PublicMessage(err))
		assert.Equal(t, t2.RefreshToken, f.storedToken(t))
	})

	t.Run("missing token", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Refresh(ctx, "")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("expired token performs no store write", func(t *testing.T) {
		f := newFixture(t)

		stale, err := jwt.NewService(tokenConfig(), jwt.WithClock(func() time.Time {
			return time.Now().Add(-48 * time.Hour)
		}))
		require.NoError(t, err)
		expired, err := stale.IssueRefreshToken("u1")
		require.NoError(t, err)
		require.NoError(t, f.store.UserStorage.SetRefreshToken(ctx, "u1", expired))

		_, err = f.svc.Refresh(ctx, expired)
		assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
		assert.Equal(t, 401, apperr.Status(err))
		assert.Zero(t, f.store.writes.Load())
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, res.Tokens.AccessToken)
		assert.ErrorIs(t, err, apperr.ErrInvalidRefreshToken)
	})

	t.Run("identity removed", func(t *testing.T) {
		f := newFixture(t)
		orphan, err := f.tokens.IssueRefreshToken("ghost")
		require.NoError(t, err)

		_, err = f.svc.Refresh(ctx, orphan)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		f := newFixture(t)
		token, err := f.tokens.IssueRefreshToken("u1")
		require.NoError(t, err)
		f.store.getErr = errors.New("connection reset")

		_, err = f.svc.Refresh(ctx, token)
		assert.ErrorIs(t, err, apperr.ErrInternal)
		assert.Equal(t, 500, apperr.Status(err))
	})

	t.Run("after logout", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Login(ctx, "alice", "secret1")
		require.NoError(t, err)
		require.NoError(t, f.svc.Logout(ctx, "u1"))

		_, err = f.svc.Refresh(ctx, res.Tokens.RefreshToken)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	res, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	const workers = 16
	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		winning atomic.Value
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pair, err := f.svc.Refresh(ctx, res.Tokens.RefreshToken)
			if err == nil {
				wins.Add(1)
				winning.Store(pair.RefreshToken)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	assert.Equal(t, winning.Load(), f.storedToken(t))
}

func TestScenario_RegisterLoginRotateLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t1, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	t2, err := f.svc.Refresh(ctx, t1.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, t1.Tokens.RefreshToken, t2.RefreshToken)

	_, err = f.svc.Refresh(ctx, t1.Tokens.RefreshToken)
	assert.Equal(t, 401, apperr.Status(err))

	require.NoError(t, f.svc.Logout(ctx, "u1"))

	_, err = f.svc.Refresh(ctx, t2.RefreshToken)
	assert.Equal(t, 401, apperr.Status(err))
}
