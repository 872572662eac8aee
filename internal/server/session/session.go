// Package session implements login, logout and refresh-token rotation.
//
// A refresh token is accepted only if it passes two independent checks in
// order: cryptographic verification, then an exact match against the value
// stored for the identity. The stored value is replaced with a conditional
// update, so of two concurrent refreshes with the same token only one wins.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/internal/server/jwt"
	"github.com/iudanet/vidtube/internal/server/metrics"
	"github.com/iudanet/vidtube/internal/server/storage"
	"github.com/iudanet/vidtube/internal/validation"
)

// PasswordVerifier checks a plaintext against a stored digest.
type PasswordVerifier interface {
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs and verifies the token pair.
type TokenIssuer interface {
	IssueAccessToken(user *models.User) (string, error)
	IssueRefreshToken(userID string) (string, error)
	ParseRefreshToken(token string) (*jwt.RefreshClaims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// TokenPair is what the client receives after login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is the sanitized identity plus a fresh token pair.
type LoginResult struct {
	User   *models.PublicUser
	Tokens TokenPair
}

// Service orchestrates the session lifecycle of identities.
type Service struct {
	logger  *slog.Logger
	store   storage.UserStorage
	hasher  PasswordVerifier
	tokens  TokenIssuer
	metrics *metrics.Metrics
}

// New creates a session service. m may be nil.
func New(logger *slog.Logger, store storage.UserStorage, hasher PasswordVerifier, tokens TokenIssuer, m *metrics.Metrics) *Service {
	return &Service{
		logger:  logger,
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
	}
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.tokens.AccessTokenTTL()
}

// RefreshTokenTTL returns the lifetime of issued refresh tokens.
func (s *Service) RefreshTokenTTL() time.Duration {
	return s.tokens.RefreshTokenTTL()
}

// Login authenticates by username or email and starts a new session,
// replacing any session the identity had elsewhere.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = validation.NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, apperr.New(apperr.KindBadRequest, "username or email is required")
	}

	user, err := s.store.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeUnknownUser)
			return nil, apperr.New(apperr.KindNotFound, "user does not exist")
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, apperr.Internal("failed to load user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
		s.logger.WarnContext(ctx, "login rejected", slog.String("user_id", user.ID))
		return nil, apperr.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, apperr.Internal("failed to persist refresh token", err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &LoginResult{User: user.Public(), Tokens: *pair}, nil
}

// Logout clears the stored refresh token regardless of which token the caller holds.
// It is idempotent and succeeds for identities that no longer exist.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.store.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		return apperr.Internal("failed to clear refresh token", err)
	}

	s.metrics.RecordLogout()
	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// Refresh rotates the session: the presented refresh token is exchanged for a
// new pair and stops being valid.
func (s *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		s.metrics.RecordRefresh(metrics.OutcomeInvalidToken)
		return nil, apperr.ErrUnauthorized
	}

	claims, err := s.tokens.ParseRefreshToken(presented)
	if err != nil {
		s.metrics.RecordRefresh(metrics.OutcomeInvalidToken)
		return nil, apperr.Wrap(apperr.KindInvalidRefreshToken, apperr.ErrInvalidRefreshToken.Message, err)
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.metrics.RecordRefresh(metrics.OutcomeInvalidToken)
			return nil, apperr.New(apperr.KindUnauthorized, "invalid refresh token")
		}
		s.metrics.RecordRefresh(metrics.OutcomeError)
		return nil, apperr.Internal("failed to load user", err)
	}

	if !sameToken(presented, user.RefreshToken) {
		s.metrics.RecordRefresh(metrics.OutcomeReuse)
		s.logger.WarnContext(ctx, "stale refresh token presented", slog.String("user_id", user.ID))
		return nil, errExpiredOrUsed()
	}

	pair, err := s.issuePair(user)
	if err != nil {
		s.metrics.RecordRefresh(metrics.OutcomeError)
		return nil, err
	}

	if err := s.store.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, storage.ErrRefreshTokenMismatch) {
			s.metrics.RecordRefresh(metrics.OutcomeReuse)
			s.logger.WarnContext(ctx, "concurrent refresh lost", slog.String("user_id", user.ID))
			return nil, errExpiredOrUsed()
		}
		s.metrics.RecordRefresh(metrics.OutcomeError)
		return nil, apperr.Internal("failed to rotate refresh token", err)
	}

	s.metrics.RecordRefresh(metrics.OutcomeSuccess)
	s.logger.DebugContext(ctx, "refresh token rotated", slog.String("user_id", user.ID))
	return pair, nil
}

func (s *Service) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperr.Internal("failed to issue access token", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperr.Internal("failed to issue refresh token", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func sameToken(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) == 1
}

func errExpiredOrUsed() error {
	return apperr.New(apperr.KindUnauthorized, "refresh token is expired or used")
}
