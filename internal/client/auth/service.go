// Package auth manages the client side of a session: it logs in, keeps the
// token pair in local storage, rotates it on expiry and revokes it on logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/vidtube/internal/client/api"
	"github.com/iudanet/vidtube/internal/client/storage"
	pkgapi "github.com/iudanet/vidtube/pkg/api"
)

var (
	// ErrNotAuthenticated means there is no local session.
	ErrNotAuthenticated = errors.New("not logged in, run 'vidtube login' first")

	// ErrSessionExpired means the server no longer accepts the stored refresh
	// token. The local session has been removed.
	ErrSessionExpired = errors.New("session expired, run 'vidtube login' again")
)

// APIClient is the subset of the HTTP client the service uses.
type APIClient interface {
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, accessToken string) (*pkgapi.User, error)
	Channel(ctx context.Context, accessToken, username string) (*pkgapi.ChannelResponse, error)
}

// Service keeps one session in an AuthStorage.
type Service struct {
	api    APIClient
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the session service.
func NewService(apiClient APIClient, store storage.AuthStorage, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates by username or email and stores the new session.
func (s *Service) Login(ctx context.Context, identifier, password string) (*storage.AuthData, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("username or email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	req := pkgapi.LoginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Username = identifier
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	auth := &storage.AuthData{
		Username:         resp.User.Username,
		UserID:           resp.User.ID,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		AccessExpiresAt:  expiresAt(resp.AccessToken),
		RefreshExpiresAt: expiresAt(resp.RefreshToken),
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("logged in", slog.String("user_id", auth.UserID))
	return auth, nil
}

// Refresh rotates the stored token pair. A rejected refresh token drops the
// local session, since the server has already invalidated it.
func (s *Service) Refresh(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	if auth.RefreshExpired(s.now()) {
		s.forget(ctx)
		return nil, ErrSessionExpired
	}

	resp, err := s.api.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.forget(ctx)
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return nil, err
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.AccessExpiresAt = expiresAt(resp.AccessToken)
	auth.RefreshExpiresAt = expiresAt(resp.RefreshToken)
	if auth.AccessExpiresAt == 0 && resp.ExpiresIn > 0 {
		auth.AccessExpiresAt = s.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix()
	}

	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Debug("session refreshed", slog.String("user_id", auth.UserID))
	return auth, nil
}

// Whoami returns the account of the stored session, refreshing once when
// the access token is expired or rejected.
func (s *Service) Whoami(ctx context.Context) (*pkgapi.User, error) {
	var user *pkgapi.User
	err := s.withAccessToken(ctx, func(token string) error {
		var err error
		user, err = s.api.Me(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Channel looks up a public profile. With a session the request is
// authenticated, so the server can tell whether it is the caller's own channel.
func (s *Service) Channel(ctx context.Context, username string) (*pkgapi.ChannelResponse, error) {
	var resp *pkgapi.ChannelResponse
	err := s.withAccessToken(ctx, func(token string) error {
		var err error
		resp, err = s.api.Channel(ctx, token, username)
		return err
	})
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrSessionExpired) {
		return s.api.Channel(ctx, "", username)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Logout revokes the session on the server and always removes it locally.
func (s *Service) Logout(ctx context.Context) error {
	if _, err := s.session(ctx); err != nil {
		return err
	}

	err := s.withAccessToken(ctx, func(token string) error {
		return s.api.Logout(ctx, token)
	})
	if err != nil && !errors.Is(err, ErrSessionExpired) {
		s.logger.Warn("server logout failed, removing local session anyway", slog.Any("error", err))
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Current returns the stored session without contacting the server.
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	return s.session(ctx)
}

// IsAuthenticated reports whether a usable local session exists.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.store.IsAuthenticated(ctx)
}

func (s *Service) withAccessToken(ctx context.Context, call func(token string) error) error {
	auth, err := s.session(ctx)
	if err != nil {
		return err
	}

	if auth.AccessExpired(s.now()) {
		if auth, err = s.Refresh(ctx); err != nil {
			return err
		}
	}

	err = call(auth.AccessToken)
	if !errors.Is(err, api.ErrUnauthorized) {
		return err
	}

	if auth, err = s.Refresh(ctx); err != nil {
		return err
	}
	return call(auth.AccessToken)
}

func (s *Service) session(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return auth, nil
}

func (s *Service) forget(ctx context.Context) {
	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		s.logger.Warn("failed to delete expired session", slog.Any("error", err))
	}
}

// expiresAt reads the exp claim without verifying the signature, which only
// the server can do. It returns 0 when the token carries no readable expiry.
func expiresAt(token string) int64 {
	claims := &gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
