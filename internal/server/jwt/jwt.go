// Package jwt issues and verifies the signed tokens of the authentication core.
//
// Access and refresh tokens are signed with independent HMAC secrets and carry
// distinct audiences, so neither can be replayed in place of the other even if
// one secret leaks.
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/vidtube/internal/models"
)

const (
	// DefaultIssuer is the iss claim of every token.
	DefaultIssuer = "vidtube"

	audienceAccess  = "access"
	audienceRefresh = "refresh"
)

// Verification failures. Each wraps the underlying library error.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token is expired")
)

// ErrMissingSecret is returned by NewService when a signing key is empty.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// Config holds the two independent secret/ttl pairs.
type Config struct {
	Issuer          string
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// AccessClaims is the payload of an access token.
// The subject is the identity id.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	gojwt.RegisteredClaims
}

// UserID returns the identity id the token was issued for.
func (c *AccessClaims) UserID() string {
	return c.Subject
}

// RefreshClaims is the payload of a refresh token: only the identity id,
// a unique token id and the time window.
type RefreshClaims struct {
	gojwt.RegisteredClaims
}

// UserID returns the identity id the token was issued for.
func (c *RefreshClaims) UserID() string {
	return c.Subject
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service provides token generation and validation.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	now func() time.Time
	cfg Config
}

// NewService creates a token service. Both secrets are required.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

// IssueAccessToken signs a short-lived token carrying the identity's public claims.
func (s *Service) IssueAccessToken(user *models.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("cannot issue access token without identity id")
	}

	now := s.now()
	claims := AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			Audience:  gojwt.ClaimStrings{audienceAccess},
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.cfg.AccessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, nil
}

// IssueRefreshToken signs a long-lived token carrying only the identity id.
// Every token gets a random jti, so two tokens issued within the same second differ.
func (s *Service) IssueRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("cannot issue refresh token without identity id")
	}

	now := s.now()
	claims := RefreshClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			Audience:  gojwt.ClaimStrings{audienceRefresh},
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
		},
	}

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.cfg.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return token, nil
}

// ParseAccessToken verifies signature, expiry, issuer and audience of an access token.
func (s *Service) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.cfg.AccessSecret, audienceAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, expiry, issuer and audience of a refresh token.
// It says nothing about whether the token is still the one stored for the identity.
func (s *Service) ParseRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, s.cfg.RefreshSecret, audienceRefresh); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) parse(token string, claims gojwt.Claims, secret []byte, audience string) error {
	if token == "" {
		return ErrTokenMalformed
	}

	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.cfg.Issuer),
		gojwt.WithAudience(audience),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return classify(err)
	}
	if !parsed.Valid {
		return ErrTokenMalformed
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}

	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid), errors.Is(err, gojwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
}
