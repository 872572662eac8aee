package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/internal/server/handlers"
	"github.com/iudanet/vidtube/internal/server/jwt"
	"github.com/iudanet/vidtube/internal/server/metrics"
	"github.com/iudanet/vidtube/internal/server/storage"
)

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	ParseAccessToken(token string) (*jwt.AccessClaims, error)
}

// UserLookup resolves identities by id.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Authenticator resolves the identity behind an access token.
// The identity is always re-read from the store, so deleted accounts lose access
// even while their tokens are unexpired.
type Authenticator struct {
	logger  *slog.Logger
	tokens  AccessVerifier
	users   UserLookup
	metrics *metrics.Metrics
}

// NewAuthenticator creates the authorization gate. m may be nil.
func NewAuthenticator(logger *slog.Logger, tokens AccessVerifier, users UserLookup, m *metrics.Metrics) *Authenticator {
	return &Authenticator{
		logger:  logger,
		tokens:  tokens,
		users:   users,
		metrics: m,
	}
}

// RequireAuth rejects requests without a valid access token before they reach next.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			a.metrics.RecordGateRejection(metrics.GateRequired, reason(err))
			handlers.WriteError(w, r, a.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the identity when the request carries a valid access token
// and otherwise lets the request through anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.Identify(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	})
}

// Identify is the optional variant of the gate: ok is false when the request is anonymous
// for any reason.
func (a *Authenticator) Identify(r *http.Request) (*models.PublicUser, bool) {
	// no token is a plain anonymous visit, not a rejection
	if ExtractAccessToken(r) == "" {
		return nil, false
	}

	user, err := a.authenticate(r)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			a.logger.ErrorContext(r.Context(), "optional auth failed", slog.Any("error", err))
		}
		a.metrics.RecordGateRejection(metrics.GateOptional, reason(err))
		return nil, false
	}
	return user, true
}

func (a *Authenticator) authenticate(r *http.Request) (*models.PublicUser, error) {
	token := ExtractAccessToken(r)
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}

	claims, err := a.tokens.ParseAccessToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidAccessToken, apperr.ErrInvalidAccessToken.Message, err)
	}

	user, err := a.users.GetUserByID(r.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, apperr.ErrInvalidAccessToken.Message, err)
		}
		return nil, apperr.Internal("failed to resolve user", err)
	}

	a.logger.DebugContext(r.Context(), "user authenticated", slog.String("user_id", user.ID))
	return user.Public(), nil
}

// ExtractAccessToken returns the access token from the cookie or, failing that,
// from an "Authorization: Bearer" header.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(handlers.AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func reason(err error) string {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return "unknown_user"
	case apperr.KindOf(err) == apperr.KindInvalidAccessToken:
		return "invalid_token"
	case apperr.KindOf(err) == apperr.KindUnauthorized:
		return "missing_token"
	default:
		return "error"
	}
}
