package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/account"
	"github.com/iudanet/vidtube/internal/server/apperr"
	"github.com/iudanet/vidtube/internal/server/session"
	"github.com/iudanet/vidtube/pkg/api"
)

// Sessions is the session lifecycle used by the handlers.
type Sessions interface {
	Login(ctx context.Context, identifier, password string) (*session.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, presented string) (*session.TokenPair, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// Accounts is the account management used by the handlers.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (*models.PublicUser, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, caller *models.PublicUser, targetID string, in account.ProfileUpdate) (*models.PublicUser, error)
	Channel(ctx context.Context, username string, viewer *models.PublicUser) (*account.Channel, error)
}

// AuthHandler serves the /api/v1/users endpoints.
type AuthHandler struct {
	logger   *slog.Logger
	sessions Sessions
	accounts Accounts
	cookies  CookieConfig
}

// NewAuthHandler creates the users handler.
func NewAuthHandler(logger *slog.Logger, sessions Sessions, accounts Accounts, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		sessions: sessions,
		accounts: accounts,
		cookies:  cookies,
	}
}

// Register handles POST /api/v1/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, h.logger, toAPIUser(user), http.StatusCreated)
}

// Login handles POST /api/v1/users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Identifier(), req.Password)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.setTokens(w, res.Tokens)
	WriteJSON(w, h.logger, api.LoginResponse{
		User:         toAPIUser(res.User),
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, http.StatusOK)
}

// Logout handles POST /api/v1/users/logout. Requires the mandatory gate.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.cookies.clear(w, AccessTokenCookie)
	h.cookies.clear(w, RefreshTokenCookie)
	WriteJSON(w, h.logger, api.MessageResponse{Message: "user logged out"}, http.StatusOK)
}

// RefreshToken handles POST /api/v1/users/refresh-token.
// The token is read from the cookie first, then from the body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req api.RefreshRequest
		if err := decodeJSON(r, w, &req, true); err != nil {
			WriteError(w, r, h.logger, err)
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.setTokens(w, *pair)
	WriteJSON(w, h.logger, api.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(h.sessions.AccessTokenTTL().Seconds()),
	}, http.StatusOK)
}

// Me handles GET /api/v1/users/me. Requires the mandatory gate.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	WriteJSON(w, h.logger, toAPIUser(user), http.StatusOK)
}

// ChangePassword handles POST /api/v1/users/change-password. Requires the mandatory gate.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	var req api.ChangePasswordRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, h.logger, api.MessageResponse{Message: "password changed successfully"}, http.StatusOK)
}

// UpdateAccount handles PATCH /api/v1/users/{id}. Requires the mandatory gate;
// only the account owner may update it.
func (h *AuthHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, h.logger, apperr.ErrUnauthorized)
		return
	}

	var req api.UpdateAccountRequest
	if err := decodeJSON(r, w, &req, false); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), user, r.PathValue("id"), account.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, h.logger, toAPIUser(updated), http.StatusOK)
}

// Channel handles GET /api/v1/users/c/{username}. Works with the optional gate.
func (h *AuthHandler) Channel(w http.ResponseWriter, r *http.Request) {
	viewer, _ := UserFromContext(r.Context())

	ch, err := h.accounts.Channel(r.Context(), r.PathValue("username"), viewer)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	WriteJSON(w, h.logger, api.ChannelResponse{
		User:    toAPIUser(ch.User),
		IsOwner: ch.IsOwner,
	}, http.StatusOK)
}

func (h *AuthHandler) setTokens(w http.ResponseWriter, pair session.TokenPair) {
	h.cookies.set(w, AccessTokenCookie, pair.AccessToken, h.sessions.AccessTokenTTL())
	h.cookies.set(w, RefreshTokenCookie, pair.RefreshToken, h.sessions.RefreshTokenTTL())
}
