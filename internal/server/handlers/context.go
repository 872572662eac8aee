package handlers

import (
	"context"

	"github.com/iudanet/vidtube/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a copy of ctx carrying the authenticated identity.
func WithUser(ctx context.Context, user *models.PublicUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the identity attached by the authorization gate.
// ok is false for anonymous requests.
func UserFromContext(ctx context.Context) (user *models.PublicUser, ok bool) {
	user, ok = ctx.Value(userKey).(*models.PublicUser)
	return user, ok && user != nil
}
