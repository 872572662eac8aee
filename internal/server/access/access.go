// Package access holds the ownership check applied by every mutating handler.
package access

import (
	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
)

// CanMutate reports whether identity may mutate a resource recorded as owned by ownerID.
// Ids are compared as exact strings; an absent identity or one without an id owns nothing.
func CanMutate(identity *models.PublicUser, ownerID string) bool {
	if identity == nil || identity.ID == "" {
		return false
	}
	return identity.ID == ownerID
}

// RequireOwner returns a Forbidden error when CanMutate is false.
func RequireOwner(identity *models.PublicUser, ownerID string) error {
	if !CanMutate(identity, ownerID) {
		return apperr.New(apperr.KindForbidden, "you are not allowed to modify this resource")
	}
	return nil
}
