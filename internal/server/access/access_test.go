package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/vidtube/internal/models"
	"github.com/iudanet/vidtube/internal/server/apperr"
)

func TestCanMutate(t *testing.T) {
	const id = "5c1f0f3e-8a52-4d0c-9a4e-1f1c2b3d4e5f"

	tests := []struct {
		identity *models.PublicUser
		name     string
		ownerID  string
		want     bool
	}{
		{name: "owner", identity: &models.PublicUser{ID: id}, ownerID: id, want: true},
		{name: "other owner", identity: &models.PublicUser{ID: id}, ownerID: "6d2f0f3e-8a52-4d0c-9a4e-1f1c2b3d4e5f"},
		{name: "case differs", identity: &models.PublicUser{ID: id}, ownerID: "5C1F0F3E-8A52-4D0C-9A4E-1F1C2B3D4E5F"},
		{name: "surrounding whitespace", identity: &models.PublicUser{ID: id}, ownerID: " " + id},
		{name: "numeric looking ids", identity: &models.PublicUser{ID: "42"}, ownerID: "042"},
		{name: "nil identity", identity: nil, ownerID: id},
		{name: "empty ids", identity: &models.PublicUser{}, ownerID: ""},
		{name: "empty owner", identity: &models.PublicUser{ID: id}, ownerID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanMutate(tt.identity, tt.ownerID))
		})
	}
}

func TestRequireOwner(t *testing.T) {
	user := &models.PublicUser{ID: "u1"}

	assert.NoError(t, RequireOwner(user, "u1"))

	err := RequireOwner(user, "u2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, 403, apperr.Status(err))
}
