package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/judyrop/restaurant-backend/apperr"
)

func TestRoles(t *testing.T) {
	assert.Equal(t, RoleAnonymous, Principal{}.Role())
	assert.Equal(t, RoleUser, Principal{UserID: 3}.Role())
	assert.Equal(t, RoleAdmin, Principal{UserID: 1, Admin: true}.Role())
	assert.Equal(t, "admin", RoleAdmin.String())
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(Principal{UserID: 1, Admin: true}))
	assert.True(t, apperr.Is(RequireAdmin(Principal{UserID: 2}), apperr.KindForbidden))
	assert.True(t, apperr.Is(RequireAdmin(Principal{}), apperr.KindUnauthorized))
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := Principal{UserID: 7}
	stranger := Principal{UserID: 8}
	admin := Principal{UserID: 1, Admin: true}

	assert.NoError(t, RequireOwnerOrAdmin(owner, 7))
	assert.NoError(t, RequireOwnerOrAdmin(admin, 7))
	assert.True(t, apperr.Is(RequireOwnerOrAdmin(stranger, 7), apperr.KindForbidden))
	assert.True(t, apperr.Is(RequireOwnerOrAdmin(Principal{}, 7), apperr.KindUnauthorized))
	// anonymous never owns the zero owner
	assert.False(t, Principal{}.Owns(0))
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret")
	assert.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
