package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/domain/authz"
)

func TestUserValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid user", func(t *testing.T) {
		u := NewUser("ana@example.com", "Ana", []string{authz.RoleSeller})
		assert.NoError(t, u.Validate(ctx))
		assert.True(t, u.Active)
	})

	t.Run("bad email", func(t *testing.T) {
		u := NewUser("not-an-email", "Ana", []string{authz.RoleSeller})
		assert.True(t, apperror.IsValidation(u.Validate(ctx)))
	})

	t.Run("name required", func(t *testing.T) {
		u := NewUser("ana@example.com", "", []string{authz.RoleSeller})
		assert.True(t, apperror.IsValidation(u.Validate(ctx)))
	})

	t.Run("at least one role", func(t *testing.T) {
		u := NewUser("ana@example.com", "Ana", nil)
		assert.True(t, apperror.IsValidation(u.Validate(ctx)))
	})
}

func TestPassword(t *testing.T) {
	u := NewUser("ana@example.com", "Ana", []string{authz.RoleSeller})

	t.Run("too short rejected", func(t *testing.T) {
		err := u.SetPassword("short")
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
		assert.Empty(t, u.PasswordHash)
	})

	t.Run("set and check", func(t *testing.T) {
		require.NoError(t, u.SetPassword("correct horse battery"))
		assert.NotContains(t, u.PasswordHash, "correct")

		assert.True(t, u.CheckPassword("correct horse battery"))
		assert.False(t, u.CheckPassword("wrong password"))
		assert.False(t, u.CheckPassword(""))
	})
}

func TestHasRole(t *testing.T) {
	u := NewUser("ana@example.com", "Ana", []string{authz.RoleSeller, authz.RoleDistributor})
	assert.True(t, u.HasRole(authz.RoleSeller))
	assert.False(t, u.HasRole(authz.RoleManager))
}
