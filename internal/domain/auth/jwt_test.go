package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/domain/authz"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenService(t *testing.T) {
	t.Run("short secret rejected", func(t *testing.T) {
		_, err := NewTokenService("too-short", "cartera", time.Hour)
		assert.Error(t, err)
	})

	t.Run("zero ttl gets a default", func(t *testing.T) {
		ts, err := NewTokenService(testSecret, "cartera", 0)
		require.NoError(t, err)

		u := NewUser("ana@example.com", "Ana", []string{authz.RoleManager})
		token, err := ts.Issue(u)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		assert.NoError(t, err)
	})
}

func TestIssueVerify(t *testing.T) {
	ts, err := NewTokenService(testSecret, "cartera", time.Hour)
	require.NoError(t, err)

	u := NewUser("ana@example.com", "Ana", []string{authz.RoleManager, authz.RoleSeller})

	t.Run("round trip preserves the actor", func(t *testing.T) {
		token, err := ts.Issue(u)
		require.NoError(t, err)

		actor, err := ts.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, u.ID.String(), actor.UserID)
		assert.Equal(t, "ana@example.com", actor.Email)
		assert.Equal(t, "Ana", actor.Name)
		assert.Equal(t, []string{authz.RoleManager, authz.RoleSeller}, actor.Roles)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other, err := NewTokenService("ffffffffffffffffffffffffffffffff", "cartera", time.Hour)
		require.NoError(t, err)

		token, err := ts.Issue(u)
		require.NoError(t, err)

		_, err = other.Verify(token)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		other, err := NewTokenService(testSecret, "someone-else", time.Hour)
		require.NoError(t, err)

		token, err := other.Issue(u)
		require.NoError(t, err)

		_, err = ts.Verify(token)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		shortLived, err := NewTokenService(testSecret, "cartera", time.Nanosecond)
		require.NoError(t, err)

		token, err := shortLived.Issue(u)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = shortLived.Verify(token)
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ts.Verify("not.a.token")
		assert.Error(t, err)
	})
}
