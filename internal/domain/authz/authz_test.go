package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/core/appctx"
)

func actor(userID string, roles ...string) *appctx.Actor {
	return &appctx.Actor{UserID: userID, Roles: roles}
}

func TestRoleAuthorizer(t *testing.T) {
	ctx := context.Background()
	a := NewRoleAuthorizer()

	t.Run("manager may do everything", func(t *testing.T) {
		m := actor("u1", RoleManager)
		for _, action := range []string{
			ActionInvoiceCreate, ActionInvoiceCancel, ActionInvoiceDelete,
			ActionPaymentRegister, ActionPaymentConfirm, ActionPaymentVoid,
			ActionPaymentDelete, ActionReportPortfolio,
		} {
			assert.NoError(t, a.Authorize(ctx, m, action, nil), action)
		}
	})

	t.Run("seller registers on assigned invoices only", func(t *testing.T) {
		s := actor("seller-1", RoleSeller)

		assert.NoError(t, a.Authorize(ctx, s, ActionPaymentRegister,
			Env{"seller_id": "seller-1"}))

		err := a.Authorize(ctx, s, ActionPaymentRegister,
			Env{"seller_id": "seller-2"})
		assert.True(t, apperror.IsForbidden(err))

		// Unassigned invoice: no seller_id in the environment.
		err = a.Authorize(ctx, s, ActionPaymentRegister, Env{})
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("distributor registers on routed invoices", func(t *testing.T) {
		d := actor("dist-1", RoleDistributor)

		assert.NoError(t, a.Authorize(ctx, d, ActionPaymentRegister,
			Env{"distributor_id": "dist-1"}))
		assert.True(t, apperror.IsForbidden(
			a.Authorize(ctx, d, ActionPaymentRegister, Env{"seller_id": "dist-1"})))
	})

	t.Run("registrar deletes own payments in any state", func(t *testing.T) {
		s := actor("seller-1", RoleSeller)

		assert.NoError(t, a.Authorize(ctx, s, ActionPaymentDelete,
			Env{"registered_by": "seller-1", "payment_status": "registered"}))
		assert.NoError(t, a.Authorize(ctx, s, ActionPaymentDelete,
			Env{"registered_by": "seller-1", "payment_status": "confirmed"}))

		assert.True(t, apperror.IsForbidden(a.Authorize(ctx, s, ActionPaymentDelete,
			Env{"registered_by": "seller-2", "payment_status": "registered"})))
	})

	t.Run("confirm and void are manager only", func(t *testing.T) {
		s := actor("seller-1", RoleSeller)
		assert.True(t, apperror.IsForbidden(a.Authorize(ctx, s, ActionPaymentConfirm, nil)))
		assert.True(t, apperror.IsForbidden(a.Authorize(ctx, s, ActionPaymentVoid, nil)))
	})

	t.Run("sellers may read portfolio reports", func(t *testing.T) {
		s := actor("seller-1", RoleSeller)
		assert.NoError(t, a.Authorize(ctx, s, ActionReportPortfolio, nil))
	})
}

func TestCELAuthorizer(t *testing.T) {
	ctx := context.Background()

	t.Run("rules override the fallback", func(t *testing.T) {
		// Tighten confirmation to a named user regardless of role.
		a, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentConfirm: `actor_id == "treasurer"`,
		})
		require.NoError(t, err)

		assert.NoError(t, a.Authorize(ctx, actor("treasurer"), ActionPaymentConfirm, nil))

		// Even a manager is denied once the rule takes over.
		err = a.Authorize(ctx, actor("u1", RoleManager), ActionPaymentConfirm, nil)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("rules can inspect roles and env", func(t *testing.T) {
		a, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentRegister: `"seller" in roles && env["seller_id"] == actor_id`,
		})
		require.NoError(t, err)

		assert.NoError(t, a.Authorize(ctx, actor("s1", RoleSeller),
			ActionPaymentRegister, Env{"seller_id": "s1"}))
		assert.True(t, apperror.IsForbidden(a.Authorize(ctx, actor("s1", RoleSeller),
			ActionPaymentRegister, Env{"seller_id": "s2"})))
	})

	t.Run("actions without a rule fall back", func(t *testing.T) {
		a, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentConfirm: `false`,
		})
		require.NoError(t, err)

		assert.NoError(t, a.Authorize(ctx, actor("u1", RoleManager), ActionInvoiceCreate, nil))
		assert.True(t, apperror.IsForbidden(
			a.Authorize(ctx, actor("s1", RoleSeller), ActionInvoiceCreate, nil)))
	})

	t.Run("nil actor denies instead of panicking", func(t *testing.T) {
		a, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentConfirm: `actor_id == "treasurer"`,
		})
		require.NoError(t, err)

		assert.True(t, apperror.IsForbidden(a.Authorize(ctx, nil, ActionPaymentConfirm, nil)))
	})

	t.Run("compile errors surface at construction", func(t *testing.T) {
		_, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentConfirm: `actor_id ==`,
		})
		assert.Error(t, err)
	})

	t.Run("non-boolean rules are rejected", func(t *testing.T) {
		_, err := NewCELAuthorizer(NewRoleAuthorizer(), map[string]string{
			ActionPaymentConfirm: `actor_id`,
		})
		assert.Error(t, err)
	})
}
