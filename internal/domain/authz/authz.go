// Package authz decides whether an actor may perform a collections action.
//
// Two implementations exist: RoleAuthorizer hard-codes the back-office role
// matrix, and CELAuthorizer evaluates operator-supplied CEL expressions so
// deployments can tighten rules without a rebuild.
package authz

import (
	"context"

	"cartera/internal/core/appctx"
	"cartera/internal/core/apperror"
)

// Role names. An actor may hold several.
const (
	RoleManager     = "manager"
	RoleSeller      = "seller"
	RoleDistributor = "distributor"
)

// Actions guarded by the authorizer.
const (
	ActionInvoiceCreate   = "invoice.create"
	ActionInvoiceUpdate   = "invoice.update"
	ActionInvoiceCancel   = "invoice.cancel"
	ActionInvoiceDelete   = "invoice.delete"
	ActionInvoiceImport   = "invoice.import"
	ActionPaymentRegister = "payment.register"
	ActionPaymentConfirm  = "payment.confirm"
	ActionPaymentVoid     = "payment.void"
	ActionPaymentDelete   = "payment.delete"
	ActionReportPortfolio = "report.portfolio"
)

// Env carries the facts a rule may inspect beyond the actor itself:
// assignment of the invoice, who registered the payment, and similar.
type Env map[string]any

// Authorizer answers allow/deny for one actor, action, and environment.
type Authorizer interface {
	Authorize(ctx context.Context, actor *appctx.Actor, action string, env Env) error
}

// RoleAuthorizer implements the standard role matrix:
//
//   - managers may do everything;
//   - sellers may register payments on invoices assigned to them and manage
//     invoices of their own portfolio;
//   - distributors may register payments on invoices routed through them.
type RoleAuthorizer struct{}

func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

func (a *RoleAuthorizer) Authorize(ctx context.Context, actor *appctx.Actor, action string, env Env) error {
	if actor.HasRole(RoleManager) {
		return nil
	}

	switch action {
	case ActionPaymentRegister:
		if actor.HasRole(RoleSeller) && envEquals(env, "seller_id", actor.UserID) {
			return nil
		}
		if actor.HasRole(RoleDistributor) && envEquals(env, "distributor_id", actor.UserID) {
			return nil
		}

	case ActionPaymentDelete:
		// The registrar may remove their own captures, whatever state the
		// payment reached; deletion recomputes the invoice either way.
		if envEquals(env, "registered_by", actor.UserID) {
			return nil
		}

	case ActionReportPortfolio:
		// Sellers see their own portfolio slice.
		if actor.HasRole(RoleSeller) {
			return nil
		}
	}

	return apperror.NewForbidden("action not permitted for this role").
		WithDetail("action", action)
}

func envEquals(env Env, key, want string) bool {
	v, ok := env[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	return ok && s != "" && s == want
}
