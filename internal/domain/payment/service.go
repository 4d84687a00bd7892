package payment

import (
	"context"
	"fmt"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/appctx"
	"cartera/internal/core/id"
	"cartera/internal/core/tx"
	"cartera/internal/domain"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/invoice"
	"cartera/pkg/logger"
	"cartera/pkg/paycode"
)

// InvoiceEngine is the slice of the invoice service the payment engine needs.
// Satisfied by *invoice.Service.
type InvoiceEngine interface {
	GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error)
	AppliedTotals(ctx context.Context, invoiceID id.ID) (invoice.AppliedTotals, error)
	RecomputeLocked(ctx context.Context, inv *invoice.Invoice) (bool, error)
}

// Service provides business operations for payments.
type Service struct {
	repo       Repository
	invoices   InvoiceEngine
	txManager  tx.Manager
	authorizer authz.Authorizer
	audit      domain.AuditRecorder

	now func() time.Time
}

// NewService creates a new payment service. audit may be nil.
func NewService(repo Repository, invoices InvoiceEngine, txManager tx.Manager, authorizer authz.Authorizer, audit domain.AuditRecorder) *Service {
	return &Service{
		repo:       repo,
		invoices:   invoices,
		txManager:  txManager,
		authorizer: authorizer,
		audit:      audit,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Register captures a new payment in the registered state. The invoice
// balance ceiling is deliberately not checked here: registered payments have
// no financial effect, and the check belongs to Confirm where it runs under a
// row lock. Everything else is validated up front so bad captures are
// rejected immediately.
func (s *Service) Register(ctx context.Context, p *Payment) error {
	actor := appctx.ActorFrom(ctx)

	inv, err := s.invoices.GetByID(ctx, p.InvoiceID)
	if err != nil {
		return err
	}

	env := authz.Env{}
	if inv.SellerID != nil {
		env["seller_id"] = inv.SellerID.String()
	}
	if inv.DistributorID != nil {
		env["distributor_id"] = inv.DistributorID.String()
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionPaymentRegister, env); err != nil {
		return err
	}

	switch inv.Status {
	case invoice.StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeInvoiceCancelled,
			"cancelled invoices cannot receive payments").
			WithDetail("invoice_number", inv.Number)
	case invoice.StatusPaid:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"invoice is already fully paid").
			WithDetail("invoice_number", inv.Number)
	}

	now := s.now()
	p.Status = StatusRegistered
	p.RegisteredBy = actor.UserID
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.ValidateAt(ctx, now); err != nil {
		return err
	}
	if err := s.validateWithholding(ctx, p, inv); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		count, err := s.repo.CountByInvoice(ctx, p.InvoiceID)
		if err != nil {
			return fmt.Errorf("count invoice payments: %w", err)
		}
		p.Code = paycode.Format(inv.Number, count+1)

		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	s.record(ctx, "register", p)
	logger.Info(ctx, "payment registered",
		"code", p.Code, "invoice", inv.Number, "total", p.Total().String())
	return nil
}

// Confirm moves a registered payment to confirmed and applies it to the
// invoice. This is the single place the balance ceiling is enforced, inside a
// transaction that locks the invoice row so concurrent confirmations
// serialize and the second one sees the first one's effect.
func (s *Service) Confirm(ctx context.Context, paymentID id.ID) error {
	actor := appctx.ActorFrom(ctx)
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionPaymentConfirm, nil); err != nil {
		return err
	}

	var confirmed *Payment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != StatusRegistered {
			return apperror.NewBusinessRule(apperror.CodePaymentTerminal,
				"only registered payments can be confirmed").
				WithDetail("code", p.Code).
				WithDetail("status", string(p.Status))
		}

		inv, err := s.invoices.GetForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == invoice.StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeInvoiceCancelled,
				"cancelled invoices cannot receive payments").
				WithDetail("invoice_number", inv.Number)
		}

		if err := p.ValidateAt(ctx, s.now()); err != nil {
			return err
		}
		if err := s.validateWithholding(ctx, p, inv); err != nil {
			return err
		}

		totals, err := s.invoices.AppliedTotals(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("sum confirmed payments: %w", err)
		}
		balance, err := inv.OutstandingBalance(totals)
		if err != nil {
			return err
		}
		if p.Total().GreaterThan(balance) {
			excess := p.Total().Sub(balance)
			return apperror.NewBalanceExceeded(inv.Number, excess.String()).
				WithDetail("outstanding_balance", balance.String()).
				WithDetail("payment_total", p.Total().String())
		}

		now := s.now()
		p.Status = StatusConfirmed
		p.ConfirmedBy = actor.UserID
		p.ConfirmedAt = &now
		p.UpdatedAt = now
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}

		if _, err := s.invoices.RecomputeLocked(ctx, inv); err != nil {
			return err
		}

		confirmed = p
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, "confirm", confirmed)
	logger.Info(ctx, "payment confirmed",
		"code", confirmed.Code, "total", confirmed.Total().String())
	return nil
}

// Void marks a payment as voided. A confirmed payment stops counting toward
// the invoice, so the invoice status is recomputed in the same transaction.
func (s *Service) Void(ctx context.Context, paymentID id.ID, reason string) error {
	actor := appctx.ActorFrom(ctx)
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionPaymentVoid, nil); err != nil {
		return err
	}
	if reason == "" {
		return apperror.NewValidation("void reason is required")
	}

	var voided *Payment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusVoided {
			return apperror.NewBusinessRule(apperror.CodePaymentTerminal,
				"payment is already voided").
				WithDetail("code", p.Code)
		}
		wasConfirmed := p.Status == StatusConfirmed

		now := s.now()
		p.Status = StatusVoided
		p.VoidedBy = actor.UserID
		p.VoidedAt = &now
		p.VoidReason = reason
		p.UpdatedAt = now
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}

		if wasConfirmed {
			inv, err := s.invoices.GetForUpdate(ctx, p.InvoiceID)
			if err != nil {
				return err
			}
			if _, err := s.invoices.RecomputeLocked(ctx, inv); err != nil {
				return err
			}
		}

		voided = p
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, "void", voided)
	logger.Info(ctx, "payment voided", "code", voided.Code, "reason", reason)
	return nil
}

// Delete removes a payment row entirely. The invoice status is always
// recomputed afterwards, whatever state the payment was in: a confirmed
// payment's removal can move the invoice from paid back to partial or from
// partial back to pending.
func (s *Service) Delete(ctx context.Context, paymentID id.ID) error {
	actor := appctx.ActorFrom(ctx)

	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	env := authz.Env{
		"registered_by":  p.RegisteredBy,
		"payment_status": string(p.Status),
	}
	if err := s.authorizer.Authorize(ctx, actor, authz.ActionPaymentDelete, env); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		inv, err := s.invoices.GetForUpdate(ctx, locked.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, paymentID); err != nil {
			return err
		}

		_, err = s.invoices.RecomputeLocked(ctx, inv)
		return err
	})
	if err != nil {
		return err
	}

	s.record(ctx, "delete", p)
	logger.Info(ctx, "payment deleted", "code", p.Code, "status", string(p.Status))
	return nil
}

// GetByID retrieves a payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// GetByCode retrieves a payment by its human-facing code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Payment, error) {
	return s.repo.GetByCode(ctx, code)
}

// ListByInvoice returns every payment of the invoice, newest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// List retrieves payments with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payment], error) {
	return s.repo.List(ctx, filter)
}

// validateWithholding enforces the tax withholding rules that depend on the
// invoice and sibling payments: withholdings apply to electronic invoices
// only, and each withholding kind may appear on at most one confirmed payment
// per invoice.
func (s *Service) validateWithholding(ctx context.Context, p *Payment, inv *invoice.Invoice) error {
	if !p.HasLocalTaxWithholding() && !p.HasIncomeTaxWithholding() {
		return nil
	}

	if inv.Type != invoice.TypeElectronic {
		return apperror.NewValidation("tax withholdings apply to electronic invoices only").
			WithDetail("invoice_number", inv.Number).
			WithDetail("invoice_type", string(inv.Type))
	}

	if p.HasLocalTaxWithholding() {
		exists, err := s.repo.ConfirmedWithholdingExists(ctx, inv.ID, WithholdingLocal, p.ID)
		if err != nil {
			return fmt.Errorf("check local tax withholding: %w", err)
		}
		if exists {
			return apperror.NewBusinessRule(apperror.CodeWithholdingApplied,
				"a local tax withholding was already applied to this invoice").
				WithDetail("invoice_number", inv.Number)
		}
	}
	if p.HasIncomeTaxWithholding() {
		exists, err := s.repo.ConfirmedWithholdingExists(ctx, inv.ID, WithholdingIncome, p.ID)
		if err != nil {
			return fmt.Errorf("check income tax withholding: %w", err)
		}
		if exists {
			return apperror.NewBusinessRule(apperror.CodeWithholdingApplied,
				"an income tax withholding was already applied to this invoice").
				WithDetail("invoice_number", inv.Number)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, p *Payment) {
	if s.audit == nil || p == nil {
		return
	}
	if err := s.audit.Record(ctx, "payment", p.ID.String(), action, p); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}
