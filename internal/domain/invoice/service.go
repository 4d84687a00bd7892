package invoice

import (
	"context"
	"fmt"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/core/tx"
	"cartera/internal/domain"
	"cartera/pkg/logger"
)

// StatusObserver is notified after an invoice's cached status changes.
// The alerting service subscribes to learn about overdue and fully-paid
// transitions; the core does not depend on what observers do.
type StatusObserver interface {
	InvoiceStatusChanged(ctx context.Context, inv *Invoice, from, to Status)
}

// BalanceView is the read-only financial snapshot exposed to the API and
// reporting layers.
type BalanceView struct {
	Number             string      `json:"number"`
	GrossTotal         types.Money `json:"grossTotal"`
	TotalPaid          types.Money `json:"totalPaid"`
	TotalDiscounts     types.Money `json:"totalDiscounts"`
	TotalApplied       types.Money `json:"totalApplied"`
	OutstandingBalance types.Money `json:"outstandingBalance"`
	Status             Status      `json:"status"`
	Overdue            bool        `json:"overdue"`
	DaysPastDue        int         `json:"daysPastDue"`
}

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Invoice]
	observers []StatusObserver

	// now is injectable for tests; defaults to time.Now
	now func() time.Time
}

// NewService creates a new invoice service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Invoice](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// Subscribe registers a status observer.
func (s *Service) Subscribe(obs StatusObserver) {
	s.observers = append(s.observers, obs)
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates and persists a new invoice.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if inv.Status == "" {
		inv.Status = StatusPending
	}
	if inv.DeliveryStatus == "" {
		inv.DeliveryStatus = DeliveryPending
	}

	if err := s.hooks.RunBeforeCreate(ctx, inv); err != nil {
		return err
	}

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByNumber(ctx, inv.Number)
	if err != nil {
		return fmt.Errorf("check invoice number: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("invoice", "number", inv.Number)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, inv); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "invoice created", "id", inv.ID, "number", inv.Number)
	return nil
}

// Update modifies invoice facts. Invoices that already have payments keep
// their financial facts frozen; only notes and assignments may change there,
// which Update enforces by re-running full validation and rejecting gross
// total, date, and client changes against the stored row.
func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	if err := s.hooks.RunBeforeUpdate(ctx, inv); err != nil {
		return err
	}

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	stored, err := s.repo.GetByID(ctx, inv.ID)
	if err != nil {
		return err
	}

	if stored.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeInvoiceCancelled,
			"cancelled invoices cannot be modified").
			WithDetail("invoice_number", stored.Number)
	}

	hasPayments, err := s.repo.HasPayments(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("check payments: %w", err)
	}
	if hasPayments {
		switch {
		case !stored.GrossTotal.Equal(inv.GrossTotal):
			return apperror.NewBusinessRule(apperror.CodeInvoiceHasPayments,
				"gross total cannot change once the invoice has payments").
				WithDetail("invoice_number", stored.Number)
		case !stored.IssueDate.Equal(inv.IssueDate) || !stored.DueDate.Equal(inv.DueDate):
			return apperror.NewBusinessRule(apperror.CodeInvoiceHasPayments,
				"invoice dates cannot change once the invoice has payments").
				WithDetail("invoice_number", stored.Number)
		case stored.ClientID != inv.ClientID:
			return apperror.NewBusinessRule(apperror.CodeInvoiceHasPayments,
				"client cannot change once the invoice has payments").
				WithDetail("invoice_number", stored.Number)
		}
	}

	// Status is derived, never set through Update.
	inv.Status = stored.Status

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, inv); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	return nil
}

// GetByID retrieves an invoice.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// GetByNumber retrieves an invoice by its external number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	return s.repo.GetByNumber(ctx, number)
}

// GetForUpdate loads an invoice with a row lock. Must be called inside a
// transaction; the payment engine uses it to serialize confirmations.
func (s *Service) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetForUpdate(ctx, invoiceID)
}

// AppliedTotals sums the invoice's confirmed payment components.
func (s *Service) AppliedTotals(ctx context.Context, invoiceID id.ID) (AppliedTotals, error) {
	return s.repo.AppliedTotals(ctx, invoiceID)
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

// Balance builds the financial snapshot for one invoice.
func (s *Service) Balance(ctx context.Context, invoiceID id.ID) (*BalanceView, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.AppliedTotals(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("sum confirmed payments: %w", err)
	}

	balance, err := inv.OutstandingBalance(totals)
	if err != nil {
		logger.Error(ctx, "invoice balance integrity violation",
			"invoice", inv.Number, "error", err)
		return nil, err
	}

	today := s.now()
	return &BalanceView{
		Number:             inv.Number,
		GrossTotal:         inv.GrossTotal,
		TotalPaid:          totals.Paid,
		TotalDiscounts:     totals.Discounts(),
		TotalApplied:       totals.Applied(),
		OutstandingBalance: balance,
		Status:             inv.Status,
		Overdue:            inv.IsOverdueAt(today),
		DaysPastDue:        inv.DaysPastDueAt(today),
	}, nil
}

// RecomputeStatus re-derives the invoice status from its confirmed payments
// and due date. Idempotent: the status is persisted only when it differs, and
// the returned flag reports whether a write happened.
func (s *Service) RecomputeStatus(ctx context.Context, invoiceID id.ID) (bool, error) {
	var changed bool
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		changed, err = s.recomputeLocked(ctx, inv)
		return err
	})
	return changed, err
}

// RecomputeLocked recomputes the status of an invoice already loaded under a
// row lock in the caller's transaction. The payment engine calls this after
// confirming, voiding, or deleting a payment.
func (s *Service) RecomputeLocked(ctx context.Context, inv *Invoice) (bool, error) {
	return s.recomputeLocked(ctx, inv)
}

func (s *Service) recomputeLocked(ctx context.Context, inv *Invoice) (bool, error) {
	// Cancelled is an external terminal state: recompute is a no-op.
	if inv.Status == StatusCancelled {
		return false, nil
	}

	totals, err := s.repo.AppliedTotals(ctx, inv.ID)
	if err != nil {
		return false, fmt.Errorf("sum confirmed payments: %w", err)
	}

	if _, err := inv.OutstandingBalance(totals); err != nil {
		// Bypassed invariant. Log loudly and surface; never silently correct.
		logger.Error(ctx, "invoice balance integrity violation",
			"invoice", inv.Number,
			"gross_total", inv.GrossTotal.String(),
			"applied", totals.Applied().String())
		return false, err
	}

	next := DetermineStatus(inv.GrossTotal, totals.Applied(), inv.IsPastDueAt(s.now()))
	if next == inv.Status {
		return false, nil
	}

	if err := s.repo.SetStatus(ctx, inv.ID, next); err != nil {
		return false, fmt.Errorf("set status: %w", err)
	}

	from := inv.Status
	inv.Status = next
	logger.Info(ctx, "invoice status changed",
		"invoice", inv.Number, "from", from, "to", next)

	for _, obs := range s.observers {
		obs.InvoiceStatusChanged(ctx, inv, from, next)
	}
	return true, nil
}

// SweepOverdue re-evaluates every invoice whose due date has passed and whose
// status is still pending or partial. Safe to run repeatedly: a second
// consecutive run finds no candidates and returns 0.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	count := 0
	for _, inv := range candidates {
		changed, err := s.RecomputeStatus(ctx, inv.ID)
		if err != nil {
			logger.Error(ctx, "sweep recompute failed",
				"invoice", inv.Number, "error", err)
			continue
		}
		if changed {
			count++
		}
	}

	logger.Info(ctx, "overdue sweep finished",
		"candidates", len(candidates), "changed", count)
	return count, nil
}

// Cancel marks an invoice as cancelled. Cancelled is terminal: recompute and
// the sweep skip it, and no payments can be registered afterwards.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		switch inv.Status {
		case StatusCancelled:
			return nil
		case StatusPaid:
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"paid invoices cannot be cancelled").
				WithDetail("invoice_number", inv.Number)
		}

		if err := s.repo.SetStatus(ctx, inv.ID, StatusCancelled); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		logger.Info(ctx, "invoice cancelled", "invoice", inv.Number)
		return nil
	})
}

// UpdateDelivery records the physical delivery state.
func (s *Service) UpdateDelivery(ctx context.Context, invoiceID id.ID, status DeliveryStatus, updatedBy string) error {
	switch status {
	case DeliveryPending, DeliveryDelivered, DeliveryReturned:
	default:
		return apperror.NewValidation("invalid delivery status").
			WithDetail("value", string(status))
	}
	return s.repo.SetDeliveryStatus(ctx, invoiceID, status, updatedBy)
}

// Delete removes an invoice that has no payments attached.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	hasPayments, err := s.repo.HasPayments(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("check payments: %w", err)
	}
	if hasPayments {
		return apperror.NewBusinessRule(apperror.CodeInvoiceHasPayments,
			"invoices with payments cannot be deleted").
			WithDetail("invoice_number", inv.Number)
	}

	if err := s.hooks.RunBeforeDelete(ctx, inv); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, invoiceID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, inv); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}
	return nil
}
