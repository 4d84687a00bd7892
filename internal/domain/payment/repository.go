package payment

import (
	"context"
	"time"

	"cartera/internal/core/id"
	"cartera/internal/domain"
)

// Withholding component identifiers, as understood by
// ConfirmedWithholdingExists.
const (
	WithholdingLocal  = "local"
	WithholdingIncome = "income"
)

// Repository is the persistence port for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	GetByCode(ctx context.Context, code string) (*Payment, error)

	// GetForUpdate locks the payment row. Used by Confirm and Void to
	// serialize state transitions; must run inside a transaction.
	GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error)

	// CountByInvoice counts every payment ever recorded for the invoice,
	// regardless of state. Feeds the sequential suffix of new payment codes.
	CountByInvoice(ctx context.Context, invoiceID id.ID) (int, error)

	// ConfirmedWithholdingExists reports whether any confirmed payment of the
	// invoice other than excludeID already carries the given withholding
	// component ("local" or "income").
	ConfirmedWithholdingExists(ctx context.Context, invoiceID id.ID, component string, excludeID id.ID) (bool, error)

	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payment], error)

	// ListConfirmedBetween returns confirmed payments in the date window,
	// for the collections dashboard.
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*Payment, error)

	Delete(ctx context.Context, paymentID id.ID) error
}
