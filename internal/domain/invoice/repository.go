package invoice

import (
	"context"
	"time"

	"cartera/internal/core/id"
	"cartera/internal/domain"
)

// Repository defines persistence operations for invoices.
// The Postgres implementation lives in infrastructure/storage/postgres.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error

	// Update modifies an invoice with optimistic locking.
	Update(ctx context.Context, inv *Invoice) error

	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// GetForUpdate loads the invoice with a row lock. Confirmation-time
	// validation must hold this lock while re-summing confirmed payments,
	// otherwise two concurrent confirmations can together overdraw the
	// invoice.
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// SetStatus persists only the cached status field.
	SetStatus(ctx context.Context, invoiceID id.ID, status Status) error

	SetDeliveryStatus(ctx context.Context, invoiceID id.ID, status DeliveryStatus, updatedBy string) error

	// AppliedTotals sums the component amounts of the invoice's confirmed
	// payments. Registered and voided payments are excluded.
	AppliedTotals(ctx context.Context, invoiceID id.ID) (AppliedTotals, error)

	// HasPayments reports whether any payment rows (any status) reference
	// the invoice. Used to block deletion and import overwrites.
	HasPayments(ctx context.Context, invoiceID id.ID) (bool, error)

	// ListOverdueCandidates returns invoices with due date strictly before
	// today that are still pending or partial. Cancelled, paid, and
	// already-overdue invoices are not candidates.
	ListOverdueCandidates(ctx context.Context, today time.Time) ([]*Invoice, error)

	// ListUnpaidDueBetween returns pending, partial, and overdue invoices
	// whose due date falls in the closed interval. Backs the alerting scan.
	ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]*Invoice, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error)

	// Delete physically removes an invoice. Callers must check HasPayments
	// first; the foreign key constraint backs the check.
	Delete(ctx context.Context, invoiceID id.ID) error
}
