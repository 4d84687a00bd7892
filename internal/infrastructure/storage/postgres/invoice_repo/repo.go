// Package invoice_repo provides the PostgreSQL invoice repository.
package invoice_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/domain/invoice"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ invoice.Repository = (*Repo)(nil)

// Repo implements invoice.Repository on PostgreSQL.
type Repo struct {
	*postgres.BaseRepo[*invoice.Invoice]
}

// New creates the invoice repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(txm, "invoices", func() *invoice.Invoice {
			return &invoice.Invoice{}
		}),
	}
}

// GetByNumber retrieves an invoice by its external number.
func (r *Repo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	q := r.Select().
		Where(squirrel.Eq{"number": number}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q, number)
}

// ExistsByNumber checks for an invoice with the given number.
func (r *Repo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return r.ExistsWhere(ctx,
		squirrel.Eq{"number": number},
		squirrel.Eq{"deletion_mark": false},
	)
}

// SetStatus persists only the cached status column.
func (r *Repo) SetStatus(ctx context.Context, invoiceID id.ID, status invoice.Status) error {
	q := r.Builder().
		Update(r.TableName()).
		Set("status", status).
		Set("updated_at", time.Now()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set status: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.TableName(), invoiceID.String())
	}
	return nil
}

// SetDeliveryStatus persists the physical delivery state.
func (r *Repo) SetDeliveryStatus(ctx context.Context, invoiceID id.ID, status invoice.DeliveryStatus, updatedBy string) error {
	q := r.Builder().
		Update(r.TableName()).
		Set("delivery_status", status).
		Set("updated_by", updatedBy).
		Set("updated_at", time.Now()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set delivery status: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set delivery status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.TableName(), invoiceID.String())
	}
	return nil
}

// AppliedTotals sums component amounts over the invoice's confirmed payments.
func (r *Repo) AppliedTotals(ctx context.Context, invoiceID id.ID) (invoice.AppliedTotals, error) {
	q := r.Builder().
		Select(
			"COALESCE(SUM(paid_amount), 0)",
			"COALESCE(SUM(discount), 0)",
			"COALESCE(SUM(local_tax_withholding), 0)",
			"COALESCE(SUM(income_tax_withholding), 0)",
			"COALESCE(SUM(note_adjustment), 0)",
		).
		From("payments").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(squirrel.Eq{"status": "confirmed"})

	sql, args, err := q.ToSql()
	if err != nil {
		return invoice.AppliedTotals{}, fmt.Errorf("build totals query: %w", err)
	}

	var totals invoice.AppliedTotals
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(
		&totals.Paid,
		&totals.Discount,
		&totals.LocalTaxWithholding,
		&totals.IncomeTaxWithholding,
		&totals.NoteAdjustment,
	)
	if err != nil {
		return invoice.AppliedTotals{}, fmt.Errorf("sum confirmed payments: %w", err)
	}
	return totals, nil
}

// HasPayments reports whether any payment rows reference the invoice.
func (r *Repo) HasPayments(ctx context.Context, invoiceID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("payments").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check invoice payments: %w", err)
	}
	return true, nil
}

// ListOverdueCandidates returns pending and partial invoices already past
// their due date.
func (r *Repo) ListOverdueCandidates(ctx context.Context, today time.Time) ([]*invoice.Invoice, error) {
	q := r.Select().
		Where(squirrel.Eq{"status": []invoice.Status{invoice.StatusPending, invoice.StatusPartial}}).
		Where(squirrel.Lt{"due_date": truncateDay(today)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("due_date ASC")
	return r.FindMany(ctx, q)
}

// ListUnpaidDueBetween returns unpaid invoices whose due date falls in the
// closed interval.
func (r *Repo) ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]*invoice.Invoice, error) {
	q := r.Select().
		Where(squirrel.Eq{"status": []invoice.Status{
			invoice.StatusPending, invoice.StatusPartial, invoice.StatusOverdue,
		}}).
		Where(squirrel.GtOrEq{"due_date": truncateDay(from)}).
		Where(squirrel.LtOrEq{"due_date": truncateDay(to)}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("due_date ASC")
	return r.FindMany(ctx, q)
}

// List retrieves invoices with filtering and pagination.
func (r *Repo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := r.Select()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.SellerID != nil {
		q = q.Where(squirrel.Eq{"seller_id": *filter.SellerID})
	}
	if filter.DistributorID != nil {
		q = q.Where(squirrel.Eq{"distributor_id": *filter.DistributorID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"issue_date": truncateDay(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"issue_date": truncateDay(*filter.DateTo)})
	}

	return r.ListWith(ctx, q, filter, "issue_date DESC")
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
