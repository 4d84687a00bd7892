// Package payment_repo provides the PostgreSQL payment repository.
package payment_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/domain/payment"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ payment.Repository = (*Repo)(nil)

// Repo implements payment.Repository on PostgreSQL.
type Repo struct {
	*postgres.BaseRepo[*payment.Payment]
}

// New creates the payment repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(txm, "payments", func() *payment.Payment {
			return &payment.Payment{}
		}),
	}
}

// GetByCode retrieves a payment by its human-facing code.
func (r *Repo) GetByCode(ctx context.Context, code string) (*payment.Payment, error) {
	q := r.Select().
		Where(squirrel.Eq{"code": code}).
		Limit(1)
	return r.FindOne(ctx, q, code)
}

// CountByInvoice counts every payment ever recorded for the invoice. Voided
// and deleted-then-recreated sequences keep moving forward because the count
// is taken at creation time inside the registering transaction.
func (r *Repo) CountByInvoice(ctx context.Context, invoiceID id.ID) (int, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(r.TableName()).
		Where(squirrel.Eq{"invoice_id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count invoice payments: %w", err)
	}
	return count, nil
}

// ConfirmedWithholdingExists checks whether another confirmed payment of the
// invoice already carries the given withholding component.
func (r *Repo) ConfirmedWithholdingExists(ctx context.Context, invoiceID id.ID, component string, excludeID id.ID) (bool, error) {
	var col string
	switch component {
	case payment.WithholdingLocal:
		col = "local_tax_withholding"
	case payment.WithholdingIncome:
		col = "income_tax_withholding"
	default:
		return false, fmt.Errorf("unknown withholding component %q", component)
	}

	return r.ExistsWhere(ctx,
		squirrel.Eq{"invoice_id": invoiceID},
		squirrel.Eq{"status": payment.StatusConfirmed},
		squirrel.Gt{col: 0},
		squirrel.NotEq{"id": excludeID},
	)
}

// ListByInvoice returns every payment of the invoice, newest first.
func (r *Repo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*payment.Payment, error) {
	q := r.Select().
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("created_at DESC")
	return r.FindMany(ctx, q)
}

// ListConfirmedBetween returns confirmed payments whose payment date falls in
// the window.
func (r *Repo) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*payment.Payment, error) {
	q := r.Select().
		Where(squirrel.Eq{"status": payment.StatusConfirmed}).
		Where(squirrel.GtOrEq{"payment_date": from}).
		Where(squirrel.LtOrEq{"payment_date": to}).
		OrderBy("payment_date ASC")
	return r.FindMany(ctx, q)
}

// List retrieves payments with filtering and pagination.
func (r *Repo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*payment.Payment], error) {
	q := r.Select()

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"code": "%" + filter.Search + "%"})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"payment_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"payment_date": *filter.DateTo})
	}

	return r.ListWith(ctx, q, filter, "created_at DESC")
}
