// Package alert_repo provides the PostgreSQL alert repository.
package alert_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"cartera/internal/core/id"
	"cartera/internal/domain"
	"cartera/internal/domain/alert"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ alert.Repository = (*Repo)(nil)

// Repo implements alert.Repository on PostgreSQL. Recipient ids are stored
// in a text[] column.
type Repo struct {
	*postgres.BaseRepo[*alert.Alert]
}

// New creates the alert repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(txm, "alerts", func() *alert.Alert {
			return &alert.Alert{}
		}),
	}
}

// OpenExists checks for an open alert of the kind on the invoice.
func (r *Repo) OpenExists(ctx context.Context, invoiceID id.ID, kind alert.Kind) (bool, error) {
	return r.ExistsWhere(ctx,
		squirrel.Eq{"invoice_id": invoiceID},
		squirrel.Eq{"kind": kind},
		squirrel.Eq{"status": alert.StatusOpen},
	)
}

// ListOpen returns open alerts, optionally narrowed to one recipient,
// most urgent first.
func (r *Repo) ListOpen(ctx context.Context, recipientID string) ([]*alert.Alert, error) {
	q := r.Select().
		Where(squirrel.Eq{"status": alert.StatusOpen}).
		OrderBy(
			"CASE priority WHEN 'critical' THEN 0 WHEN 'high' THEN 1 ELSE 2 END",
			"created_at ASC",
		)
	if recipientID != "" {
		q = q.Where(squirrel.Expr("? = ANY(recipient_ids)", recipientID))
	}
	return r.FindMany(ctx, q)
}

// List retrieves alerts with filtering and pagination.
func (r *Repo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*alert.Alert], error) {
	q := r.Select()

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"invoice_number": "%" + filter.Search + "%"})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	return r.ListWith(ctx, q, filter, "created_at DESC")
}

// Resolve closes one alert.
func (r *Repo) Resolve(ctx context.Context, alertID id.ID, at time.Time) error {
	q := r.Builder().
		Update(r.TableName()).
		Set("status", alert.StatusResolved).
		Set("resolved_at", at).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": alertID}).
		Where(squirrel.Eq{"status": alert.StatusOpen})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build resolve: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	return nil
}

// ResolveByInvoice closes every open alert of the invoice and returns the
// count.
func (r *Repo) ResolveByInvoice(ctx context.Context, invoiceID id.ID, at time.Time) (int, error) {
	q := r.Builder().
		Update(r.TableName()).
		Set("status", alert.StatusResolved).
		Set("resolved_at", at).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(squirrel.Eq{"status": alert.StatusOpen})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build resolve: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve invoice alerts: %w", err)
	}
	return int(result.RowsAffected()), nil
}
