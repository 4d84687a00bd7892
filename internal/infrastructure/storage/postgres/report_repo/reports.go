// Package report_repo provides the PostgreSQL implementation of the
// collections reporting queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"cartera/internal/core/types"
	"cartera/internal/domain/reports"
	"cartera/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ reports.Repository = (*Repo)(nil)

var hundred = decimal.NewFromInt(100)

// Repo implements reports.Repository. Every view is computed from the
// invoices and payments tables directly; cached invoice status is used only
// for counting, never for amounts.
type Repo struct {
	txm *postgres.TxManager
}

// New creates the report repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

// openInvoicesCTE joins each live invoice with the sum of its confirmed
// payment components. Cancelled invoices carry no receivable and are
// excluded.
const openInvoicesCTE = `
	WITH applied AS (
		SELECT invoice_id,
		       COALESCE(SUM(paid_amount), 0) AS paid,
		       COALESCE(SUM(paid_amount + discount + local_tax_withholding
		           + income_tax_withholding + note_adjustment), 0) AS applied
		FROM payments
		WHERE status = 'confirmed'
		GROUP BY invoice_id
	),
	open_invoices AS (
		SELECT i.id,
		       i.client_id,
		       i.seller_id,
		       i.number,
		       i.status,
		       i.due_date,
		       i.gross_total,
		       COALESCE(a.paid, 0) AS paid,
		       i.gross_total - COALESCE(a.applied, 0) AS outstanding
		FROM invoices i
		LEFT JOIN applied a ON a.invoice_id = i.id
		WHERE i.deletion_mark = false
		  AND i.status <> 'cancelled'
	)
`

// PortfolioSummary builds the headline receivables view.
func (r *Repo) PortfolioSummary(ctx context.Context, f reports.Filter, asOf time.Time) (*reports.PortfolioSummary, error) {
	where, args := scopeFilter(f, []any{asOf}, "")

	query := openInvoicesCTE + `
	SELECT COALESCE(SUM(gross_total), 0)                                   AS total_invoiced,
	       COALESCE(SUM(paid), 0)                                          AS total_collected,
	       COALESCE(SUM(outstanding), 0)                                   AS total_outstanding,
	       COALESCE(SUM(outstanding) FILTER (WHERE due_date < $1::date
	           AND outstanding > 0), 0)                                    AS overdue_outstanding
	FROM open_invoices` + where

	type row struct {
		TotalInvoiced      types.Money `db:"total_invoiced"`
		TotalCollected     types.Money `db:"total_collected"`
		TotalOutstanding   types.Money `db:"total_outstanding"`
		OverdueOutstanding types.Money `db:"overdue_outstanding"`
	}
	var totals row
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("portfolio summary: %w", err)
	}

	// The status counts never look at asOf, so the scope placeholders are
	// rendered against a fresh argument list.
	whereC, argsC := scopeFilter(f, nil, "")
	countQuery := openInvoicesCTE + `
	SELECT status, COUNT(*) AS count
	FROM open_invoices` + whereC + `
	GROUP BY status`

	type countRow struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	var countRows []countRow
	if err := pgxscan.Select(ctx, querier, &countRows, countQuery, argsC...); err != nil {
		return nil, fmt.Errorf("portfolio status counts: %w", err)
	}

	arrearsQuery := openInvoicesCTE + `
	SELECT COUNT(DISTINCT client_id) AS clients
	FROM open_invoices` + andWhere(where, "outstanding > 0 AND due_date < $1::date")

	type arrearsRow struct {
		Clients int `db:"clients"`
	}
	var arrears arrearsRow
	if err := pgxscan.Get(ctx, querier, &arrears, arrearsQuery, args...); err != nil {
		return nil, fmt.Errorf("portfolio arrears count: %w", err)
	}

	whereOI, argsOI := scopeFilter(f, nil, "oi")
	collectionQuery := openInvoicesCTE + `
	SELECT COALESCE(AVG(p.payment_date::date - i.issue_date::date), 0) AS avg_days
	FROM payments p
	JOIN invoices i ON i.id = p.invoice_id
	JOIN open_invoices oi ON oi.id = i.id` +
		andWhere(whereOI, "p.status = 'confirmed'")

	type avgRow struct {
		AvgDays float64 `db:"avg_days"`
	}
	var avg avgRow
	if err := pgxscan.Get(ctx, querier, &avg, collectionQuery, argsOI...); err != nil {
		return nil, fmt.Errorf("portfolio collection days: %w", err)
	}

	summary := &reports.PortfolioSummary{
		TotalInvoiced:      totals.TotalInvoiced,
		TotalCollected:     totals.TotalCollected,
		TotalOutstanding:   totals.TotalOutstanding,
		OverdueOutstanding: totals.OverdueOutstanding,
		CountByStatus:      make(map[string]int, len(countRows)),
		ClientsInArrears:   arrears.Clients,
		AvgCollectionDays:  avg.AvgDays,
		AsOf:               asOf,
	}
	for _, c := range countRows {
		summary.CountByStatus[c.Status] = c.Count
	}
	if totals.TotalOutstanding.IsPositive() {
		pct, _ := totals.OverdueOutstanding.
			Div(totals.TotalOutstanding).
			Mul(hundred).
			Round(2).
			Float64()
		summary.ArrearsPercent = pct
	}
	return summary, nil
}

// Aging groups outstanding balances into the standard delinquency ranges.
func (r *Repo) Aging(ctx context.Context, f reports.Filter, asOf time.Time) ([]reports.AgingBucket, error) {
	where, args := scopeFilter(f, []any{asOf}, "")

	query := openInvoicesCTE + `
	SELECT ($1::date - due_date::date) AS days_past_due,
	       outstanding
	FROM open_invoices` + andWhere(where, "outstanding > 0 AND due_date < $1::date")

	type row struct {
		DaysPastDue int         `db:"days_past_due"`
		Outstanding types.Money `db:"outstanding"`
	}
	var rows []row
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aging report: %w", err)
	}

	buckets := reports.AgingBuckets()
	for _, item := range rows {
		idx := reports.BucketIndex(item.DaysPastDue)
		buckets[idx].InvoiceCount++
		buckets[idx].Outstanding = buckets[idx].Outstanding.Add(item.Outstanding)
	}
	return buckets, nil
}

// ClientAccounts returns per-client receivable positions, most exposed
// first.
func (r *Repo) ClientAccounts(ctx context.Context, f reports.Filter, asOf time.Time) ([]reports.ClientAccount, error) {
	where, args := scopeFilter(f, []any{asOf}, "oi")

	query := openInvoicesCTE + `
	SELECT oi.client_id,
	       c.code AS client_code,
	       c.name AS client_name,
	       COUNT(*) AS invoice_count,
	       COALESCE(SUM(oi.outstanding), 0) AS outstanding,
	       COALESCE(SUM(oi.outstanding) FILTER (WHERE oi.due_date < $1::date), 0) AS overdue,
	       MIN(oi.due_date) FILTER (WHERE oi.outstanding > 0) AS oldest_due_at
	FROM open_invoices oi
	JOIN clients c ON c.id = oi.client_id` +
		andWhere(where, "oi.outstanding > 0") + `
	GROUP BY oi.client_id, c.code, c.name
	ORDER BY outstanding DESC`

	var accounts []reports.ClientAccount
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &accounts, query, args...); err != nil {
		return nil, fmt.Errorf("client accounts: %w", err)
	}
	return accounts, nil
}

// CollectionsDashboard summarizes confirmed payments in the window.
func (r *Repo) CollectionsDashboard(ctx context.Context, from, to time.Time) (*reports.CollectionsDashboard, error) {
	query := `
	SELECT method,
	       COUNT(*) AS count,
	       COALESCE(SUM(paid_amount), 0) AS collected
	FROM payments
	WHERE status = 'confirmed'
	  AND payment_date >= $1
	  AND payment_date <= $2
	GROUP BY method
	ORDER BY collected DESC`

	var byMethod []reports.MethodTotal
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &byMethod, query, from, to); err != nil {
		return nil, fmt.Errorf("collections by method: %w", err)
	}

	totalsQuery := `
	SELECT COALESCE(SUM(paid_amount), 0) AS collected,
	       COALESCE(SUM(discount + local_tax_withholding
	           + income_tax_withholding + note_adjustment), 0) AS discounts,
	       COUNT(*) AS count
	FROM payments
	WHERE status = 'confirmed'
	  AND payment_date >= $1
	  AND payment_date <= $2`

	type row struct {
		Collected types.Money `db:"collected"`
		Discounts types.Money `db:"discounts"`
		Count     int         `db:"count"`
	}
	var totals row
	if err := pgxscan.Get(ctx, querier, &totals, totalsQuery, from, to); err != nil {
		return nil, fmt.Errorf("collections totals: %w", err)
	}

	monthQuery := `
	SELECT COALESCE(SUM(paid_amount), 0) AS collected
	FROM payments
	WHERE status = 'confirmed'
	  AND date_trunc('month', payment_date) = date_trunc('month', $1::date)`

	type monthRow struct {
		Collected types.Money `db:"collected"`
	}
	var month monthRow
	if err := pgxscan.Get(ctx, querier, &month, monthQuery, to); err != nil {
		return nil, fmt.Errorf("collections month total: %w", err)
	}

	trendQuery := `
	SELECT payment_date::date AS day,
	       COUNT(*) AS count,
	       COALESCE(SUM(paid_amount), 0) AS collected
	FROM payments
	WHERE status = 'confirmed'
	  AND payment_date >= $1
	  AND payment_date <= $2
	GROUP BY payment_date::date
	ORDER BY day ASC`

	var trend []reports.DayTotal
	if err := pgxscan.Select(ctx, querier, &trend, trendQuery, from, to); err != nil {
		return nil, fmt.Errorf("collections trend: %w", err)
	}

	return &reports.CollectionsDashboard{
		From:           from,
		To:             to,
		PaymentCount:   totals.Count,
		TotalCollected: totals.Collected,
		TotalDiscounts: totals.Discounts,
		MonthCollected: month.Collected,
		ByMethod:       byMethod,
		Trend:          trend,
	}, nil
}

// scopeFilter renders the optional seller/client scope into a WHERE clause.
// alias qualifies the columns when the query joins tables that share them.
func scopeFilter(f reports.Filter, args []any, alias string) (string, []any) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	clause := ""
	add := func(cond string) {
		if clause == "" {
			clause = "\n\tWHERE " + cond
		} else {
			clause += " AND " + cond
		}
	}
	if f.SellerID != nil {
		args = append(args, *f.SellerID)
		add(fmt.Sprintf("%sseller_id = $%d", prefix, len(args)))
	}
	if f.ClientID != nil {
		args = append(args, *f.ClientID)
		add(fmt.Sprintf("%sclient_id = $%d", prefix, len(args)))
	}
	return clause, args
}

// andWhere merges a rendered WHERE clause with an extra condition.
func andWhere(where, cond string) string {
	if where == "" {
		return "\n\tWHERE " + cond
	}
	return where + " AND " + cond
}
