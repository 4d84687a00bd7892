// Package reports builds the collections views: portfolio summary, aging
// buckets, per-client account statements, and the payments dashboard.
package reports

import (
	"context"
	"time"

	"cartera/internal/core/id"
	"cartera/internal/core/tx"
	"cartera/internal/core/types"
	"cartera/pkg/logger"
)

// AgingBucket is one delinquency range of the aging report.
type AgingBucket struct {
	Label        string      `json:"label"`
	FromDays     int         `json:"fromDays"`
	ToDays       int         `json:"toDays"` // -1 means open-ended
	InvoiceCount int         `json:"invoiceCount"`
	Outstanding  types.Money `json:"outstanding"`
}

// AgingBuckets returns the standard delinquency ranges, empty.
func AgingBuckets() []AgingBucket {
	return []AgingBucket{
		{Label: "0-30", FromDays: 0, ToDays: 30},
		{Label: "31-60", FromDays: 31, ToDays: 60},
		{Label: "61-90", FromDays: 61, ToDays: 90},
		{Label: "90+", FromDays: 91, ToDays: -1},
	}
}

// BucketIndex places a days-past-due value into the standard ranges.
func BucketIndex(daysPastDue int) int {
	switch {
	case daysPastDue <= 30:
		return 0
	case daysPastDue <= 60:
		return 1
	case daysPastDue <= 90:
		return 2
	default:
		return 3
	}
}

// PortfolioSummary is the headline view of the whole receivables book.
type PortfolioSummary struct {
	TotalInvoiced      types.Money `json:"totalInvoiced"`
	TotalCollected     types.Money `json:"totalCollected"`
	TotalOutstanding   types.Money `json:"totalOutstanding"`
	OverdueOutstanding types.Money `json:"overdueOutstanding"`

	CountByStatus map[string]int `json:"countByStatus"`

	// ClientsInArrears counts distinct clients carrying past-due balance.
	ClientsInArrears int `json:"clientsInArrears"`

	// AvgCollectionDays averages payment_date - issue_date over confirmed
	// payments. Zero when nothing was collected yet.
	AvgCollectionDays float64 `json:"avgCollectionDays"`

	// ArrearsPercent is overdue outstanding over total outstanding, 0-100.
	ArrearsPercent float64 `json:"arrearsPercent"`

	AsOf time.Time `json:"asOf"`
}

// ClientAccount is one client's slice of the receivables book.
type ClientAccount struct {
	ClientID     id.ID       `json:"clientId"`
	ClientCode   string      `json:"clientCode"`
	ClientName   string      `json:"clientName"`
	InvoiceCount int         `json:"invoiceCount"`
	Outstanding  types.Money `json:"outstanding"`
	Overdue      types.Money `json:"overdue"`
	OldestDueAt  *time.Time  `json:"oldestDueAt,omitempty"`
}

// MethodTotal is the collected amount of one payment method in a period.
type MethodTotal struct {
	Method    string      `json:"method"`
	Count     int         `json:"count"`
	Collected types.Money `json:"collected"`
}

// DayTotal is the collected amount of one day in the dashboard trend.
type DayTotal struct {
	Day       time.Time   `json:"day"`
	Count     int         `json:"count"`
	Collected types.Money `json:"collected"`
}

// CollectionsDashboard summarizes confirmed payments in a date window.
type CollectionsDashboard struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	PaymentCount   int           `json:"paymentCount"`
	TotalCollected types.Money   `json:"totalCollected"`
	TotalDiscounts types.Money   `json:"totalDiscounts"`

	// MonthCollected is the confirmed total of the calendar month the window
	// ends in, regardless of the window bounds.
	MonthCollected types.Money `json:"monthCollected"`

	ByMethod []MethodTotal `json:"byMethod"`

	// Trend holds per-day collected totals across the window, oldest first.
	// Days without payments are omitted.
	Trend []DayTotal `json:"trend"`
}

// Filter narrows portfolio reports to a seller's book or one client.
type Filter struct {
	SellerID *id.ID
	ClientID *id.ID
}

// Repository runs the aggregate queries behind each view.
type Repository interface {
	PortfolioSummary(ctx context.Context, f Filter, asOf time.Time) (*PortfolioSummary, error)
	Aging(ctx context.Context, f Filter, asOf time.Time) ([]AgingBucket, error)
	ClientAccounts(ctx context.Context, f Filter, asOf time.Time) ([]ClientAccount, error)
	CollectionsDashboard(ctx context.Context, from, to time.Time) (*CollectionsDashboard, error)
}

// Service exposes the reporting views. Every view runs inside a read-only
// transaction so the multi-query reports see one consistent snapshot.
type Service struct {
	repo Repository
	txm  tx.ReadOnlyManager
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository, txm tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txm: txm, now: time.Now}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Portfolio returns the headline receivables summary.
func (s *Service) Portfolio(ctx context.Context, f Filter) (*PortfolioSummary, error) {
	var out *PortfolioSummary
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.PortfolioSummary(ctx, f, s.now())
		return err
	})
	return out, err
}

// Aging returns outstanding balances grouped by days past due.
func (s *Service) Aging(ctx context.Context, f Filter) ([]AgingBucket, error) {
	var out []AgingBucket
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Aging(ctx, f, s.now())
		return err
	})
	return out, err
}

// Accounts returns per-client receivable positions, most exposed first.
func (s *Service) Accounts(ctx context.Context, f Filter) ([]ClientAccount, error) {
	var out []ClientAccount
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.ClientAccounts(ctx, f, s.now())
		return err
	})
	return out, err
}

// Dashboard summarizes collections over the window.
func (s *Service) Dashboard(ctx context.Context, from, to time.Time) (*CollectionsDashboard, error) {
	if to.Before(from) {
		from, to = to, from
	}
	var d *CollectionsDashboard
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.repo.CollectionsDashboard(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "collections dashboard built",
		"from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"),
		"payments", d.PaymentCount)
	return d, nil
}
