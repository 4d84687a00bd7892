package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/domain"
	"cartera/internal/domain/invoice"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type mockAlertRepo struct {
	alerts map[id.ID]*Alert
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{alerts: make(map[id.ID]*Alert)}
}

func (m *mockAlertRepo) Create(ctx context.Context, a *Alert) error {
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockAlertRepo) OpenExists(ctx context.Context, invoiceID id.ID, kind Kind) (bool, error) {
	for _, a := range m.alerts {
		if a.InvoiceID == invoiceID && a.Kind == kind && a.Status == StatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertRepo) GetByID(ctx context.Context, alertID id.ID) (*Alert, error) {
	a, ok := m.alerts[alertID]
	if !ok {
		return nil, apperror.NewNotFound("alert", alertID.String())
	}
	cp := *a
	return &cp, nil
}

func (m *mockAlertRepo) ListOpen(ctx context.Context, recipientID string) ([]*Alert, error) {
	var out []*Alert
	for _, a := range m.alerts {
		if a.Status != StatusOpen {
			continue
		}
		if recipientID != "" && !contains(a.RecipientIDs, recipientID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockAlertRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Alert], error) {
	return domain.ListResult[*Alert]{}, nil
}

func (m *mockAlertRepo) Resolve(ctx context.Context, alertID id.ID, at time.Time) error {
	a, ok := m.alerts[alertID]
	if !ok {
		return apperror.NewNotFound("alert", alertID.String())
	}
	a.Status = StatusResolved
	a.ResolvedAt = &at
	return nil
}

func (m *mockAlertRepo) ResolveByInvoice(ctx context.Context, invoiceID id.ID, at time.Time) (int, error) {
	n := 0
	for _, a := range m.alerts {
		if a.InvoiceID == invoiceID && a.Status == StatusOpen {
			a.Status = StatusResolved
			a.ResolvedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *mockAlertRepo) open() []*Alert {
	out, _ := m.ListOpen(context.Background(), "")
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// stubInvoiceRepo implements invoice.Repository for the alert scan, which
// only reads unpaid invoices by due date.
type stubInvoiceRepo struct {
	invoice.Repository
	unpaid []*invoice.Invoice
}

func (s *stubInvoiceRepo) ListUnpaidDueBetween(ctx context.Context, from, to time.Time) ([]*invoice.Invoice, error) {
	var out []*invoice.Invoice
	for _, inv := range s.unpaid {
		due := inv.DueDate
		if !due.Before(from) && !due.After(to) {
			out = append(out, inv)
		}
	}
	return out, nil
}

type stubDirectory struct {
	managers []string
}

func (s stubDirectory) ManagerIDs(ctx context.Context) ([]string, error) {
	return s.managers, nil
}

func unpaidInvoice(number string, due time.Time) *invoice.Invoice {
	return invoice.New(number, id.New(), invoice.TypeElectronic,
		due.AddDate(0, 0, -30), due, types.MustMoney("1000"))
}

func newTestService(unpaid []*invoice.Invoice, today time.Time) (*Service, *mockAlertRepo) {
	repo := newMockAlertRepo()
	svc := NewService(repo, &stubInvoiceRepo{unpaid: unpaid}, stubDirectory{managers: []string{"mgr-1", "mgr-2"}})
	svc.SetClock(func() time.Time { return today })
	return svc, repo
}

func TestScan(t *testing.T) {
	today := day("2026-03-10")

	t.Run("classifies overdue and due-soon", func(t *testing.T) {
		overdue := unpaidInvoice("FE-1", day("2026-03-01"))
		dueSoon := unpaidInvoice("FE-2", day("2026-03-13"))
		farOut := unpaidInvoice("FE-3", day("2026-04-20"))

		svc, repo := newTestService([]*invoice.Invoice{overdue, dueSoon, farOut}, today)

		created, err := svc.Scan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, created)

		byInvoice := make(map[id.ID]*Alert)
		for _, a := range repo.open() {
			byInvoice[a.InvoiceID] = a
		}
		require.Contains(t, byInvoice, overdue.ID)
		assert.Equal(t, KindOverdue, byInvoice[overdue.ID].Kind)
		assert.Equal(t, PriorityCritical, byInvoice[overdue.ID].Priority)
		assert.Contains(t, byInvoice[overdue.ID].Message, "9 day(s) past due")

		require.Contains(t, byInvoice, dueSoon.ID)
		assert.Equal(t, KindDueSoon, byInvoice[dueSoon.ID].Kind)
		assert.Equal(t, PriorityHigh, byInvoice[dueSoon.ID].Priority)

		assert.NotContains(t, byInvoice, farOut.ID)
	})

	t.Run("idempotent across runs", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		svc, repo := newTestService([]*invoice.Invoice{inv}, today)

		created, err := svc.Scan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		created, err = svc.Scan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, created)
		assert.Len(t, repo.open(), 1)
	})

	t.Run("due date farther than the window gets medium priority", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-15"))
		svc, repo := newTestService([]*invoice.Invoice{inv}, today)

		_, err := svc.Scan(context.Background())
		require.NoError(t, err)

		alerts := repo.open()
		require.Len(t, alerts, 1)
		assert.Equal(t, PriorityMedium, alerts[0].Priority)
	})

	t.Run("recipients are managers plus the assigned seller", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		sellerID := id.New()
		inv.SellerID = &sellerID

		svc, repo := newTestService([]*invoice.Invoice{inv}, today)
		_, err := svc.Scan(context.Background())
		require.NoError(t, err)

		alerts := repo.open()
		require.Len(t, alerts, 1)
		assert.ElementsMatch(t,
			[]string{"mgr-1", "mgr-2", sellerID.String()},
			alerts[0].RecipientIDs)
	})

	t.Run("a manager who is also the seller appears once", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		mgrSeller := id.New()
		inv.SellerID = &mgrSeller

		repo := newMockAlertRepo()
		svc := NewService(repo, &stubInvoiceRepo{unpaid: []*invoice.Invoice{inv}},
			stubDirectory{managers: []string{mgrSeller.String()}})
		svc.SetClock(func() time.Time { return today })

		_, err := svc.Scan(context.Background())
		require.NoError(t, err)

		alerts := repo.open()
		require.Len(t, alerts, 1)
		assert.Equal(t, []string{mgrSeller.String()}, alerts[0].RecipientIDs)
	})
}

func TestInvoiceStatusChanged(t *testing.T) {
	today := day("2026-03-10")

	t.Run("overdue transition raises one critical alert", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		inv.Status = invoice.StatusOverdue
		svc, repo := newTestService(nil, today)

		svc.InvoiceStatusChanged(context.Background(), inv, invoice.StatusPending, invoice.StatusOverdue)
		svc.InvoiceStatusChanged(context.Background(), inv, invoice.StatusPending, invoice.StatusOverdue)

		alerts := repo.open()
		require.Len(t, alerts, 1)
		assert.Equal(t, KindOverdue, alerts[0].Kind)
		assert.Equal(t, PriorityCritical, alerts[0].Priority)
	})

	t.Run("paid transition resolves open alerts", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		svc, repo := newTestService(nil, today)

		svc.InvoiceStatusChanged(context.Background(), inv, invoice.StatusPending, invoice.StatusOverdue)
		require.Len(t, repo.open(), 1)

		svc.InvoiceStatusChanged(context.Background(), inv, invoice.StatusOverdue, invoice.StatusPaid)
		assert.Empty(t, repo.open())
	})

	t.Run("partial transition is not an alert trigger", func(t *testing.T) {
		inv := unpaidInvoice("FE-1", day("2026-03-01"))
		svc, repo := newTestService(nil, today)

		svc.InvoiceStatusChanged(context.Background(), inv, invoice.StatusPending, invoice.StatusPartial)
		assert.Empty(t, repo.open())
	})
}

func TestResolve(t *testing.T) {
	today := day("2026-03-10")
	inv := unpaidInvoice("FE-1", day("2026-03-01"))
	svc, repo := newTestService([]*invoice.Invoice{inv}, today)

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)
	alerts := repo.open()
	require.Len(t, alerts, 1)

	require.NoError(t, svc.Resolve(context.Background(), alerts[0].ID))
	assert.Empty(t, repo.open())

	stored, err := repo.GetByID(context.Background(), alerts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
}
