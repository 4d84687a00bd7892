package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/core/appctx"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/domain"
	"cartera/internal/domain/authz"
	"cartera/internal/domain/invoice"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockPaymentRepo is an in-memory payment store.
type mockPaymentRepo struct {
	payments map[id.ID]*Payment
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[id.ID]*Payment)}
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *Payment) error {
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *Payment) error {
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, apperror.NewNotFound("payment", paymentID.String())
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepo) GetByCode(ctx context.Context, code string) (*Payment, error) {
	for _, p := range m.payments {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("payment", code)
}

func (m *mockPaymentRepo) GetForUpdate(ctx context.Context, paymentID id.ID) (*Payment, error) {
	return m.GetByID(ctx, paymentID)
}

func (m *mockPaymentRepo) CountByInvoice(ctx context.Context, invoiceID id.ID) (int, error) {
	count := 0
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			count++
		}
	}
	return count, nil
}

func (m *mockPaymentRepo) ConfirmedWithholdingExists(ctx context.Context, invoiceID id.ID, component string, excludeID id.ID) (bool, error) {
	for _, p := range m.payments {
		if p.InvoiceID != invoiceID || p.Status != StatusConfirmed || p.ID == excludeID {
			continue
		}
		switch component {
		case WithholdingLocal:
			if p.HasLocalTaxWithholding() {
				return true, nil
			}
		case WithholdingIncome:
			if p.HasIncomeTaxWithholding() {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockPaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	var out []*Payment
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockPaymentRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Payment], error) {
	return domain.ListResult[*Payment]{}, nil
}

func (m *mockPaymentRepo) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*Payment, error) {
	return nil, nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, paymentID id.ID) error {
	delete(m.payments, paymentID)
	return nil
}

// mockEngine holds invoices and derives applied totals from the confirmed
// payments in the payment repo, so confirmations immediately affect the
// balance the next check sees.
type mockEngine struct {
	repo     *mockPaymentRepo
	invoices map[id.ID]*invoice.Invoice
	today    time.Time
}

func newMockEngine(repo *mockPaymentRepo, today time.Time) *mockEngine {
	return &mockEngine{
		repo:     repo,
		invoices: make(map[id.ID]*invoice.Invoice),
		today:    today,
	}
}

func (m *mockEngine) add(inv *invoice.Invoice) {
	m.invoices[inv.ID] = inv
}

func (m *mockEngine) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return inv, nil
}

func (m *mockEngine) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return m.GetByID(ctx, invoiceID)
}

func (m *mockEngine) AppliedTotals(ctx context.Context, invoiceID id.ID) (invoice.AppliedTotals, error) {
	var totals invoice.AppliedTotals
	for _, p := range m.repo.payments {
		if p.InvoiceID != invoiceID || p.Status != StatusConfirmed {
			continue
		}
		totals.Paid = totals.Paid.Add(p.PaidAmount)
		totals.Discount = totals.Discount.Add(p.Discount)
		totals.LocalTaxWithholding = totals.LocalTaxWithholding.Add(p.LocalTaxWithholding)
		totals.IncomeTaxWithholding = totals.IncomeTaxWithholding.Add(p.IncomeTaxWithholding)
		totals.NoteAdjustment = totals.NoteAdjustment.Add(p.NoteAdjustment)
	}
	return totals, nil
}

func (m *mockEngine) RecomputeLocked(ctx context.Context, inv *invoice.Invoice) (bool, error) {
	if inv.Status == invoice.StatusCancelled {
		return false, nil
	}
	totals, _ := m.AppliedTotals(ctx, inv.ID)
	if _, err := inv.OutstandingBalance(totals); err != nil {
		return false, err
	}
	next := invoice.DetermineStatus(inv.GrossTotal, totals.Applied(), inv.IsPastDueAt(m.today))
	if next == inv.Status {
		return false, nil
	}
	inv.Status = next
	return true, nil
}

func managerCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{
		UserID: id.New().String(),
		Roles:  []string{authz.RoleManager},
	})
}

type fixture struct {
	repo    *mockPaymentRepo
	engine  *mockEngine
	service *Service
	invoice *invoice.Invoice
}

// newFixture creates a service around an FE invoice for 1000 due 2026-03-01,
// with today fixed at 2026-02-15.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	today := day("2026-02-15")

	repo := newMockPaymentRepo()
	engine := newMockEngine(repo, today)

	inv := invoice.New("FE-100", id.New(), invoice.TypeElectronic,
		day("2026-01-15"), day("2026-03-01"), types.MustMoney("1000"))
	engine.add(inv)

	svc := NewService(repo, engine, fakeTxManager{}, authz.NewRoleAuthorizer(), nil)
	svc.SetClock(func() time.Time { return today })

	return &fixture{repo: repo, engine: engine, service: svc, invoice: inv}
}

func (f *fixture) register(t *testing.T, ctx context.Context, amount string) *Payment {
	t.Helper()
	p := New()
	p.InvoiceID = f.invoice.ID
	p.PaymentDate = day("2026-02-10")
	p.PaidAmount = types.MustMoney(amount)
	p.Method = MethodCash
	require.NoError(t, f.service.Register(ctx, p))
	return p
}

func TestRegister(t *testing.T) {
	t.Run("assigns sequential codes", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		first := f.register(t, ctx, "100")
		second := f.register(t, ctx, "200")

		assert.Equal(t, "FE-100-001", first.Code)
		assert.Equal(t, "FE-100-002", second.Code)
		assert.Equal(t, StatusRegistered, first.Status)
	})

	t.Run("stamps audit timestamps", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "100")

		stored, _ := f.repo.GetByID(ctx, p.ID)
		assert.Equal(t, day("2026-02-15"), stored.CreatedAt)
		assert.Equal(t, day("2026-02-15"), stored.UpdatedAt)
	})

	t.Run("voided payments still consume sequence numbers", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		first := f.register(t, ctx, "100")
		require.NoError(t, f.service.Void(ctx, first.ID, "captured twice"))

		second := f.register(t, ctx, "100")
		assert.Equal(t, "FE-100-002", second.Code)
	})

	t.Run("registration skips the balance ceiling", func(t *testing.T) {
		f := newFixture(t)
		// Far more than the invoice's gross; must still register.
		p := f.register(t, managerCtx(), "99999")
		assert.Equal(t, StatusRegistered, p.Status)
	})

	t.Run("cancelled invoice rejects registration", func(t *testing.T) {
		f := newFixture(t)
		f.invoice.Status = invoice.StatusCancelled

		p := New()
		p.InvoiceID = f.invoice.ID
		p.PaymentDate = day("2026-02-10")
		p.PaidAmount = types.MustMoney("100")
		p.Method = MethodCash

		err := f.service.Register(managerCtx(), p)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeInvoiceCancelled, appErr.Code)
	})

	t.Run("seller may register only on own invoices", func(t *testing.T) {
		f := newFixture(t)
		sellerID := id.New()
		f.invoice.SellerID = &sellerID

		p := New()
		p.InvoiceID = f.invoice.ID
		p.PaymentDate = day("2026-02-10")
		p.PaidAmount = types.MustMoney("100")
		p.Method = MethodCash

		ownCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: sellerID.String(),
			Roles:  []string{authz.RoleSeller},
		})
		require.NoError(t, f.service.Register(ownCtx, p))

		other := New()
		other.InvoiceID = f.invoice.ID
		other.PaymentDate = day("2026-02-10")
		other.PaidAmount = types.MustMoney("100")
		other.Method = MethodCash

		strangerCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: id.New().String(),
			Roles:  []string{authz.RoleSeller},
		})
		err := f.service.Register(strangerCtx, other)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	})
}

func TestConfirm(t *testing.T) {
	t.Run("applies the payment and recomputes the invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "400")
		require.NoError(t, f.service.Confirm(ctx, p.ID))

		stored, _ := f.repo.GetByID(ctx, p.ID)
		assert.Equal(t, StatusConfirmed, stored.Status)
		require.NotNil(t, stored.ConfirmedAt)
		assert.Equal(t, *stored.ConfirmedAt, stored.UpdatedAt)
		assert.Equal(t, invoice.StatusPartial, f.invoice.Status)
	})

	t.Run("enforces the balance ceiling", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		first := f.register(t, ctx, "600")
		require.NoError(t, f.service.Confirm(ctx, first.ID))

		// 600 already applied; another 600 would overdraw by 200.
		second := f.register(t, ctx, "600")
		err := f.service.Confirm(ctx, second.ID)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeBalanceExceeded, appErr.Code)
		assert.Equal(t, "200", appErr.Details["excess"])

		stored, _ := f.repo.GetByID(ctx, second.ID)
		assert.Equal(t, StatusRegistered, stored.Status)
	})

	t.Run("exact balance is accepted and pays the invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "1000")
		require.NoError(t, f.service.Confirm(ctx, p.ID))
		assert.Equal(t, invoice.StatusPaid, f.invoice.Status)
	})

	t.Run("only registered payments can be confirmed", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "400")
		require.NoError(t, f.service.Confirm(ctx, p.ID))

		err := f.service.Confirm(ctx, p.ID)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodePaymentTerminal, appErr.Code)
	})

	t.Run("requires the manager role", func(t *testing.T) {
		f := newFixture(t)
		p := f.register(t, managerCtx(), "400")

		sellerCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: id.New().String(),
			Roles:  []string{authz.RoleSeller},
		})
		err := f.service.Confirm(sellerCtx, p.ID)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	})
}

func TestWithholdingRules(t *testing.T) {
	withholding := func(f *fixture, local, income string) *Payment {
		p := New()
		p.InvoiceID = f.invoice.ID
		p.PaymentDate = day("2026-02-10")
		p.PaidAmount = types.MustMoney("100")
		p.LocalTaxWithholding = types.MustMoney(local)
		p.IncomeTaxWithholding = types.MustMoney(income)
		p.Method = MethodCash
		return p
	}

	t.Run("rejected on delivery notes", func(t *testing.T) {
		f := newFixture(t)
		remision := invoice.New("R-200", id.New(), invoice.TypeDeliveryNote,
			day("2026-01-15"), day("2026-03-01"), types.MustMoney("1000"))
		f.engine.add(remision)

		p := withholding(f, "9.66", "0")
		p.InvoiceID = remision.ID

		err := f.service.Register(managerCtx(), p)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("one confirmed withholding per kind per invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		first := withholding(f, "50", "0")
		require.NoError(t, f.service.Register(ctx, first))
		require.NoError(t, f.service.Confirm(ctx, first.ID))

		// Second local withholding cannot even be registered.
		second := withholding(f, "30", "0")
		err := f.service.Register(ctx, second)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeWithholdingApplied, appErr.Code)

		// The other kind is still available.
		income := withholding(f, "0", "25")
		require.NoError(t, f.service.Register(ctx, income))
		require.NoError(t, f.service.Confirm(ctx, income.ID))
	})

	t.Run("registered siblings do not block", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		first := withholding(f, "50", "0")
		require.NoError(t, f.service.Register(ctx, first))

		// first stays registered: a second capture with the same component
		// may be registered too; the conflict resolves at confirmation.
		second := withholding(f, "30", "0")
		require.NoError(t, f.service.Register(ctx, second))

		require.NoError(t, f.service.Confirm(ctx, first.ID))
		err := f.service.Confirm(ctx, second.ID)
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeWithholdingApplied, appErr.Code)
	})

	t.Run("plain discounts are not withholdings", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		for i := 0; i < 2; i++ {
			p := New()
			p.InvoiceID = f.invoice.ID
			p.PaymentDate = day("2026-02-10")
			p.PaidAmount = types.MustMoney("100")
			p.Discount = types.MustMoney("40")
			p.Method = MethodCash
			require.NoError(t, f.service.Register(ctx, p))
			require.NoError(t, f.service.Confirm(ctx, p.ID))
		}
	})
}

func TestVoid(t *testing.T) {
	t.Run("reason required", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()
		p := f.register(t, ctx, "400")

		err := f.service.Void(ctx, p.ID, "")
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("voiding a confirmed payment reverts the invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "1000")
		require.NoError(t, f.service.Confirm(ctx, p.ID))
		require.Equal(t, invoice.StatusPaid, f.invoice.Status)

		require.NoError(t, f.service.Void(ctx, p.ID, "bounced check"))
		assert.Equal(t, invoice.StatusPending, f.invoice.Status)

		stored, _ := f.repo.GetByID(ctx, p.ID)
		assert.Equal(t, StatusVoided, stored.Status)
		assert.Equal(t, "bounced check", stored.VoidReason)
	})

	t.Run("double void rejected", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()
		p := f.register(t, ctx, "400")

		require.NoError(t, f.service.Void(ctx, p.ID, "duplicate"))
		err := f.service.Void(ctx, p.ID, "again")
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodePaymentTerminal, appErr.Code)
	})
}

func TestDeletePayment(t *testing.T) {
	t.Run("deleting a confirmed payment recomputes the invoice", func(t *testing.T) {
		f := newFixture(t)
		ctx := managerCtx()

		p := f.register(t, ctx, "1000")
		require.NoError(t, f.service.Confirm(ctx, p.ID))
		require.Equal(t, invoice.StatusPaid, f.invoice.Status)

		require.NoError(t, f.service.Delete(ctx, p.ID))
		assert.Equal(t, invoice.StatusPending, f.invoice.Status)
		_, err := f.repo.GetByID(ctx, p.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("registrar may delete own capture, others may not", func(t *testing.T) {
		f := newFixture(t)
		sellerID := id.New()
		f.invoice.SellerID = &sellerID
		sellerCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: sellerID.String(),
			Roles:  []string{authz.RoleSeller},
		})

		p := New()
		p.InvoiceID = f.invoice.ID
		p.PaymentDate = day("2026-02-10")
		p.PaidAmount = types.MustMoney("100")
		p.Method = MethodCash
		require.NoError(t, f.service.Register(sellerCtx, p))

		// Another seller cannot delete it.
		otherCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: id.New().String(),
			Roles:  []string{authz.RoleSeller},
		})
		err := f.service.Delete(otherCtx, p.ID)
		require.Error(t, err)

		// The registrar can.
		require.NoError(t, f.service.Delete(sellerCtx, p.ID))
	})

	t.Run("registrar may delete own confirmed capture", func(t *testing.T) {
		f := newFixture(t)
		sellerID := id.New()
		f.invoice.SellerID = &sellerID
		sellerCtx := appctx.WithActor(context.Background(), &appctx.Actor{
			UserID: sellerID.String(),
			Roles:  []string{authz.RoleSeller},
		})

		p := New()
		p.InvoiceID = f.invoice.ID
		p.PaymentDate = day("2026-02-10")
		p.PaidAmount = types.MustMoney("1000")
		p.Method = MethodCash
		require.NoError(t, f.service.Register(sellerCtx, p))
		require.NoError(t, f.service.Confirm(managerCtx(), p.ID))
		require.Equal(t, invoice.StatusPaid, f.invoice.Status)

		require.NoError(t, f.service.Delete(sellerCtx, p.ID))
		assert.Equal(t, invoice.StatusPending, f.invoice.Status)
	})
}
