package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func validPayment() *Payment {
	p := New()
	p.InvoiceID = id.New()
	p.PaymentDate = day("2026-02-01")
	p.PaidAmount = types.MustMoney("500")
	p.Method = MethodCash
	return p
}

func TestPaymentValidateAt(t *testing.T) {
	ctx := context.Background()
	now := day("2026-02-15")

	t.Run("valid cash payment", func(t *testing.T) {
		assert.NoError(t, validPayment().ValidateAt(ctx, now))
	})

	t.Run("invoice reference required", func(t *testing.T) {
		p := validPayment()
		p.InvoiceID = id.Nil()
		assert.Error(t, p.ValidateAt(ctx, now))
	})

	t.Run("payment date required", func(t *testing.T) {
		p := validPayment()
		p.PaymentDate = time.Time{}
		assert.Error(t, p.ValidateAt(ctx, now))
	})

	t.Run("future date rejected, same day allowed", func(t *testing.T) {
		p := validPayment()
		p.PaymentDate = day("2026-02-16")
		assert.Error(t, p.ValidateAt(ctx, now))

		// Later clock time on the same calendar day is not "future".
		p.PaymentDate = day("2026-02-15").Add(22 * time.Hour)
		assert.NoError(t, p.ValidateAt(ctx, now))
	})

	t.Run("negative components rejected", func(t *testing.T) {
		set := []func(*Payment){
			func(p *Payment) { p.PaidAmount = types.MustMoney("-1") },
			func(p *Payment) { p.Discount = types.MustMoney("-1") },
			func(p *Payment) { p.LocalTaxWithholding = types.MustMoney("-1") },
			func(p *Payment) { p.IncomeTaxWithholding = types.MustMoney("-1") },
			func(p *Payment) { p.NoteAdjustment = types.MustMoney("-1") },
		}
		for i, mutate := range set {
			p := validPayment()
			mutate(p)
			err := p.ValidateAt(ctx, now)
			assert.Error(t, err, "case %d", i)
			assert.True(t, apperror.IsValidation(err))
		}
	})

	t.Run("zero total rejected", func(t *testing.T) {
		p := validPayment()
		p.PaidAmount = types.Zero()
		assert.Error(t, p.ValidateAt(ctx, now))
	})

	t.Run("discount-only payment is acceptable", func(t *testing.T) {
		p := validPayment()
		p.PaidAmount = types.Zero()
		p.Discount = types.MustMoney("120")
		assert.NoError(t, p.ValidateAt(ctx, now))
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		p := validPayment()
		p.Method = Method("crypto")
		assert.Error(t, p.ValidateAt(ctx, now))
	})

	t.Run("transfer requires account and reference", func(t *testing.T) {
		p := validPayment()
		p.Method = MethodTransfer

		err := p.ValidateAt(ctx, now)
		require.Error(t, err)

		accountID := id.New()
		p.AccountID = &accountID
		err = p.ValidateAt(ctx, now)
		require.Error(t, err)

		p.Reference = "TRF-99812"
		assert.NoError(t, p.ValidateAt(ctx, now))
	})

	t.Run("card requires account only", func(t *testing.T) {
		p := validPayment()
		p.Method = MethodCard
		require.Error(t, p.ValidateAt(ctx, now))

		accountID := id.New()
		p.AccountID = &accountID
		assert.NoError(t, p.ValidateAt(ctx, now))
	})
}

func TestPaymentTotal(t *testing.T) {
	p := validPayment()
	p.Discount = types.MustMoney("50")
	p.LocalTaxWithholding = types.MustMoney("9.66")
	p.IncomeTaxWithholding = types.MustMoney("25")
	p.NoteAdjustment = types.MustMoney("0.34")

	assert.True(t, p.Total().Equal(types.MustMoney("585")))
}

func TestPaymentTerminalStates(t *testing.T) {
	p := validPayment()
	assert.False(t, p.IsTerminal())

	p.Status = StatusConfirmed
	assert.True(t, p.IsTerminal())

	p.Status = StatusVoided
	assert.True(t, p.IsTerminal())
}
