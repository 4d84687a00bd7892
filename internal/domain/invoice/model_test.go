package invoice

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

func validInvoice() *Invoice {
	return New("FE-1001", id.New(), TypeElectronic,
		day("2026-01-10"), day("2026-02-10"), types.MustMoney("1000"))
}

func TestInvoiceValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validInvoice().Validate(ctx))
	})

	t.Run("bad number format", func(t *testing.T) {
		for _, number := range []string{"", "FE1001", "FE-", "X-123", "fe-123", "FE-12a"} {
			inv := validInvoice()
			inv.Number = number
			err := inv.Validate(ctx)
			assert.Error(t, err, "number %q", number)
			assert.True(t, apperror.IsValidation(err))
		}
	})

	t.Run("prefix and type must agree", func(t *testing.T) {
		inv := validInvoice()
		inv.Number = "R-1001"
		// Type stays FE
		err := inv.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("delivery note number", func(t *testing.T) {
		inv := validInvoice()
		inv.Number = "R-77"
		inv.Type = TypeDeliveryNote
		assert.NoError(t, inv.Validate(ctx))
	})

	t.Run("missing client", func(t *testing.T) {
		inv := validInvoice()
		inv.ClientID = id.Nil()
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("issue date after due date", func(t *testing.T) {
		inv := validInvoice()
		inv.IssueDate = day("2026-03-01")
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("gross total must be positive", func(t *testing.T) {
		for _, gross := range []string{"0", "-1"} {
			inv := validInvoice()
			inv.GrossTotal = types.MustMoney(gross)
			assert.Error(t, inv.Validate(ctx), "gross %s", gross)
		}
	})
}

func TestOutstandingBalance(t *testing.T) {
	inv := validInvoice()

	t.Run("no payments", func(t *testing.T) {
		balance, err := inv.OutstandingBalance(AppliedTotals{})
		require.NoError(t, err)
		assert.True(t, balance.Equal(types.MustMoney("1000")))
	})

	t.Run("all components count", func(t *testing.T) {
		totals := AppliedTotals{
			Paid:                 types.MustMoney("500"),
			Discount:             types.MustMoney("100"),
			LocalTaxWithholding:  types.MustMoney("50"),
			IncomeTaxWithholding: types.MustMoney("30"),
			NoteAdjustment:       types.MustMoney("20"),
		}
		assert.True(t, totals.Applied().Equal(types.MustMoney("700")))
		assert.True(t, totals.Discounts().Equal(types.MustMoney("200")))

		balance, err := inv.OutstandingBalance(totals)
		require.NoError(t, err)
		assert.True(t, balance.Equal(types.MustMoney("300")))
	})

	t.Run("negative balance is an integrity error", func(t *testing.T) {
		totals := AppliedTotals{Paid: types.MustMoney("1200")}
		balance, err := inv.OutstandingBalance(totals)
		require.Error(t, err)
		assert.True(t, balance.IsNegative())

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeIntegrity, appErr.Code)
	})
}

func TestOverdueDetection(t *testing.T) {
	inv := validInvoice() // due 2026-02-10

	t.Run("day granularity", func(t *testing.T) {
		// Due date itself is not overdue, whatever the time of day.
		assert.False(t, inv.IsPastDueAt(day("2026-02-10").Add(23*time.Hour)))
		assert.False(t, inv.IsOverdueAt(day("2026-02-10")))

		assert.True(t, inv.IsPastDueAt(day("2026-02-11")))
		assert.True(t, inv.IsOverdueAt(day("2026-02-11")))
	})

	t.Run("paid and cancelled are never overdue", func(t *testing.T) {
		for _, status := range []Status{StatusPaid, StatusCancelled} {
			inv := validInvoice()
			inv.Status = status
			assert.False(t, inv.IsOverdueAt(day("2026-06-01")), "status %s", status)
			// The raw date check still fires; only the status gate differs.
			assert.True(t, inv.IsPastDueAt(day("2026-06-01")))
		}
	})

	t.Run("days past due", func(t *testing.T) {
		assert.Equal(t, 0, inv.DaysPastDueAt(day("2026-02-10")))
		assert.Equal(t, 5, inv.DaysPastDueAt(day("2026-02-15")))
		assert.Equal(t, -10, inv.DaysPastDueAt(day("2026-01-31")))
	})
}

func TestCanAcceptPayment(t *testing.T) {
	inv := validInvoice()

	t.Run("accepts within balance", func(t *testing.T) {
		ok, _ := inv.CanAcceptPayment(types.MustMoney("1000"), AppliedTotals{})
		assert.True(t, ok)
	})

	t.Run("rejects above balance", func(t *testing.T) {
		ok, reason := inv.CanAcceptPayment(types.MustMoney("600"),
			AppliedTotals{Paid: types.MustMoney("500")})
		assert.False(t, ok)
		assert.NotEmpty(t, reason)
	})

	t.Run("rejects on cancelled invoice", func(t *testing.T) {
		cancelled := validInvoice()
		cancelled.Status = StatusCancelled
		ok, _ := cancelled.CanAcceptPayment(types.MustMoney("1"), AppliedTotals{})
		assert.False(t, ok)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		ok, _ := inv.CanAcceptPayment(types.MustMoney("0"), AppliedTotals{})
		assert.False(t, ok)
	})
}
