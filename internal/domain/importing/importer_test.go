package importing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/core/apperror"
	"cartera/internal/domain/client"
	"cartera/internal/domain/invoice"
)

// stubStore mimics the invoice service: invoices are validated on create and
// update like manual entry, and frozen once they carry payments.
type stubStore struct {
	byNumber    map[string]*invoice.Invoice
	hasPayments map[string]bool
}

func newStubStore() *stubStore {
	return &stubStore{
		byNumber:    make(map[string]*invoice.Invoice),
		hasPayments: make(map[string]bool),
	}
}

func (s *stubStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if _, ok := s.byNumber[inv.Number]; ok {
		return apperror.NewDuplicate("invoice", "number", inv.Number)
	}
	s.byNumber[inv.Number] = inv
	return nil
}

func (s *stubStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(ctx); err != nil {
		return err
	}
	if s.hasPayments[inv.Number] {
		return apperror.NewBusinessRule(apperror.CodeInvoiceHasPayments,
			"invoices with payments cannot be rewritten")
	}
	s.byNumber[inv.Number] = inv
	return nil
}

func (s *stubStore) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	inv, ok := s.byNumber[number]
	if !ok {
		return nil, apperror.NewNotFound("invoice", number)
	}
	cp := *inv
	return &cp, nil
}

type stubClients struct {
	byCode map[string]*client.Client
}

func (s stubClients) GetByCode(ctx context.Context, code string) (*client.Client, error) {
	cl, ok := s.byCode[code]
	if !ok {
		return nil, apperror.NewNotFound("client", code)
	}
	return cl, nil
}

func newTestImporter() (*Importer, *stubStore) {
	store := newStubStore()
	clients := stubClients{byCode: map[string]*client.Client{
		"CLI-001": client.New("CLI-001", "Acme Distribuciones"),
	}}
	return NewImporter(store, clients, nil), store
}

const header = "number,client_code,issue_date,due_date,gross_total,notes\n"

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("creates new invoices", func(t *testing.T) {
		im, store := newTestImporter()
		csv := header +
			"FE-1001,CLI-001,2026-01-10,2026-02-10,1500.00,monthly order\n" +
			"R-2001,CLI-001,2026-01-12,2026-02-12,300,\n"

		res, err := im.Run(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 0, res.Updated)
		assert.Equal(t, 0, res.Skipped)
		assert.Empty(t, res.Errors)

		fe := store.byNumber["FE-1001"]
		require.NotNil(t, fe)
		assert.Equal(t, invoice.TypeElectronic, fe.Type)
		assert.Equal(t, "monthly order", fe.Notes)
		assert.Equal(t, "1500", fe.GrossTotal.String())

		r := store.byNumber["R-2001"]
		require.NotNil(t, r)
		assert.Equal(t, invoice.TypeDeliveryNote, r.Type)
	})

	t.Run("updates existing invoices", func(t *testing.T) {
		im, store := newTestImporter()

		first := header + "FE-1001,CLI-001,2026-01-10,2026-02-10,1500,\n"
		_, err := im.Run(ctx, strings.NewReader(first))
		require.NoError(t, err)

		second := header + "FE-1001,CLI-001,2026-01-10,2026-03-01,1800,corrected\n"
		res, err := im.Run(ctx, strings.NewReader(second))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Created)
		assert.Equal(t, 1, res.Updated)

		inv := store.byNumber["FE-1001"]
		assert.Equal(t, "1800", inv.GrossTotal.String())
		assert.Equal(t, "corrected", inv.Notes)
	})

	t.Run("bad rows are skipped, not fatal", func(t *testing.T) {
		im, store := newTestImporter()
		csv := header +
			"FE-1001,CLI-001,2026-01-10,2026-02-10,1500,\n" +
			"FE-1002,CLI-001,not-a-date,2026-02-10,100,\n" +
			"FE-1003,CLI-999,2026-01-10,2026-02-10,100,\n" +
			"FE-1004,CLI-001,2026-01-10,2026-02-10,zero,\n" +
			"bogus,CLI-001,2026-01-10,2026-02-10,100,\n" +
			"FE-1005,CLI-001,2026-01-10,2026-02-10,100,\n"

		res, err := im.Run(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Created)
		assert.Equal(t, 4, res.Skipped)
		require.Len(t, res.Errors, 4)

		lines := make([]int, 0, len(res.Errors))
		for _, e := range res.Errors {
			lines = append(lines, e.Line)
		}
		assert.Equal(t, []int{3, 4, 5, 6}, lines)
		assert.Equal(t, "FE-1003", res.Errors[1].Number)

		assert.NotNil(t, store.byNumber["FE-1001"])
		assert.NotNil(t, store.byNumber["FE-1005"])
		assert.Nil(t, store.byNumber["bogus"])
	})

	t.Run("rows with the wrong field count are reported", func(t *testing.T) {
		im, _ := newTestImporter()
		csv := header +
			"FE-1001,CLI-001,2026-01-10\n" +
			"FE-1002,CLI-001,2026-01-10,2026-02-10,100,\n"

		res, err := im.Run(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.Skipped)
	})

	t.Run("rejects a wrong header", func(t *testing.T) {
		im, _ := newTestImporter()
		_, err := im.Run(ctx, strings.NewReader("num,client,from,to,amount,notes\nFE-1,CLI-001,a,b,c,\n"))
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		im, _ := newTestImporter()
		_, err := im.Run(ctx, strings.NewReader(""))
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("header is case-insensitive and tolerates extra columns", func(t *testing.T) {
		im, _ := newTestImporter()
		csv := "Number,Client_Code,Issue_Date,Due_Date,Gross_Total,Notes,Extra\n" +
			"FE-1001,CLI-001,2026-01-10,2026-02-10,1500,,ignored\n"

		res, err := im.Run(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)
	})
}
